package httphandler

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/ericfisherdev/containerproxy/internal/application"
	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// maxImportBytes caps uploaded configuration documents.
const maxImportBytes = 4 << 20

// Export downloads the mapping joined with the container list. The format
// query parameter selects json (default) or yaml.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := application.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.transfer.Export(r.Context())
	if err != nil {
		h.logger.Error("failed to export proxy configurations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var buf bytes.Buffer
	if err := application.Encode(&buf, doc, format); err != nil {
		h.logger.Error("failed to encode export", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": h.transfer.Filename(format)})
	w.Header().Set("Content-Type", format.ContentType()+"; charset=utf-8")
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Import applies an uploaded document. The format comes from the format
// query parameter, falling back to the request's Content-Type.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	format, err := importFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := application.Decode(http.MaxBytesReader(w, r.Body, maxImportBytes), format)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "configuration file too large")
			return
		}
		h.logger.Warn("rejected configuration import", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toImportResponse(h.transfer.Import(r.Context(), doc)))
}

func importFormat(r *http.Request) (application.Format, error) {
	if q := r.URL.Query().Get("format"); q != "" {
		return application.ParseFormat(q)
	}

	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return application.FormatJSON, nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("%w: invalid content type %q", model.ErrFormat, ct)
	}
	if strings.Contains(mediaType, "yaml") {
		return application.FormatYAML, nil
	}
	return application.FormatJSON, nil
}
