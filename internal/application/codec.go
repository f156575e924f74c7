package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// DocumentVersion is written into every exported document. Importers accept
// any document with the same major version, or none at all.
const DocumentVersion = "1.0.0"

// Document is the portable export of the mapping joined with container
// metadata.
type Document struct {
	Version    string              `json:"version" yaml:"version"`
	Timestamp  string              `json:"timestamp" yaml:"timestamp"`
	Containers []ExportedContainer `json:"containers" yaml:"containers"`
}

// ExportedContainer is one container in a Document. Proxy is nil when the
// container has no proxy assigned.
type ExportedContainer struct {
	ID    string             `json:"id" yaml:"id"`
	Name  string             `json:"name" yaml:"name"`
	Color string             `json:"color" yaml:"color"`
	Proxy *model.ProxyConfig `json:"proxy" yaml:"proxy"`
}

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a format name or file extension to a Format. The empty
// string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported document format %q", model.ErrFormat, s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Export projects m onto the registry's containers, in registry order. Mapping
// entries for containers the registry does not list are appended, sorted by
// ID, with empty name and color so that the document is a complete backup.
func Export(m model.Mapping, containers []model.Container, now time.Time) Document {
	doc := Document{
		Version:    DocumentVersion,
		Timestamp:  now.UTC().Format(time.RFC3339Nano),
		Containers: make([]ExportedContainer, 0, len(containers)),
	}

	listed := make(map[string]bool, len(containers))
	for _, c := range containers {
		listed[c.ID] = true
		doc.Containers = append(doc.Containers, ExportedContainer{
			ID:    c.ID,
			Name:  c.Name,
			Color: c.Color,
			Proxy: proxyFor(m, c.ID),
		})
	}

	var orphans []string
	for id := range m {
		if !listed[id] {
			orphans = append(orphans, id)
		}
	}
	slices.Sort(orphans)
	for _, id := range orphans {
		doc.Containers = append(doc.Containers, ExportedContainer{ID: id, Proxy: proxyFor(m, id)})
	}

	return doc
}

func proxyFor(m model.Mapping, id string) *model.ProxyConfig {
	cfg, ok := m[id]
	if !ok {
		return nil
	}
	return &cfg
}

// Encode writes doc in the given format.
func Encode(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml document: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json document: %w", err)
		}
		return nil
	}
}

// rawDocument distinguishes a missing containers key from an empty one.
type rawDocument struct {
	Version    string               `json:"version" yaml:"version"`
	Timestamp  string               `json:"timestamp" yaml:"timestamp"`
	Containers *[]ExportedContainer `json:"containers" yaml:"containers"`
}

// Decode reads a document. Unknown fields are ignored so documents written by
// newer minor versions still import. Every failure wraps model.ErrFormat.
func Decode(r io.Reader, format Format) (Document, error) {
	var raw rawDocument

	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return Document{}, fmt.Errorf("%w: empty document", model.ErrFormat)
			}
			return Document{}, fmt.Errorf("%w: %w", model.ErrFormat, err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return Document{}, fmt.Errorf("%w: empty document", model.ErrFormat)
			}
			return Document{}, fmt.Errorf("%w: %w", model.ErrFormat, err)
		}
	}

	if raw.Containers == nil {
		return Document{}, fmt.Errorf("%w: invalid configuration file format: missing containers list", model.ErrFormat)
	}
	if err := checkVersion(raw.Version); err != nil {
		return Document{}, err
	}

	return Document{
		Version:    raw.Version,
		Timestamp:  raw.Timestamp,
		Containers: *raw.Containers,
	}, nil
}

func checkVersion(version string) error {
	if version == "" {
		return nil
	}
	v := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: invalid document version %q", model.ErrFormat, version)
	}
	if semver.Compare(semver.Major(v), semver.Major("v"+DocumentVersion)) > 0 {
		return fmt.Errorf("%w: document version %s is newer than supported %s", model.ErrFormat, version, DocumentVersion)
	}
	return nil
}

// ProxySetter applies a single imported entry. *ProxyService satisfies it.
type ProxySetter interface {
	SetProxy(ctx context.Context, containerID string, cfg model.ProxyConfig) (model.ProxyConfig, error)
}

// ImportResult reports the outcome of a best-effort import.
type ImportResult struct {
	Applied int
	Skipped int // entries with a null proxy
	Errors  []error
}

// Err joins the per-entry errors, or returns nil if every entry applied.
func (r ImportResult) Err() error {
	return errors.Join(r.Errors...)
}

// Import applies every entry with a non-null proxy through setter. Entries
// with a null proxy are skipped, never treated as removals. A failing entry
// does not stop the remaining ones.
func Import(ctx context.Context, doc Document, setter ProxySetter) ImportResult {
	var res ImportResult
	for i, c := range doc.Containers {
		if c.Proxy == nil {
			res.Skipped++
			continue
		}
		if _, err := setter.SetProxy(ctx, c.ID, *c.Proxy); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("container %d (%q): %w", i, c.ID, err))
			continue
		}
		res.Applied++
	}
	return res
}
