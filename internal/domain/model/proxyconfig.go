package model

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

// ProxyType is the protocol spoken to a container's proxy.
type ProxyType string

const (
	ProxyTypeHTTP   ProxyType = "HTTP"
	ProxyTypeHTTPS  ProxyType = "HTTPS"
	ProxyTypeSOCKS4 ProxyType = "SOCKS4"
	ProxyTypeSOCKS5 ProxyType = "SOCKS5"
)

// ParseProxyType matches s case-insensitively against the known proxy types.
func ParseProxyType(s string) (ProxyType, error) {
	switch ProxyType(strings.ToUpper(strings.TrimSpace(s))) {
	case ProxyTypeHTTP:
		return ProxyTypeHTTP, nil
	case ProxyTypeHTTPS:
		return ProxyTypeHTTPS, nil
	case ProxyTypeSOCKS4:
		return ProxyTypeSOCKS4, nil
	case ProxyTypeSOCKS5:
		return ProxyTypeSOCKS5, nil
	default:
		return "", fmt.Errorf("%w: unknown proxy type %q", ErrValidation, s)
	}
}

// Tag returns the lower-case protocol tag handed to the host's connection layer.
func (t ProxyType) Tag() string {
	return strings.ToLower(string(t))
}

// ProxyConfig is the proxy assigned to a single container. It is also the
// persisted and exported shape, so field names follow the document format.
type ProxyConfig struct {
	Type     ProxyType `json:"type" yaml:"type"`
	Host     string    `json:"host" yaml:"host"`
	Port     PortText  `json:"port" yaml:"port"`
	Label    string    `json:"label,omitempty" yaml:"label,omitempty"`
	Username string    `json:"username,omitempty" yaml:"username,omitempty"`
	Password string    `json:"password,omitempty" yaml:"password,omitempty"`
	Enabled  bool      `json:"enabled" yaml:"enabled"`
}

// Credentials returns the trimmed username and password. ok is true only when
// both are non-empty; a half-filled pair counts as no credentials.
func (c ProxyConfig) Credentials() (username, password string, ok bool) {
	username = strings.TrimSpace(c.Username)
	password = strings.TrimSpace(c.Password)
	return username, password, username != "" && password != ""
}

// Validate checks the shape of the config without modifying it.
func (c ProxyConfig) Validate() error {
	if _, err := ParseProxyType(string(c.Type)); err != nil {
		return err
	}
	if err := validateHost(c.Host); err != nil {
		return err
	}
	if _, err := c.Port.Int(); err != nil {
		return err
	}
	return nil
}

// Normalize validates c and returns its canonical stored form: upper-case
// type, trimmed host/label/credentials, and decimal port text.
func (c ProxyConfig) Normalize() (ProxyConfig, error) {
	if err := c.Validate(); err != nil {
		return ProxyConfig{}, err
	}

	typ, _ := ParseProxyType(string(c.Type))
	port, _ := c.Port.Int()

	return ProxyConfig{
		Type:     typ,
		Host:     strings.TrimSpace(c.Host),
		Port:     PortText(strconv.Itoa(port)),
		Label:    strings.TrimSpace(c.Label),
		Username: strings.TrimSpace(c.Username),
		Password: strings.TrimSpace(c.Password),
		Enabled:  c.Enabled,
	}, nil
}

// Address returns host:port suitable for display and logging.
func (c ProxyConfig) Address() string {
	return net.JoinHostPort(strings.Trim(strings.TrimSpace(c.Host), "[]"), strings.TrimSpace(string(c.Port)))
}

// hostProfile maps like a lookup but without STD3 rules, so service names
// such as proxy_1 stay valid.
var hostProfile = idna.New(idna.MapForLookup(), idna.StrictDomainName(false))

func validateHost(raw string) error {
	host := strings.TrimSpace(raw)
	if host == "" {
		return fmt.Errorf("%w: host is required", ErrValidation)
	}

	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		return nil
	}

	if strings.ContainsFunc(host, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(":/\\@?#[]", r)
	}) {
		return fmt.Errorf("%w: invalid host %q", ErrValidation, host)
	}

	if _, err := hostProfile.ToASCII(host); err != nil {
		return fmt.Errorf("%w: invalid host %q: %v", ErrValidation, host, err)
	}
	return nil
}
