package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// PortText is a proxy port stored as text. Documents written by hand or by
// other tools sometimes carry the port as a number, so both forms decode.
type PortText string

// Int parses the port and checks it lies in [1, 65535].
func (p PortText) Int() (int, error) {
	s := strings.TrimSpace(string(p))
	if s == "" {
		return 0, fmt.Errorf("%w: port is required", ErrValidation)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: port %q is not a number", ErrValidation, s)
	}
	if n < 1 || n > 65535 {
		return 0, fmt.Errorf("%w: port %d out of range 1-65535", ErrValidation, n)
	}
	return n, nil
}

// UnmarshalJSON accepts "8080", 8080, or null.
func (p *PortText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PortText(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("port must be a string or number: %w", err)
	}
	*p = PortText(n.String())
	return nil
}

// UnmarshalYAML accepts scalar ports in either quoted or bare form.
func (p *PortText) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("port must be a scalar, got %v", node.Tag)
	}
	if node.Tag == "!!null" {
		*p = ""
		return nil
	}
	*p = PortText(node.Value)
	return nil
}

// MarshalYAML always writes the port quoted so it round-trips as text.
func (p PortText) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(p), Style: yaml.DoubleQuotedStyle}, nil
}
