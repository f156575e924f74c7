package registry

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// fileDocument is the on-disk layout:
//
//	[[container]]
//	id = "firefox-container-1"
//	name = "Work"
//	color = "blue"
type fileDocument struct {
	Containers []model.Container `toml:"container"`
}

// LoadFile reads a TOML container list. Empty and duplicate IDs are rejected.
func LoadFile(path string) ([]model.Container, error) {
	var doc fileDocument
	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("registry %s: unknown keys %v", path, undecoded)
	}

	if err := model.ValidateContainers(doc.Containers); err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}

	return doc.Containers, nil
}
