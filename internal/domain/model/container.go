package model

import "fmt"

// DefaultContainerID is the cookie store of the default, non-isolated
// browsing context. Requests from it are never proxied.
const DefaultContainerID = "firefox-default"

// Container is the host's metadata for a browsing container, used when
// exporting the mapping so that a document can be read without the browser.
type Container struct {
	ID    string `json:"id" yaml:"id" toml:"id"`
	Name  string `json:"name" yaml:"name" toml:"name"`
	Color string `json:"color" yaml:"color" toml:"color"`
}

// ValidateContainers rejects a container list with an empty or repeated ID,
// either of which would make an export list the wrong containers.
func ValidateContainers(containers []Container) error {
	seen := make(map[string]bool, len(containers))
	for i, c := range containers {
		if c.ID == "" {
			return fmt.Errorf("%w: container %d has no id", ErrValidation, i)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate container id %q", ErrValidation, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}
