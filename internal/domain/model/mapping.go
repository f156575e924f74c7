package model

// Mapping assigns proxies to container IDs. A Mapping held by the
// configuration service is never modified in place; mutations work on a
// Clone.
type Mapping map[string]ProxyConfig

// Clone returns a shallow copy. ProxyConfig holds only value fields, so the
// copy shares nothing with the original.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for id, cfg := range m {
		out[id] = cfg
	}
	return out
}
