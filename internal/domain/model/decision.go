package model

// ProxyDescriptor is the connection parameters handed to the host's
// connection layer for a proxied request. Credentials are omitted entirely,
// never sent as empty strings, so the host's own prompt can take over.
type ProxyDescriptor struct {
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	ProxyDNS bool   `json:"proxyDNS"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// RoutingDecision is the per-request choice between a direct connection and
// a proxy. The zero value is a direct decision.
type RoutingDecision struct {
	Proxy *ProxyDescriptor
}

// Direct is the decision to connect without a proxy.
var Direct = RoutingDecision{}

// Proxied wraps a descriptor into a routing decision.
func Proxied(d ProxyDescriptor) RoutingDecision {
	return RoutingDecision{Proxy: &d}
}

// IsDirect reports whether the request bypasses any proxy.
func (d RoutingDecision) IsDirect() bool {
	return d.Proxy == nil
}

// AuthDecision answers a proxy authentication challenge. When Supply is
// false the host falls back to its own credential flow; the request is
// never cancelled.
type AuthDecision struct {
	Supply   bool
	Username string
	Password string
}

// Decline lets the host handle the challenge itself.
var Decline = AuthDecision{}

// Supply answers the challenge with stored credentials.
func Supply(username, password string) AuthDecision {
	return AuthDecision{Supply: true, Username: username, Password: password}
}
