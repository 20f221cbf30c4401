package transport

import (
	"net/http"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {
	// No authentication applied
}

// KeyPairAuth authenticates with the catalog service's access/secret key
// header pair.
type KeyPairAuth struct {
	AccessKey string
	SecretKey string
}

// Apply implements the Authenticator interface for KeyPairAuth.
func (a *KeyPairAuth) Apply(req *http.Request) {
	req.Header.Set("accessKey", a.AccessKey)
	req.Header.Set("secretKey", a.SecretKey)
}

// HeaderAuth implements custom header authentication.
type HeaderAuth struct {
	Header string
	Value  string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request) {
	req.Header.Set(a.Header, a.Value)
}
