package socketio

import (
	"crypto/tls"
	"sync/atomic"
)

// tlsConfig is the process-wide TLS parameter spec.md §3/§5 calls out:
// read-only after set, consumed by the handshake and by secure-scheme
// transports. atomic.Value gives lock-free reads on every connection's
// hot path without a shared mutex.
var tlsConfig atomic.Value // holds *tls.Config

// SetTLSConfig installs the process-wide TLS configuration used for
// any handshake or transport connection whose origin scheme is
// secure ("https"/"wss"). Safe to call concurrently with connections
// in flight; already-open connections are unaffected.
func SetTLSConfig(cfg *tls.Config) {
	tlsConfig.Store(cfg)
}

// TLSConfig returns the current process-wide TLS configuration, or
// nil if none has been set (net/http's default behavior applies).
func TLSConfig() *tls.Config {
	v := tlsConfig.Load()
	if v == nil {
		return nil
	}
	return v.(*tls.Config)
}
