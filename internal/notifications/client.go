package notifications

import (
	"crypto/tls"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// NewHTTPClient builds the outbound client. Certificate verification stays on
// unless insecureSkipVerify is set.
func NewHTTPClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via http.insecure_skip_verify
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
