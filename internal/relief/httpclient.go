package relief

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"time"

	"reliefctl/internal/config"
)

// Version is stamped into the User-Agent; cmd/reliefctl overrides it.
var Version = "dev"

func newHTTPClient(cfg *config.Config) *http.Client {
	// zero leaves requests unbounded; a hung call stays in flight
	timeout := time.Duration(cfg.Network.TimeoutSeconds) * time.Second
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	client := &http.Client{Transport: tr, Timeout: timeout}
	// Keep the User-Agent across redirects.
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("stopped after %d redirects", len(via))
		}
		if len(via) == 0 {
			return nil
		}
		if ua := via[len(via)-1].Header.Get("User-Agent"); ua != "" {
			req.Header.Set("User-Agent", ua)
		}
		return nil
	}
	return client
}

// userAgent returns the configured User-Agent, or
// "reliefctl/<version> (<goos>/<goarch>)" when not set.
func userAgent(cfg *config.Config) string {
	if cfg != nil && cfg.Network.UserAgent != "" {
		return cfg.Network.UserAgent
	}
	return fmt.Sprintf("reliefctl/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
