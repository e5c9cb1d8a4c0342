package system

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"sort"
	"time"

	"reliefctl/internal/errors"
)

// CheckServiceReachable resolves the host of baseURL and opens a TCP
// connection to it. It says nothing about whether HTTP is answered.
func CheckServiceReachable(ctx context.Context, baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return errors.NewFriendlyError(
			fmt.Sprintf("Invalid service URL: %s", baseURL),
			"Set service.base_url (or RELIEF_BASE_URL) to something like http://localhost:5001",
		)
	}
	host, port := u.Hostname(), u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	if net.ParseIP(host) == nil {
		resolver := &net.Resolver{}
		if _, err := resolver.LookupHost(ctx, host); err != nil {
			return errors.NewFriendlyError(
				fmt.Sprintf("Cannot resolve host: %s", host),
				"Check that the hostname is correct and your DNS is working",
			).WithDetails(err)
		}
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return errors.NewFriendlyError(
			fmt.Sprintf("Cannot connect to %s", net.JoinHostPort(host, port)),
			fmt.Sprintf("Nothing is listening there:\n"+
				"1. Start the relief service\n"+
				"2. Check the port in service.base_url\n"+
				"3. Try: curl -I %s", baseURL),
		).WithDetails(err)
	}
	_ = conn.Close()
	return nil
}

// DetectProxySettings returns proxy configuration from environment
func DetectProxySettings() map[string]string {
	proxies := make(map[string]string)
	envVars := []string{"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "no_proxy"}
	for _, envVar := range envVars {
		if val := os.Getenv(envVar); val != "" {
			proxies[envVar] = val
		}
	}
	return proxies
}

// ProxyNames lists the set proxy variables in a stable order.
func ProxyNames(proxies map[string]string) []string {
	names := make([]string, 0, len(proxies))
	for k := range proxies {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
