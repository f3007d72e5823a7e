package utils

import (
	"net"
	"net/url"
	"strings"
)

// IsAllowedOrigin reports whether a CORS origin looks like a local or
// private-network client. The gateway has no public browser surface, so
// anything routable stays blocked.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	hostname := parsed.Hostname()

	if hostname == "localhost" {
		return true
	}

	// mDNS names like mybox.local
	if strings.HasSuffix(hostname, ".local") {
		return true
	}

	// single-label LAN hostnames
	if !strings.Contains(hostname, ".") {
		return true
	}

	if ip := net.ParseIP(hostname); ip != nil {
		return isPrivateIP(ip)
	}

	return false
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
