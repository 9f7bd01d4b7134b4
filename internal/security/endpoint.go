package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Hostnames that must never be scan targets regardless of what they
// resolve to.
var blockedHosts = map[string]struct{}{
	"localhost":                {},
	"metadata.google.internal": {},
	"metadata.google":          {},
}

// ValidateEndpointURL checks that an operator-supplied endpoint (e.g. a
// custom scanner base URL) is safe to issue server-side requests to.
// It rejects non-HTTP schemes, internal hostnames, and any host that is
// or resolves to a loopback, private, link-local, or unspecified address.
func ValidateEndpointURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	host := u.Hostname()
	if _, banned := blockedHosts[strings.ToLower(host)]; banned {
		return fmt.Errorf("URL host %q is not allowed", host)
	}

	// An IP literal is checked directly, no DNS involved.
	if ip := net.ParseIP(host); ip != nil {
		return checkIP(ip)
	}

	// Otherwise every resolved address must be routable.
	addrs, err := net.LookupHost(host)
	if err != nil {
		return fmt.Errorf("cannot resolve URL host: %s", host)
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil {
			if err := checkIP(ip); err != nil {
				return fmt.Errorf("URL host %q resolves to blocked address: %v", host, err)
			}
		}
	}
	return nil
}

func checkIP(ip net.IP) error {
	switch {
	case ip.IsLoopback():
		return fmt.Errorf("loopback addresses are not allowed")
	case ip.IsPrivate():
		return fmt.Errorf("private addresses are not allowed")
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Errorf("link-local addresses are not allowed")
	case ip.IsUnspecified():
		return fmt.Errorf("unspecified addresses are not allowed")
	}
	return nil
}
