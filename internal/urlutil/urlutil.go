// Package urlutil provides URL helpers shared by the credential store and the resolver.
// It extracts and normalizes host names, compares hosts with optional subdomain
// matching, and resolves relative links against a base URL.
package urlutil

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// AppScheme is the scheme prefix used for Android application identifiers.
// Such URLs name an app package, not a web host.
const AppScheme = "androidapp://"

var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// HasScheme reports whether rawURL starts with a "scheme://" prefix.
// A "://" later in the path or query does not count.
func HasScheme(rawURL string) bool {
	return schemePrefix.MatchString(rawURL)
}

// IsAppURL reports whether rawURL is an application identifier URL.
func IsAppURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, AppScheme)
}

// GetHost extracts the host component from rawURL.
// Input without a scheme is treated as starting with the authority, so
// "example.com/login" yields "example.com". Ports, user info and a trailing
// dot are removed. The result is lower-case ASCII (IDNA encoded).
// Returns "" when rawURL is empty or cannot be parsed.
func GetHost(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}

	// Without a scheme, url.Parse would read everything as a path
	if !HasScheme(s) {
		s = "//" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}

	return NormalizeHost(u.Hostname())
}

// NormalizeHost lower-cases host, strips a trailing dot and converts
// internationalized labels to their ASCII form.
func NormalizeHost(host string) string {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" {
		return ""
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		// Underscores, IPv6 literals and the like are not valid IDNA input
		return host
	}
	return ascii
}

// HostMatches reports whether an entry stored for storedHost applies to queryHost.
//
// Equal hosts always match. With allowSubdomains, a broader stored host also
// matches a narrower query host: stored "google.com" matches query
// "accounts.google.com". The reverse never holds.
func HostMatches(queryHost, storedHost string, allowSubdomains bool) bool {
	if queryHost == "" || storedHost == "" {
		return false
	}
	if queryHost == storedHost {
		return true
	}
	if !allowSubdomains {
		return false
	}
	return strings.HasSuffix(queryHost, "."+storedHost)
}

// IsPublicSuffix reports whether host is itself a public suffix under which
// unrelated parties register names. Single-label hosts outside the ICANN
// list (such as "localhost") are not treated as suffixes.
func IsPublicSuffix(host string) bool {
	suffix, icann := publicsuffix.PublicSuffix(host)
	if suffix != host {
		return false
	}
	return icann || strings.Contains(host, ".")
}

// Normalize trims rawURL and adds an https scheme to schemeless input.
// It is used when a URL is about to be stored in a new entry.
func Normalize(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	if !HasScheme(s) {
		s = "https://" + s
	}
	return s
}

// ResolveReference resolves ref against base.
// Absolute references, anchors and mailto links are returned unchanged, as is
// ref when either value cannot be parsed.
func ResolveReference(base, ref string) string {
	ref = strings.TrimSpace(ref)

	// Skip if already absolute
	if HasScheme(ref) ||
		strings.HasPrefix(ref, "mailto:") ||
		strings.HasPrefix(ref, "#") {
		return ref
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}

	relURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}

	return baseURL.ResolveReference(relURL).String()
}
