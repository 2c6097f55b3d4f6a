package fetcher

import (
	"fmt"
	"strings"
)

// DefaultLocalePriority is the default language preference.
var DefaultLocalePriority = []string{"en", "ja"}

// AcceptLanguage builds an Accept-Language header value from locales in
// priority order, with decreasing quality values.
// AcceptLanguage([]string{"en", "ja", "zh"}) returns "en,ja;q=0.9,zh;q=0.8".
func AcceptLanguage(locales []string) string {
	var parts []string
	for _, loc := range locales {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		if len(parts) == 0 {
			parts = append(parts, loc)
			continue
		}
		q := 10 - len(parts)
		if q < 1 {
			q = 1
		}
		parts = append(parts, fmt.Sprintf("%s;q=0.%d", loc, q))
	}
	return strings.Join(parts, ",")
}

// ParseLocales parses a comma-separated locale string into a slice.
func ParseLocales(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
