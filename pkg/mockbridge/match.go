package mockbridge

import "strings"

// Match reports whether url matches pattern. Every * in pattern matches any
// substring, including the empty one; everything else is literal and the
// whole url must be consumed.
func Match(pattern, url string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == url
	}

	first, last := parts[0], parts[len(parts)-1]
	if !strings.HasPrefix(url, first) {
		return false
	}
	rest := url[len(first):]

	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(rest, part)
		if i < 0 {
			return false
		}
		rest = rest[i+len(part):]
	}
	return strings.HasSuffix(rest, last)
}
