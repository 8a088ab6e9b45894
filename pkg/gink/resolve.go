package gink

import "strings"

// Resolve turns a service-relative URL into an absolute one, using origin (the
// URL of the response the reference came from) as its base.
//
// This is a lexical join on path segments, not RFC 3986 resolution: the last
// segment of origin is treated as a file, `..` pops a segment, `.` and empty
// segments are skipped. The query of target is kept; the query of origin is not.
// An empty target is returned as is.
func Resolve(target, origin string) string {
	if target == "" || isAbsoluteURL(target) {
		return target
	}

	query := ""
	if pos := strings.IndexByte(target, '?'); pos >= 0 {
		target, query = target[:pos], target[pos:]
	}
	if pos := strings.IndexByte(origin, '?'); pos >= 0 {
		origin = origin[:pos]
	}

	from := strings.Split(origin, "/")
	root := rootLen(from)

	switch {
	case strings.HasPrefix(target, "//"):
		// network-path reference: only the scheme survives
		if root > 0 {
			return from[0] + target + query
		}
	case strings.HasPrefix(target, "/"):
		from = from[:root]
	default:
		if len(from) > root {
			from = from[:len(from)-1]
		}
	}

	for _, part := range strings.Split(target, "/") {
		switch part {
		case "..":
			if len(from) > root {
				from = from[:len(from)-1]
			}
		case ".", "":
		default:
			from = append(from, part)
		}
	}

	return strings.Join(from, "/") + query
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http:") || strings.HasPrefix(s, "https:")
}

// rootLen returns how many leading segments form "scheme://host", which are
// never popped. Zero for origins without an authority.
func rootLen(segments []string) int {
	if len(segments) >= 3 && strings.HasSuffix(segments[0], ":") && segments[1] == "" {
		return 3
	}
	return 0
}
