package cdxj

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ToSURT converts rawURL into its Sort-friendly URI Reordering Transform:
// lowercase scheme, default port stripped for http/https, host labels
// reversed and comma-joined, any other port appended as ":port", all
// terminated by ")", followed by the
// percent-decoded path and a query string re-sorted by key.
func ToSURT(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", rawURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())

	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	labels := strings.Split(host, ".")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}

	var b strings.Builder

	b.WriteString(strings.Join(labels, ","))

	if port := u.Port(); port != "" && !isDefaultPort(scheme, port) {
		b.WriteString(":")
		b.WriteString(port)
	}

	b.WriteString(")")
	b.WriteString(surtPath(u))

	return b.String(), nil
}

func isDefaultPort(scheme, port string) bool {
	switch scheme {
	case "http":
		return port == "80"
	case "https":
		return port == "443"
	default:
		return false
	}
}

func surtPath(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	decoded, err := url.PathUnescape(path)
	if err == nil {
		path = decoded
	}

	path = strings.ToLower(path)

	query := sortedQuery(u.RawQuery)
	if query != "" {
		path += "?" + query
	}

	return path
}

// sortedQuery re-joins raw (already percent-encoded) query parameters
// sorted by key, preserving each value verbatim.
func sortedQuery(raw string) string {
	if raw == "" {
		return ""
	}

	pairs := strings.Split(raw, "&")
	sort.SliceStable(pairs, func(i, j int) bool {
		return queryKey(pairs[i]) < queryKey(pairs[j])
	})

	return strings.Join(pairs, "&")
}

func queryKey(pair string) string {
	if idx := strings.Index(pair, "="); idx >= 0 {
		return pair[:idx]
	}

	return pair
}
