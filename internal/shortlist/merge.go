package shortlist

import (
	"net/url"
	"strings"

	"github.com/sells-group/staff-finder/internal/model"
)

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// NormalizeURL reduces a URL to lower-cased scheme and host plus path, with
// the query, fragment, any trailing slash and a port matching the scheme's
// default removed. Two URLs with the same
// normal form are treated as the same page. Unparseable input is returned
// trimmed and lower-cased.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if port := u.Port(); defaultPorts[scheme] == port {
		host = strings.TrimSuffix(host, ":"+port)
	}
	path := strings.TrimRight(u.EscapedPath(), "/")
	return scheme + "://" + host + path
}

// Merge combines hits from several queries. The first occurrence of each
// normalized URL wins and keeps the lowest position seen for it.
func Merge(perQuery ...[]model.SearchHit) []model.SearchHit {
	var out []model.SearchHit
	index := make(map[string]int)
	for _, hits := range perQuery {
		for _, h := range hits {
			key := NormalizeURL(h.URL)
			if key == "" {
				continue
			}
			if i, ok := index[key]; ok {
				if h.Position > 0 && h.Position < out[i].Position {
					out[i].Position = h.Position
				}
				continue
			}
			index[key] = len(out)
			out = append(out, h)
		}
	}
	return out
}
