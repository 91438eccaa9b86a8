package ident

import (
	"net/url"
	"sort"
	"strings"
)

var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"mc_cid": true,
	"mc_eid": true,
	"igshid": true,
	"ref":    true,
	"_ga":    true,
	"amp":    true,
}

// Canonicalize returns the stable identity of an article URL. Applying it
// twice yields the same string. Input that does not parse as an absolute URL
// comes back trimmed.
func Canonicalize(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = canonicalHost(u.Scheme, u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = canonicalQuery(u.RawQuery)
	u.ForceQuery = false

	path := u.Path
	for {
		trimmed := strings.TrimSuffix(strings.TrimSuffix(path, "/"), "/amp")
		if trimmed == path {
			break
		}
		path = trimmed
	}
	if path == "" {
		path = "/"
	}
	if path != u.Path {
		u.Path = path
		u.RawPath = ""
	}

	return u.String()
}

func canonicalHost(scheme, host string) string {
	host = strings.ToLower(host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		return strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		return strings.TrimSuffix(host, ":443")
	}
	return host
}

type queryPair struct {
	key   string
	value string
}

func canonicalQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	var pairs []queryPair
	for _, part := range strings.FieldsFunc(rawQuery, func(r rune) bool { return r == '&' }) {
		key, value, _ := strings.Cut(part, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		if k == "" || isTracking(k) {
			continue
		}
		pairs = append(pairs, queryPair{key: k, value: v})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, url.QueryEscape(p.key)+"="+url.QueryEscape(p.value))
	}
	return strings.Join(parts, "&")
}

func isTracking(key string) bool {
	k := strings.ToLower(key)
	return strings.HasPrefix(k, "utm_") || trackingParams[k]
}

// Resolve turns an href found on pageURL into an absolute http(s) URL.
// Protocol-relative links get https. Non-web schemes resolve to "".
func Resolve(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if !ref.IsAbs() {
		base, err := url.Parse(pageURL)
		if err != nil {
			return ""
		}
		ref = base.ResolveReference(ref)
	}

	switch strings.ToLower(ref.Scheme) {
	case "http", "https":
		return ref.String()
	default:
		return ""
	}
}
