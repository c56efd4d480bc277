package h1x

import "strings"

// canonicalNames maps well-known header names to their canonical
// spelling, keyed by both the canonical and the all-lowercase form.
// Only this fixed set is table-driven; everything else goes through the
// algorithmic fallback and is never cached, so attacker-controlled
// header names cannot grow memory.
var canonicalNames = map[string]string{
	"Cache-Control":  "Cache-Control",
	"cache-control":  "Cache-Control",
	"Content-Length": "Content-Length",
	"content-length": "Content-Length",
	"Content-Type":   "Content-Type",
	"content-type":   "Content-Type",
	"Date":           "Date",
	"date":           "Date",
	"ETag":           "ETag",
	"etag":           "ETag",
	"Expires":        "Expires",
	"expires":        "Expires",
	"Host":           "Host",
	"host":           "Host",
	"Location":       "Location",
	"location":       "Location",
	"User-Agent":     "User-Agent",
	"user-agent":     "User-Agent",
}

// Canonical returns the canonical spelling of an HTTP header name.
// Well-known names come from a fixed table (so "etag" becomes "ETag",
// not "Etag"); any other name is lowercased and then title-cased at the
// start and after each hyphen ("x-my-header" -> "X-My-Header").
// Canonical is pure and total: it never fails and never allocates
// table entries for unknown names.
func Canonical(name string) string {
	if c, ok := canonicalNames[name]; ok {
		return c
	}
	if c, ok := canonicalNames[strings.ToLower(name)]; ok {
		return c
	}
	b := []byte(strings.ToLower(name))
	upper := true
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			if upper {
				b[i] = c - 'a' + 'A'
			}
			upper = false
			continue
		}
		upper = c == '-'
	}
	return string(b)
}

// Header is an HTTP header map keyed by canonical header name. A key
// holds one or more values; request serialization emits one line per
// value, while response parsing merges duplicates into a single value
// (see merge).
type Header map[string][]string

func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	if vv, ok := h[Canonical(key)]; ok && len(vv) > 0 {
		return vv[0]
	}
	return ""
}

func (h Header) Set(key, value string) {
	if h == nil {
		return
	}
	h[Canonical(key)] = []string{value}
}

func (h Header) Add(key, value string) {
	if h == nil {
		return
	}
	k := Canonical(key)
	h[k] = append(h[k], value)
}

func (h Header) Del(key string) {
	if h == nil {
		return
	}
	delete(h, Canonical(key))
}

// merge folds a possibly repeated header into one value. Set-Cookie
// occurrences join with "; ", every other header with ", ".
func (h Header) merge(key, value string) {
	k := Canonical(key)
	vv := h[k]
	if len(vv) == 0 {
		h[k] = []string{value}
		return
	}
	sep := ", "
	if k == "Set-Cookie" {
		sep = "; "
	}
	vv[len(vv)-1] = vv[len(vv)-1] + sep + value
}

// clone returns a deep copy so the engine never mutates caller input.
func (h Header) clone() Header {
	out := make(Header, len(h))
	for k, vv := range h {
		ck := Canonical(k)
		out[ck] = append(out[ck], vv...)
	}
	return out
}
