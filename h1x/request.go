package h1x

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// DefaultUserAgent is sent when the caller supplies no User-Agent.
const DefaultUserAgent = "h1x/1.0"

// RequestSpec describes one HTTP/1.1 request. The zero value is a
// valid GET for "/". Malformed fields degrade to documented defaults
// rather than failing; building wire bytes never errors.
type RequestSpec struct {
	// Method defaults to "GET" and is always rendered uppercase.
	Method string
	// Path defaults to "/"; a missing leading slash is prepended. No
	// other normalization is applied.
	Path string
	// RawQuery, when non-empty, is appended verbatim after "?".
	RawQuery string
	// Query is URL-encoded into k=v&k=v form when RawQuery is empty.
	Query map[string]string
	// Header holds caller headers; they are canonicalized and never
	// overwritten by defaults, except Content-Length which is always
	// forced to the exact body length when a body is present.
	Header Header
	// Body, if non-nil, is sent after the header block as a separate
	// write.
	Body []byte
}

// BuildRequest serializes spec into the request line and header block,
// terminated by the blank CRLF line. Body bytes are not included; the
// caller transmits them as a subsequent write.
func BuildRequest(cfg Config, spec RequestSpec) []byte {
	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = "GET"
	}
	path := spec.Path
	if path == "" {
		path = "/"
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if q := spec.queryString(); q != "" {
		path += "?" + q
	}

	hdr := spec.Header.clone()
	if spec.Body != nil {
		// Content-Length must always be correct; caller values lose.
		hdr.Set("Content-Length", fmt.Sprintf("%d", len(spec.Body)))
	}
	if hdr.Get("Host") == "" {
		hdr.Set("Host", cfg.Host)
	}
	if hdr.Get("User-Agent") == "" {
		hdr.Set("User-Agent", DefaultUserAgent)
	}
	if hdr.Get("Accept") == "" {
		hdr.Set("Accept", "*/*")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", method, path)
	names := make([]string, 0, len(hdr))
	for k := range hdr {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		for _, v := range hdr[k] {
			fmt.Fprintf(&b, "%s: %s\r\n", k, v)
		}
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

func (s RequestSpec) queryString() string {
	if s.RawQuery != "" {
		return s.RawQuery
	}
	if len(s.Query) == 0 {
		return ""
	}
	vals := make(url.Values, len(s.Query))
	for k, v := range s.Query {
		vals.Set(k, v)
	}
	return vals.Encode()
}
