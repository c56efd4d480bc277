package h1x

// Response is a fully read HTTP/1.1 response. It is constructed within
// one exchange and never reused across exchanges.
type Response struct {
	// Status is the numeric status code, or 0 when the status line was
	// too malformed to carry one.
	Status int
	// Header holds the merged header block. Repeated Set-Cookie values
	// are joined with "; ", any other repeated header with ", ".
	Header Header
	// Body is the decoded body, already de-framed.
	Body []byte
}
