package h1x

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultReadChunk bounds each ReceiveExactly call while draining a
// Content-Length body, so a large response never demands one huge read.
const DefaultReadChunk = 1 << 20

// decodeBody reads the response body from t according to the framing
// the header block declares. Strategy order:
//
//  1. Content-Length parses: read exactly that many bytes, readChunk
//     bytes at a time.
//  2. Transfer-Encoding equals "chunked" (case-insensitive): decode
//     length-prefixed chunks until a size below 1 (or an unparsable
//     size line, kept permissive on purpose), then consume the
//     terminating CRLF line.
//  3. Otherwise: a single terminal read to EOF. A body with no declared
//     length is only delimited by connection closure, so the resolved
//     Connection header is forced to "close" no matter what the server
//     declared.
//
// Read failures surface unchanged except short reads against a declared
// length, which wrap ErrTruncatedBody.
func decodeBody(t Transport, h Header, readChunk int) ([]byte, error) {
	if readChunk <= 0 {
		readChunk = DefaultReadChunk
	}
	if cl := h.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64); err == nil {
			return readExactBody(t, n, readChunk)
		}
	}
	if strings.EqualFold(strings.TrimSpace(h.Get("Transfer-Encoding")), "chunked") {
		return readChunkedBody(t)
	}
	body, err := t.ReceiveAll()
	if err != nil {
		return nil, err
	}
	h.Set("Connection", "close")
	return body, nil
}

func readExactBody(t Transport, length int64, readChunk int) ([]byte, error) {
	body := make([]byte, 0, min64(length, int64(readChunk)))
	for remain := length; remain > 0; {
		n := min64(remain, int64(readChunk))
		seg, err := t.ReceiveExactly(int(n))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedBody, err)
		}
		body = append(body, seg...)
		remain -= int64(len(seg))
	}
	return body, nil
}

func readChunkedBody(t Transport) ([]byte, error) {
	var body []byte
	for {
		line, err := t.ReceiveLine()
		if err != nil {
			return nil, err
		}
		size, perr := strconv.ParseInt(strings.TrimSpace(line), 16, 64)
		if perr != nil || size < 1 {
			break
		}
		// Chunk data plus its trailing CRLF in one read.
		seg, err := t.ReceiveExactly(int(size) + 2)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedBody, err)
		}
		body = append(body, seg[:size]...)
	}
	// Terminating CRLF line after the last chunk.
	if _, err := t.ReceiveLine(); err != nil {
		return nil, err
	}
	return body, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
