package h1x

import (
	"strconv"
	"strings"
)

// parseStatus extracts the 3-digit status code from the fixed position
// it occupies in a "HTTP/1.x NNN Reason" status line. Lines too short
// or non-numeric yield 0; a garbled status line is tolerated, not an
// error.
func parseStatus(line string) int {
	if len(line) < 12 {
		return 0
	}
	code, err := strconv.Atoi(line[9:12])
	if err != nil {
		return 0
	}
	return code
}

// readHeaderBlock reads header lines from t until an empty or
// all-whitespace line. Names are canonicalized; duplicate names merge
// per Header.merge. Lines that do not look like "name: value" with a
// token name are skipped silently. Read failures abort the exchange.
func readHeaderBlock(t Transport) (Header, error) {
	h := Header{}
	for {
		line, err := t.ReceiveLine()
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			return h, nil
		}
		name, value, ok := splitHeaderLine(line)
		if !ok {
			continue
		}
		h.merge(name, value)
	}
}

func splitHeaderLine(line string) (name, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return "", "", false
	}
	name = line[:i]
	for j := 0; j < len(name); j++ {
		c := name[j]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' {
			continue
		}
		return "", "", false
	}
	value = strings.TrimLeft(line[i+1:], " \t")
	return name, value, true
}
