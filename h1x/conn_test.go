package h1x

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTransport feeds a canned byte script to the engine and records
// what the engine does to the stream.
type fakeTransport struct {
	script *strings.Reader
	sent   bytes.Buffer

	host       string
	port       int
	closed     int
	keepalives int
	timeout    time.Duration
}

func newFakeTransport(script string) *fakeTransport {
	return &fakeTransport{script: strings.NewReader(script)}
}

func (f *fakeTransport) Connect(host string, port int) error {
	f.host, f.port = host, port
	return nil
}

func (f *fakeTransport) Send(p []byte) (int, error) { return f.sent.Write(p) }

func (f *fakeTransport) ReceiveLine() (string, error) {
	var sb strings.Builder
	for {
		b, err := f.script.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			return sb.String(), nil
		}
		if b != '\r' {
			sb.WriteByte(b)
		}
	}
}

func (f *fakeTransport) ReceiveExactly(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(f.script, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (f *fakeTransport) ReceiveAll() ([]byte, error) { return io.ReadAll(f.script) }

func (f *fakeTransport) SetTimeout(d time.Duration) error { f.timeout = d; return nil }

func (f *fakeTransport) SetKeepalive(idle time.Duration, pool int) error {
	f.keepalives++
	return nil
}

func (f *fakeTransport) Close() error { f.closed++; return nil }

func (f *fakeTransport) ReuseCount() (int, error) { return f.keepalives, nil }

func connectedConn(t *testing.T, script string) (*Conn, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport(script)
	c := &Conn{Transport: ft}
	require.NoError(t, c.Connect("example.com", 0, nil))
	return c, ft
}

func TestConn_ConnectDefaults(t *testing.T) {
	c, ft := connectedConn(t, "")
	require.Equal(t, 80, ft.port)
	require.Equal(t, Config{Host: "example.com", Port: 80, Scheme: "http"}, c.Config())

	c2 := &Conn{Transport: newFakeTransport("")}
	require.NoError(t, c2.Connect("example.com", 443, nil))
	require.Equal(t, "https", c2.Config().Scheme)
}

func TestConn_ConnectAppliesTimeout(t *testing.T) {
	ft := newFakeTransport("")
	c := &Conn{Transport: ft}
	require.NoError(t, c.Connect("example.com", 8080, &ConnConfig{Timeout: 3 * time.Second}))
	require.Equal(t, 3*time.Second, ft.timeout)
}

func TestConn_NotInitialized(t *testing.T) {
	var c Conn
	_, err := c.Request(RequestSpec{})
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, c.SetTimeout(time.Second), ErrNotInitialized)
	require.ErrorIs(t, c.SetKeepalive(0, 0), ErrNotInitialized)
	_, err = c.ReuseCount()
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, c.Close(), ErrNotInitialized)
}

func TestConn_RequestBeforeConnect(t *testing.T) {
	c := &Conn{Transport: newFakeTransport("")}
	_, err := c.Request(RequestSpec{})
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestConn_KeepAliveExchange(t *testing.T) {
	c, ft := connectedConn(t,
		"HTTP/1.1 200 OK\r\nContent-Length: 2\r\nConnection: keep-alive\r\n\r\nok")

	res, err := c.Request(RequestSpec{Path: "/ping", Body: []byte("hi")})
	require.NoError(t, err)
	require.Equal(t, 200, res.Status)
	require.Equal(t, "ok", string(res.Body))

	// The stream stays open and the reuse signal was sent.
	require.Zero(t, ft.closed)
	require.Equal(t, 1, ft.keepalives)
	n, err := c.ReuseCount()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Request bytes: header block first, then the body as its own write.
	sent := ft.sent.String()
	require.True(t, strings.HasPrefix(sent, "POST /ping HTTP/1.1\r\n") ||
		strings.HasPrefix(sent, "GET /ping HTTP/1.1\r\n"))
	require.True(t, strings.HasSuffix(sent, "\r\n\r\nhi"))
}

func TestConn_CloseExchange(t *testing.T) {
	c, ft := connectedConn(t,
		"HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: close\r\n\r\n")

	_, err := c.Request(RequestSpec{})
	require.NoError(t, err)
	require.Equal(t, 1, ft.closed)
	require.Zero(t, ft.keepalives)

	_, err = c.Request(RequestSpec{})
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestConn_CloseDelimitedForcesClose(t *testing.T) {
	// Server claims keep-alive but declares no framing: the decoder
	// forces Connection: close and the stream must not be reused.
	c, ft := connectedConn(t,
		"HTTP/1.1 200 OK\r\nConnection: keep-alive\r\n\r\nunframed body")

	res, err := c.Request(RequestSpec{})
	require.NoError(t, err)
	require.Equal(t, "unframed body", string(res.Body))
	require.Equal(t, "close", res.Header.Get("Connection"))
	require.Equal(t, 1, ft.closed)
	require.Zero(t, ft.keepalives)
}

func TestConn_ConsecutiveKeepAliveIncrementsReuse(t *testing.T) {
	c, ft := connectedConn(t,
		"HTTP/1.1 200 OK\r\nContent-Length: 1\r\n\r\na"+
			"HTTP/1.1 200 OK\r\nContent-Length: 1\r\n\r\nb")

	res, err := c.Request(RequestSpec{})
	require.NoError(t, err)
	require.Equal(t, "a", string(res.Body))

	res, err = c.Request(RequestSpec{})
	require.NoError(t, err)
	require.Equal(t, "b", string(res.Body))

	require.Zero(t, ft.closed)
	n, err := c.ReuseCount()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestConn_CloseReleasesTransport(t *testing.T) {
	c, ft := connectedConn(t, "")
	require.NoError(t, c.Close())
	require.Equal(t, Config{}, c.Config())
	require.Equal(t, 1, ft.closed)

	// The transport is released, not just closed.
	require.ErrorIs(t, c.SetTimeout(time.Second), ErrNotInitialized)
	_, err := c.ReuseCount()
	require.ErrorIs(t, err, ErrNotInitialized)
}
