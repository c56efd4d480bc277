package h1x

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Transport is the duplex byte stream the engine is layered on. It is
// owned and lifecycle-managed outside the core: the engine writes the
// request, reads the response and signals reuse, nothing more. All
// calls are blocking; timeouts belong to the transport itself.
type Transport interface {
	Connect(host string, port int) error
	Send(p []byte) (int, error)
	// ReceiveLine reads one line and strips the trailing CRLF.
	ReceiveLine() (string, error)
	ReceiveExactly(n int) ([]byte, error)
	// ReceiveAll reads until the stream naturally ends.
	ReceiveAll() ([]byte, error)
	SetTimeout(d time.Duration) error
	// SetKeepalive hands the stream back for reuse with an idle
	// timeout and pool size hint. Pooling is the caller's concern; a
	// plain transport may map this to TCP keepalive.
	SetKeepalive(idle time.Duration, pool int) error
	Close() error
	// ReuseCount reports how many times this stream has been handed
	// back for keep-alive reuse.
	ReuseCount() (int, error)
}

const maxLineBytes = 8 << 10

// NetTransport is a Transport over a TCP or TLS socket. Port 443 dials
// TLS with SNI and ALPN "http/1.1"; every other port dials plain TCP.
type NetTransport struct {
	DialTimeout time.Duration
	// TLSConfig, when set, overrides the default TLS client config for
	// port 443 dials.
	TLSConfig *tls.Config

	conn   net.Conn
	br     *bufio.Reader
	reuses int
}

// NewNetTransport returns a NetTransport with a 5s dial timeout.
func NewNetTransport() *NetTransport {
	return &NetTransport{DialTimeout: 5 * time.Second}
}

func (t *NetTransport) Connect(host string, port int) error {
	if t.conn != nil {
		_ = t.conn.Close()
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	d := net.Dialer{Timeout: t.DialTimeout}
	var (
		c   net.Conn
		err error
	)
	if port == 443 {
		cfg := t.TLSConfig
		if cfg == nil {
			cfg = &tls.Config{}
		}
		if cfg.ServerName == "" {
			cfg = cfg.Clone()
			cfg.ServerName = host
		}
		if len(cfg.NextProtos) == 0 {
			cfg = cfg.Clone()
			cfg.NextProtos = []string{"http/1.1"}
		}
		td := tls.Dialer{NetDialer: &d, Config: cfg}
		c, err = td.Dial("tcp", addr)
	} else {
		c, err = d.Dial("tcp", addr)
	}
	if err != nil {
		return err
	}
	t.conn = c
	t.br = bufio.NewReader(c)
	t.reuses = 0
	return nil
}

func (t *NetTransport) Send(p []byte) (int, error) {
	if t.conn == nil {
		return 0, ErrNotConnected
	}
	// Partial writes are retried until the buffer is on the wire.
	written := 0
	for written < len(p) {
		n, err := t.conn.Write(p[written:])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (t *NetTransport) ReceiveLine() (string, error) {
	if t.br == nil {
		return "", ErrNotConnected
	}
	var sb strings.Builder
	for {
		b, err := t.br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			return sb.String(), nil
		}
		if b != '\r' {
			sb.WriteByte(b)
		}
		if sb.Len() > maxLineBytes {
			return "", io.ErrShortBuffer
		}
	}
}

func (t *NetTransport) ReceiveExactly(n int) ([]byte, error) {
	if t.br == nil {
		return nil, ErrNotConnected
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(t.br, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (t *NetTransport) ReceiveAll() ([]byte, error) {
	if t.br == nil {
		return nil, ErrNotConnected
	}
	return io.ReadAll(t.br)
}

func (t *NetTransport) SetTimeout(d time.Duration) error {
	if t.conn == nil {
		return ErrNotConnected
	}
	if d <= 0 {
		return t.conn.SetDeadline(time.Time{})
	}
	return t.conn.SetDeadline(time.Now().Add(d))
}

func (t *NetTransport) SetKeepalive(idle time.Duration, pool int) error {
	if t.conn == nil {
		return ErrNotConnected
	}
	if tc, ok := t.conn.(*net.TCPConn); ok {
		if err := tc.SetKeepAlive(true); err != nil {
			return err
		}
		if idle > 0 {
			if err := tc.SetKeepAlivePeriod(idle); err != nil {
				return err
			}
		}
	}
	t.reuses++
	return nil
}

func (t *NetTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.br = nil
	return err
}

func (t *NetTransport) ReuseCount() (int, error) {
	if t.conn == nil {
		return 0, ErrNotConnected
	}
	return t.reuses, nil
}
