package h1x

import (
	"strings"
	"time"

	"ekzo.dev/go/h1x/internal/obs"
)

// Config is the per-connection target, fixed at Connect time. Scheme is
// derived from the port and exists for callers composing URLs; it does
// not alter framing.
type Config struct {
	Host   string
	Port   int
	Scheme string
}

// ConnConfig carries optional settings applied when connecting. All
// fields are pass-throughs to the transport.
type ConnConfig struct {
	// Timeout, when positive, is set on the transport right after the
	// stream comes up.
	Timeout time.Duration
	// KeepaliveIdle and KeepalivePool are the hints handed to the
	// transport when an exchange leaves the stream reusable.
	KeepaliveIdle time.Duration
	KeepalivePool int
}

// Conn drives one HTTP/1.1 connection: exactly one request/response
// exchange at a time, no pipelining, no internal locking. A Conn must
// not be shared across concurrent exchanges; callers wanting
// parallelism hold one Conn per stream.
type Conn struct {
	// Transport is the stream the exchange runs on. New binds a
	// NetTransport; a nil Transport reports ErrNotInitialized.
	Transport Transport
	// ReadChunk bounds single reads while draining Content-Length
	// bodies. Zero means DefaultReadChunk.
	ReadChunk int

	Logger obs.Logger
	Meter  obs.Meter

	cfg       Config
	connected bool
	keepIdle  time.Duration
	keepPool  int
}

// New returns an unconnected Conn backed by a NetTransport.
func New() *Conn {
	return &Conn{Transport: NewNetTransport()}
}

// Connect fixes the connection config and asks the transport to bring
// the stream up. Port defaults to 80; scheme is "https" iff the port is
// 443. cfg may be nil.
func (c *Conn) Connect(host string, port int, cfg *ConnConfig) error {
	if c.Transport == nil {
		return ErrNotInitialized
	}
	if port == 0 {
		port = 80
	}
	scheme := "http"
	if port == 443 {
		scheme = "https"
	}
	if err := c.Transport.Connect(host, port); err != nil {
		c.logf(obs.Warn, "connect %s:%d failed: %v", host, port, err)
		c.counter("h1x_client_connect_error_total", 1)
		return err
	}
	c.cfg = Config{Host: host, Port: port, Scheme: scheme}
	c.connected = true
	if cfg != nil {
		c.keepIdle = cfg.KeepaliveIdle
		c.keepPool = cfg.KeepalivePool
		if cfg.Timeout > 0 {
			if err := c.Transport.SetTimeout(cfg.Timeout); err != nil {
				return err
			}
		}
	}
	c.logf(obs.Debug, "connected to %s://%s:%d", scheme, host, port)
	return nil
}

// Config returns the target fixed at Connect time. The zero Config
// means the Conn never connected.
func (c *Conn) Config() Config { return c.cfg }

// Request performs one full exchange: serialize and send the request,
// read status line and headers, decode the body, then close or keep the
// stream per the resolved Connection header. The first failure aborts
// the exchange; retrying is the caller's policy.
func (c *Conn) Request(spec RequestSpec) (*Response, error) {
	if c.Transport == nil {
		return nil, ErrNotInitialized
	}
	if !c.connected {
		return nil, ErrNotConnected
	}
	start := time.Now()

	head := BuildRequest(c.cfg, spec)
	if _, err := c.Transport.Send(head); err != nil {
		c.logf(obs.Warn, "write request failed: %v", err)
		c.counter("h1x_client_requests_error_total", 1, obs.Label{Key: "stage", Value: "write"})
		return nil, err
	}
	if spec.Body != nil {
		if _, err := c.Transport.Send(spec.Body); err != nil {
			c.logf(obs.Warn, "write body failed: %v", err)
			c.counter("h1x_client_requests_error_total", 1, obs.Label{Key: "stage", Value: "write"})
			return nil, err
		}
	}
	c.counter("h1x_client_requests_total", 1)

	statusLine, err := c.Transport.ReceiveLine()
	if err != nil {
		c.logf(obs.Warn, "read status line failed: %v", err)
		c.counter("h1x_client_requests_error_total", 1, obs.Label{Key: "stage", Value: "read_status"})
		return nil, err
	}
	status := parseStatus(statusLine)

	hdr, err := readHeaderBlock(c.Transport)
	if err != nil {
		c.logf(obs.Warn, "read headers failed: %v", err)
		c.counter("h1x_client_requests_error_total", 1, obs.Label{Key: "stage", Value: "read_headers"})
		return nil, err
	}

	body, err := decodeBody(c.Transport, hdr, c.ReadChunk)
	if err != nil {
		c.logf(obs.Warn, "read body failed: %v", err)
		c.counter("h1x_client_requests_error_total", 1, obs.Label{Key: "stage", Value: "read_body"})
		return nil, err
	}

	// Connection lifecycle: "close" ends the stream, anything else
	// signals the external pool that reuse is allowed. decodeBody has
	// already forced "close" for close-delimited bodies.
	if strings.EqualFold(hdr.Get("Connection"), "close") {
		_ = c.Transport.Close()
		c.connected = false
		c.counter("h1x_client_conn_close_total", 1)
	} else {
		if err := c.Transport.SetKeepalive(c.keepIdle, c.keepPool); err != nil {
			c.logf(obs.Debug, "keepalive signal failed: %v", err)
		}
		c.counter("h1x_client_conn_reuse_total", 1)
	}

	c.counter("h1x_client_responses_total", 1, obs.Label{Key: "status", Value: statusLabel(status)})
	c.histogram("h1x_client_roundtrip_duration_ms", float64(time.Since(start).Milliseconds()))
	return &Response{Status: status, Header: hdr, Body: body}, nil
}

// SetTimeout delegates to the transport.
func (c *Conn) SetTimeout(d time.Duration) error {
	if c.Transport == nil {
		return ErrNotInitialized
	}
	return c.Transport.SetTimeout(d)
}

// SetKeepalive delegates to the transport.
func (c *Conn) SetKeepalive(idle time.Duration, pool int) error {
	if c.Transport == nil {
		return ErrNotInitialized
	}
	return c.Transport.SetKeepalive(idle, pool)
}

// ReuseCount delegates to the transport.
func (c *Conn) ReuseCount() (int, error) {
	if c.Transport == nil {
		return 0, ErrNotInitialized
	}
	return c.Transport.ReuseCount()
}

// Close releases the transport and clears the connection config. The
// Conn is spent afterwards; later delegating calls report
// ErrNotInitialized.
func (c *Conn) Close() error {
	if c.Transport == nil {
		return ErrNotInitialized
	}
	err := c.Transport.Close()
	c.Transport = nil
	c.cfg = Config{}
	c.connected = false
	return err
}

func statusLabel(code int) string {
	if code == 0 {
		return "unknown"
	}
	buf := [3]byte{'0' + byte(code/100%10), '0' + byte(code/10%10), '0' + byte(code%10)}
	return string(buf[:])
}

func (c *Conn) logf(level obs.Level, format string, args ...interface{}) {
	lg := c.Logger
	if lg == nil {
		lg = obs.NopLogger{}
	}
	lg.Logf(level, format, args...)
}

func (c *Conn) counter(name string, v float64, labels ...obs.Label) {
	m := c.Meter
	if m == nil {
		m = obs.NopMeter{}
	}
	m.Counter(name, v, labels...)
}

func (c *Conn) histogram(name string, v float64, labels ...obs.Label) {
	m := c.Meter
	if m == nil {
		m = obs.NopMeter{}
	}
	m.Histogram(name, v, labels...)
}
