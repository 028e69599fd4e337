package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"PriceSentinel/internal/model"
)

// Timeouts bounds each phase of a price API call. The API may be cold-starting,
// so the defaults are generous.
type Timeouts struct {
	Connect time.Duration
	Read    time.Duration
	Write   time.Duration
}

// DefaultTimeouts returns connect 60s, read 120s, write 60s.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Connect: 60 * time.Second,
		Read:    120 * time.Second,
		Write:   60 * time.Second,
	}
}

// deadlineConn arms a fresh deadline before every read and write, so the read
// and write timeouts bound each I/O operation rather than the whole exchange.
type deadlineConn struct {
	net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.readTimeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(b)
}

// Write also re-arms the read deadline once the request bytes are out. The
// transport parks a Read on idle pooled connections, and that Read's deadline
// would otherwise count from when the connection went idle.
func (c *deadlineConn) Write(b []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, err
		}
	}
	n, err := c.Conn.Write(b)
	if err == nil && c.readTimeout > 0 {
		err = c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	return n, err
}

// NewTransport builds an HTTP transport honoring the timeouts and an optional proxy.
func NewTransport(t Timeouts, proxyURL string) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   t.Connect,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &deadlineConn{Conn: conn, readTimeout: t.Read, writeTimeout: t.Write}, nil
		},
		TLSHandshakeTimeout:   t.Connect,
		ResponseHeaderTimeout: t.Read,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   4,
	}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return transport
}

// classify maps a transport-level failure onto the error kinds. Only DNS
// failures are host resolution errors; timeouts, refusals and everything else
// are network errors.
func classify(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %w", model.ErrHostResolution, err)
	}
	return fmt.Errorf("%w: %w", model.ErrNetwork, err)
}
