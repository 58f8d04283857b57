package rtmpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"
)

// Transport is the bidirectional byte stream a Connection drives the RTMP
// protocol over. Any net.Conn satisfies it; tests substitute net.Pipe or an
// in-memory implementation.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
}

// Dialer opens a Transport to an RTMP URL's host:port. The default dials a
// plain TCP connection; it exists as a seam so tests and callers wanting
// TLS or a proxy can substitute their own.
type Dialer func(ctx context.Context, u *url.URL) (Transport, error)

// DialTCP is the default Dialer, using net.Dialer against the URL's host,
// defaulting to port 1935 when absent.
func DialTCP(ctx context.Context, u *url.URL) (Transport, error) {
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "1935")
	}
	d := net.Dialer{Timeout: 10 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return nil, fmt.Errorf("rtmpclient: dial %s: %w", host, err)
	}
	return conn, nil
}
