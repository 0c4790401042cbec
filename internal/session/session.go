// Package session manages the lifetime of one authenticated FTP connection.
// Each top-level operation (upload, deploy, backup, remove) runs inside its
// own session; connections are never shared or reused across operations.
package session

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/jlaffaye/ftp"
	log "github.com/sirupsen/logrus"
)

const dialTimeout = 60 * time.Second

// Params are the connection parameters for one session. TLS is nil for
// plain FTP; setting it switches the dial to implicit FTPS.
type Params struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      *tls.Config
}

// Addr returns the host:port dial address.
func (p Params) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Remote is the set of server primitives the operations are built on.
// *ftp.ServerConn provides all of them; Retr is narrowed to io.ReadCloser
// so operations can run against a fake in tests.
type Remote interface {
	MakeDir(path string) error
	Rename(from, to string) error
	RemoveDirRecur(path string) error
	List(path string) ([]*ftp.Entry, error)
	Stor(path string, r io.Reader) error
	Retr(path string) (io.ReadCloser, error)
}

// conn adapts *ftp.ServerConn to the Remote interface.
type conn struct {
	*ftp.ServerConn
}

func (c conn) Retr(path string) (io.ReadCloser, error) {
	return c.ServerConn.Retr(path)
}

// With connects and logs in with the given parameters, runs fn against the
// session, and closes the connection on every exit path. The error from fn
// is returned as-is; a failed Quit is logged but never masks it.
func With(p Params, fn func(Remote) error) error {
	addr := p.Addr()
	opts := []ftp.DialOption{ftp.DialWithTimeout(dialTimeout)}
	if p.TLS != nil {
		opts = append(opts, ftp.DialWithTLS(p.TLS))
	}

	log.WithField("addr", addr).Debug("Connecting to FTP server")
	client, err := ftp.Dial(addr, opts...)
	if err != nil {
		return fmt.Errorf("connecting to FTP server %s: %w", addr, err)
	}
	defer func() {
		if err := client.Quit(); err != nil {
			log.WithError(err).Warn("Error closing FTP connection")
		}
	}()

	if err := client.Login(p.Username, p.Password); err != nil {
		return fmt.Errorf("authentication failed for user %s: %w", p.Username, err)
	}
	log.WithField("user", p.Username).Debug("Logged in")

	if err := client.Type(ftp.TransferTypeBinary); err != nil {
		log.WithError(err).Warn("Failed to set binary mode")
	}

	return fn(conn{client})
}
