package remote

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const defaultDialTimeout = 15 * time.Second

// Config configures an SFTP connection.
type Config struct {
	// Target is user@host.
	Target string
	Port   int
	// BatchMode disables every interactive prompt.
	BatchMode bool
	// Timeout bounds the TCP dial and SSH handshake.
	Timeout time.Duration
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultDialTimeout
}

// transport opens the TCP connection and runs the SSH handshake on it.
type transport struct {
	dial      func(ctx context.Context, network, address string) (net.Conn, error)
	handshake func(conn net.Conn, addr string, config *ssh.ClientConfig) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error)
}

var sshTransport = transport{
	dial:      new(net.Dialer).DialContext,
	handshake: ssh.NewClientConn,
}

// session is an SFTP client together with the SSH connection carrying it.
type session struct {
	conn *ssh.Client
	*sftp.Client
}

// Close shuts the SFTP subsystem down before the connection under it and
// reports the first failure.
func (s *session) Close() error {
	err := s.Client.Close()
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func openSession(ctx context.Context, cfg Config) (*session, error) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, errors.Errorf("ssh port %d out of range 1-65535", cfg.Port)
	}
	user, host, err := parseSSHTarget(cfg.Target)
	if err != nil {
		return nil, err
	}

	verify, err := hostKeyCallback(host, cfg.Port, cfg.BatchMode)
	if err != nil {
		return nil, err
	}
	methods, err := buildAuthMethods(user, host, cfg.BatchMode)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	conn, err := sshTransport.connect(ctx, net.JoinHostPort(host, strconv.Itoa(cfg.Port)), &ssh.ClientConfig{
		User:            user,
		Auth:            methods,
		HostKeyCallback: verify,
		Timeout:         cfg.timeout(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to connect to %s", cfg.Target)
	}

	c, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "unable to start sftp subsystem")
	}
	return &session{conn: conn, Client: c}, nil
}

// connect dials addr and performs the handshake. Cancelling ctx aborts
// either step.
func (t transport) connect(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	raw, err := t.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() { raw.Close() })
	c, chans, reqs, err := t.handshake(raw, addr, config)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		raw.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}
