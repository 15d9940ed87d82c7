package mail

import (
	"context"
	"net"
	"strconv"
)

// AuthMode selects the authentication mechanism used by session-based
// transports.
type AuthMode string

// Supported authentication modes.
const (
	AuthNone    AuthMode = "none"
	AuthPlain   AuthMode = "plain"
	AuthLogin   AuthMode = "login"
	AuthCRAMMD5 AuthMode = "cram-md5"
)

// ParseAuthMode converts a string into an AuthMode. An empty string maps to
// AuthNone. Unrecognized values return ErrUnknownAuthMode.
func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(s) {
	case "", AuthNone:
		return AuthNone, nil
	case AuthPlain:
		return AuthPlain, nil
	case AuthLogin:
		return AuthLogin, nil
	case AuthCRAMMD5:
		return AuthCRAMMD5, nil
	default:
		return "", ErrUnknownAuthMode
	}
}

// Settings holds server settings for session-based transports. It is set
// once at configuration time and read-only thereafter.
type Settings struct {
	// Address is the server host name or IP.
	Address string

	// Port is the server port.
	Port int

	// Domain is presented as the local identity (HELO) when opening a
	// session.
	Domain string

	// Username and Password are the credentials used when Auth is not
	// AuthNone.
	Username string
	Password string

	// Auth selects the authentication mechanism.
	Auth AuthMode
}

// Addr returns the dialable "host:port" form of the settings.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}

// Transport is a pluggable delivery backend. Implementations submit a built
// message to their destination and return an error on failure; they never
// retry on their own.
//
// Deliver may block on network or process I/O. It must acquire any
// connection or process handle immediately before submission and release it
// on every exit path, including failure.
type Transport interface {
	// Name returns the transport identifier used for dispatcher selection,
	// e.g. "smtp", "sendmail", "test-capture".
	Name() string

	// Deliver submits the message.
	Deliver(ctx context.Context, msg *Message) error
}
