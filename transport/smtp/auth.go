package smtp

import (
	"errors"
	"fmt"
	"net/smtp"

	"github.com/rbaliyan/courier/mail"
)

// auth builds an smtp.Auth from the configured mode, or nil when the
// endpoint needs no authentication.
func auth(s mail.Settings) (smtp.Auth, error) {
	switch s.Auth {
	case mail.AuthNone, "":
		return nil, nil
	case mail.AuthPlain:
		return smtp.PlainAuth("", s.Username, s.Password, s.Address), nil
	case mail.AuthCRAMMD5:
		return smtp.CRAMMD5Auth(s.Username, s.Password), nil
	case mail.AuthLogin:
		return &loginAuth{username: s.Username, password: s.Password}, nil
	default:
		return nil, fmt.Errorf("smtp: mode %q: %w", s.Auth, mail.ErrUnknownAuthMode)
	}
}

// loginAuth implements the LOGIN mechanism, which net/smtp does not
// ship. The server prompts for username and password in turn.
type loginAuth struct {
	username string
	password string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, errors.New("smtp: LOGIN auth requires TLS")
	}
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch string(fromServer) {
	case "Username:":
		return []byte(a.username), nil
	case "Password:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("smtp: unexpected server challenge %q", fromServer)
	}
}
