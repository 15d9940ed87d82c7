package mail

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
)

// Encoding defaults applied when a message leaves them unset.
const (
	DefaultCharset     = "utf-8"
	DefaultContentType = "text/plain"
)

// Encode writes the RFC 2045 wire form of the message to w. The MIME tree
// mirrors the message tree: containers become multipart entities whose
// children preserve the assembled part order.
//
// Bcc addresses are intentionally not encoded; transports obtain the full
// destination set from Recipients().
func (m *Message) Encode(w io.Writer) error {
	if m == nil {
		return ErrNilMessage
	}

	root, err := m.encodePart()
	if err != nil {
		return err
	}

	m.writeEnvelopeHeaders(root)

	if err := root.Encode(w); err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return nil
}

// Bytes returns the encoded wire form of the message.
func (m *Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodePart converts the message tree into an enmime part tree.
func (m *Message) encodePart() (*enmime.Part, error) {
	if len(m.Parts) > 0 {
		ct := m.ContentType
		if !strings.HasPrefix(ct, "multipart/") {
			// Content type left to the transport default for implicit
			// containers.
			ct = "multipart/mixed"
		}
		container := enmime.NewPart(ct)
		for _, child := range m.Parts {
			p, err := child.encodePart()
			if err != nil {
				return nil, err
			}
			container.AddChild(p)
		}
		return container, nil
	}

	ct := m.ContentType
	if ct == "" {
		ct = DefaultContentType
	}
	leaf := enmime.NewPart(ct)

	charset := m.Charset
	if charset == "" {
		charset = DefaultCharset
	}
	leaf.Charset = charset

	if m.Disposition != "" {
		leaf.Disposition = m.Disposition
	}
	if m.Filename != "" {
		leaf.FileName = m.Filename
		if leaf.Disposition == "" {
			leaf.Disposition = DispositionAttachment
		}
	}

	if len(m.Content) > 0 {
		leaf.Content = m.Content
	} else {
		leaf.Content = []byte(m.Body)
	}
	return leaf, nil
}

// writeEnvelopeHeaders sets the top-level headers on the encoded root part.
func (m *Message) writeEnvelopeHeaders(root *enmime.Part) {
	if m.From != "" {
		root.Header.Set("From", m.From)
	}
	if len(m.To) > 0 {
		root.Header.Set("To", strings.Join(m.To, ", "))
	}
	if len(m.Cc) > 0 {
		root.Header.Set("Cc", strings.Join(m.Cc, ", "))
	}
	if m.Subject != "" {
		root.Header.Set("Subject", m.Subject)
	}
	if !m.Date.IsZero() {
		root.Header.Set("Date", m.Date.Format(time.RFC1123Z))
	}
	for key, value := range m.Header {
		root.Header.Set(key, value)
	}
}
