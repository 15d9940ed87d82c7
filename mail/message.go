// Package mail defines the message data model shared by the courier
// composition engine and its delivery transports.
//
// A Message is the final transport-ready tree: either a leaf carrying a
// single body, or a multipart container holding an ordered sequence of
// child Messages. A Part is the pre-build unit the composition engine
// assembles; parts are folded into a Message by the builder in the root
// courier package.
package mail

import (
	"strings"
	"time"
)

// Content dispositions for message parts.
const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// Part is one piece of a message prior to building.
//
// A part carries either a textual Body, binary Content (attachments), or a
// previously built nested Message which is used as-is. ContentType is
// required for all parts except the implicit leading body part, which is
// left untyped so the transport default applies.
type Part struct {
	// ContentType is the MIME type of this part, e.g. "text/html".
	ContentType string

	// Disposition is the content disposition. Implicitly discovered parts
	// default to "inline".
	Disposition string

	// Charset is the character set of the body.
	Charset string

	// TransferEncoding overrides the content transfer encoding.
	TransferEncoding string

	// Body is the textual content of the part.
	Body string

	// Filename names the part when it is an attachment.
	Filename string

	// Content is binary attachment content. When set it takes precedence
	// over Body.
	Content []byte

	// Message is a previously built nested message. When set, the part is
	// used as-is and all other fields are ignored.
	Message *Message
}

// Message is the final transport-ready message tree.
//
// A leaf message carries a ContentType, Charset and Body (or binary
// Content) and no children. A container message has a ContentType starting
// with "multipart/" and an ordered list of child messages in Parts; it
// never carries a body of its own. Envelope headers (From, To, Subject,
// Date, Header) are only meaningful on the root of the tree.
type Message struct {
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Date    time.Time

	// Header holds additional top-level headers by name.
	Header map[string]string

	ContentType      string
	Charset          string
	Disposition      string
	TransferEncoding string

	// Body is the textual content of a leaf message.
	Body string

	// Filename and Content describe a binary attachment leaf.
	Filename string
	Content  []byte

	// Parts are the ordered children of a container message. The order is
	// produced by the part assembler and must be preserved by transports.
	Parts []*Message
}

// IsMultipart reports whether the message is a multipart container.
func (m *Message) IsMultipart() bool {
	return len(m.Parts) > 0 || strings.HasPrefix(m.ContentType, "multipart/")
}

// Recipients returns all destination addresses (To, Cc and Bcc) in order.
func (m *Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	out = append(out, m.Bcc...)
	return out
}

// SetHeader sets a top-level header, initializing the header map if needed.
func (m *Message) SetHeader(key, value string) {
	if m.Header == nil {
		m.Header = make(map[string]string)
	}
	m.Header[key] = value
}

// GetHeader returns the named top-level header, or "" if unset.
func (m *Message) GetHeader(key string) string {
	return m.Header[key]
}

// PartByType returns the first leaf in the tree whose content type matches
// contentType (case-insensitive), searching depth-first. The receiver
// itself is considered when it is a leaf. Returns nil if no leaf matches.
func (m *Message) PartByType(contentType string) *Message {
	if m == nil {
		return nil
	}
	if len(m.Parts) == 0 {
		if strings.EqualFold(m.ContentType, contentType) {
			return m
		}
		return nil
	}
	for _, p := range m.Parts {
		if found := p.PartByType(contentType); found != nil {
			return found
		}
	}
	return nil
}
