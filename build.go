package courier

import (
	"strings"

	"github.com/rbaliyan/courier/mail"
)

// buildMessage turns accumulated attributes into a transport-ready
// message tree. The function is deterministic: it reads only the
// attributes and never mutates them, so building twice yields equal
// trees.
//
// With no parts the result is a leaf carrying the body. With parts the
// result is a container; an explicitly set body is prepended as an
// untyped leading part so the transport default content type applies.
// The container content type is taken from the attributes only when it
// is a multipart type, otherwise the encoder derives one.
func buildMessage(a *MessageAttributes) *mail.Message {
	msg := &mail.Message{
		From:    a.from,
		To:      append([]string(nil), a.to...),
		Cc:      append([]string(nil), a.cc...),
		Bcc:     append([]string(nil), a.bcc...),
		Subject: a.subject,
		Date:    a.sentOn,
	}
	for k, v := range a.headers {
		msg.SetHeader(k, v)
	}

	parts := make([]*mail.Part, 0, len(a.parts)+len(a.attachments)+1)
	if a.bodySet && len(a.parts)+len(a.attachments) > 0 {
		parts = append(parts, &mail.Part{
			Charset: a.charset,
			Body:    a.body,
		})
	}
	parts = append(parts, a.parts...)
	parts = append(parts, a.attachments...)

	if len(parts) == 0 {
		msg.ContentType = a.contentType
		msg.Charset = a.charset
		msg.Body = a.body
		return msg
	}

	if strings.HasPrefix(strings.ToLower(a.contentType), "multipart/") {
		msg.ContentType = a.contentType
	}
	for _, p := range parts {
		msg.Parts = append(msg.Parts, buildPart(p, a.charset))
	}
	return msg
}

// buildPart folds one part into a message node. A part holding a nested
// message is used as-is.
func buildPart(p *mail.Part, defaultCharset string) *mail.Message {
	if p.Message != nil {
		return p.Message
	}
	charset := p.Charset
	if charset == "" && len(p.Content) == 0 {
		charset = defaultCharset
	}
	return &mail.Message{
		ContentType:      p.ContentType,
		Charset:          charset,
		Disposition:      p.Disposition,
		TransferEncoding: p.TransferEncoding,
		Body:             p.Body,
		Filename:         p.Filename,
		Content:          p.Content,
	}
}
