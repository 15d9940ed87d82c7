package courier

import (
	"time"

	"github.com/rbaliyan/courier/mail"
)

// MessageAttributes accumulates the declarative description of a message
// during composition. Compose functions mutate an attributes value through
// the fluent setters; the mailer turns the result into a mail.Message.
type MessageAttributes struct {
	from        string
	to          []string
	cc          []string
	bcc         []string
	subject     string
	sentOn      time.Time
	headers     map[string]string
	charset     string
	contentType string
	partsOrder  []string
	template    string

	body    string
	bodySet bool

	parts       []*mail.Part
	attachments []*mail.Part
	remote      []remoteAttachment
}

// remoteAttachment references blob store content fetched at compose time.
type remoteAttachment struct {
	uri         string
	filename    string
	contentType string
}

func newMessageAttributes(action string, defaults *options) *MessageAttributes {
	return &MessageAttributes{
		headers:     make(map[string]string),
		charset:     defaults.charset,
		contentType: defaults.contentType,
		partsOrder:  append([]string(nil), defaults.partsOrder...),
		template:    action,
	}
}

// SetFrom sets the sender address.
func (a *MessageAttributes) SetFrom(from string) *MessageAttributes {
	a.from = from
	return a
}

// SetRecipients sets the To addresses, replacing any previous value.
func (a *MessageAttributes) SetRecipients(to ...string) *MessageAttributes {
	a.to = append([]string(nil), to...)
	return a
}

// SetCc sets the Cc addresses, replacing any previous value.
func (a *MessageAttributes) SetCc(cc ...string) *MessageAttributes {
	a.cc = append([]string(nil), cc...)
	return a
}

// SetBcc sets the Bcc addresses, replacing any previous value.
func (a *MessageAttributes) SetBcc(bcc ...string) *MessageAttributes {
	a.bcc = append([]string(nil), bcc...)
	return a
}

// SetSubject sets the subject line.
func (a *MessageAttributes) SetSubject(subject string) *MessageAttributes {
	a.subject = subject
	return a
}

// SetBody sets the message body directly. A message with an explicit
// body skips template discovery entirely.
func (a *MessageAttributes) SetBody(body string) *MessageAttributes {
	a.body = body
	a.bodySet = true
	return a
}

// SetSentOn sets the message date. Defaults to the compose time.
func (a *MessageAttributes) SetSentOn(t time.Time) *MessageAttributes {
	a.sentOn = t
	return a
}

// SetHeader sets a custom header.
func (a *MessageAttributes) SetHeader(key, value string) *MessageAttributes {
	a.headers[key] = value
	return a
}

// SetCharset overrides the mailer's default charset for this message.
func (a *MessageAttributes) SetCharset(charset string) *MessageAttributes {
	if charset != "" {
		a.charset = charset
	}
	return a
}

// SetContentType overrides the content type for this message.
func (a *MessageAttributes) SetContentType(contentType string) *MessageAttributes {
	if contentType != "" {
		a.contentType = contentType
	}
	return a
}

// SetPartsOrder overrides the part priority order for this message.
func (a *MessageAttributes) SetPartsOrder(order ...string) *MessageAttributes {
	if len(order) > 0 {
		a.partsOrder = append([]string(nil), order...)
	}
	return a
}

// SetTemplate overrides the template base name used for discovery.
// Defaults to the action name.
func (a *MessageAttributes) SetTemplate(name string) *MessageAttributes {
	if name != "" {
		a.template = name
	}
	return a
}

// AddPart appends an explicit part. Explicit parts suppress template
// discovery and sort before discovered parts of the same priority.
func (a *MessageAttributes) AddPart(p *mail.Part) *MessageAttributes {
	if p != nil {
		a.parts = append(a.parts, p)
	}
	return a
}

// AddAttachment appends an attachment with inline content.
func (a *MessageAttributes) AddAttachment(filename, contentType string, content []byte) *MessageAttributes {
	a.attachments = append(a.attachments, &mail.Part{
		ContentType: contentType,
		Disposition: mail.DispositionAttachment,
		Filename:    filename,
		Content:     append([]byte(nil), content...),
	})
	return a
}

// AttachRemote queues an attachment whose content lives in the blob
// store. The content is fetched during composition; composing a message
// with remote attachments requires a configured blob store.
func (a *MessageAttributes) AttachRemote(uri, filename, contentType string) *MessageAttributes {
	a.remote = append(a.remote, remoteAttachment{
		uri:         uri,
		filename:    filename,
		contentType: contentType,
	})
	return a
}
