// Package ses delivers messages through the AWS SES v2 API.
package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/rbaliyan/courier/mail"
)

// SendEmailAPI is the SES v2 SendEmail surface the transport uses.
// Tests supply mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Transport submits messages to SES as raw MIME content, preserving the
// full part tree built by the composer. Retry policy is left to the
// caller.
type Transport struct {
	client SendEmailAPI
}

// Config holds the AWS connection settings for the SES transport.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// New loads AWS configuration and creates an SES transport. Static
// credentials are used when both key fields are set, otherwise the
// default provider chain applies.
func New(ctx context.Context, cfg Config) (*Transport, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ses: load aws config: %w", err)
	}
	return &Transport{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// NewWithClient creates a transport with a caller-supplied client.
func NewWithClient(client SendEmailAPI) *Transport {
	return &Transport{client: client}
}

// Name implements mail.Transport.
func (t *Transport) Name() string {
	return "ses"
}

// Deliver encodes msg and submits it via SendEmail. Bcc recipients are
// passed in the destination since the encoded message omits them.
func (t *Transport) Deliver(ctx context.Context, msg *mail.Message) error {
	if msg == nil {
		return mail.ErrNilMessage
	}
	if len(msg.Recipients()) == 0 {
		return mail.ErrEmptyRecipients
	}

	raw, err := msg.Bytes()
	if err != nil {
		return fmt.Errorf("ses: encode message: %w", err)
	}

	input := &sesv2.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.Cc,
			BccAddresses: msg.Bcc,
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	}

	if _, err := t.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses: send email: %w", err)
	}
	return nil
}
