package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mrz1836/postmark"

	"github.com/sheegull/deephand-forms/internal/logging"
	"github.com/sheegull/deephand-forms/internal/utils"
)

// EmailSender delivers one plain-text message.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams describes a single outgoing message.
type SendEmailParams struct {
	SendTo   string
	Subject  string
	TextBody string
	Tag      string
}

// Validate checks the message before it is handed to a provider.
func (p SendEmailParams) Validate() error {
	if !utils.IsValidEmailAddress(p.SendTo) {
		return fmt.Errorf("%w: invalid recipient %q", ErrInvalidEmail, p.SendTo)
	}
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidEmail)
	}
	if p.TextBody == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidEmail)
	}
	return nil
}

// PostmarkConfig holds the credentials of the transactional mail provider.
// Sending only needs the server token; AccountToken may be empty.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	SenderEmail  string
}

type postmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender creates a Postmark-backed email sender.
func NewPostmarkSender(cfg PostmarkConfig) (EmailSender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: POSTMARK_SERVER_TOKEN is required", ErrInvalidConfig)
	}
	if !utils.IsValidEmailAddress(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SENDER_EMAIL must be a valid email address", ErrInvalidConfig)
	}

	return &postmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:   cfg.SenderEmail,
	}, nil
}

func (s *postmarkSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       params.SendTo,
		Subject:  params.Subject,
		Tag:      params.Tag,
		TextBody: params.TextBody,
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

// DevSender writes messages to a directory instead of delivering them.
type DevSender struct {
	dir    string
	logger *logging.Logger
	now    func() time.Time
}

// NewDevSender creates a development sender writing below dir.
func NewDevSender(dir string) *DevSender {
	return &DevSender{
		dir:    dir,
		logger: logging.GetLogger(),
		now:    time.Now,
	}
}

type devMailMetadata struct {
	Timestamp string `json:"timestamp"`
	SendTo    string `json:"send_to"`
	Subject   string `json:"subject"`
	Tag       string `json:"tag,omitempty"`
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", ErrFailedToSendEmail, err)
	}

	now := d.now()
	identifier := params.Tag
	if identifier == "" {
		identifier = params.Subject
	}
	identifier = strings.Trim(unsafeFilenameChars.ReplaceAllString(identifier, "_"), "_")
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405.000"), identifier)

	if err := os.WriteFile(filepath.Join(d.dir, base+".txt"), []byte(params.TextBody), 0644); err != nil {
		return fmt.Errorf("%w: failed to write body: %v", ErrFailedToSendEmail, err)
	}

	meta, err := json.MarshalIndent(devMailMetadata{
		Timestamp: now.Format(time.RFC3339),
		SendTo:    params.SendTo,
		Subject:   params.Subject,
		Tag:       params.Tag,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal metadata: %v", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0644); err != nil {
		return fmt.Errorf("%w: failed to write metadata: %v", ErrFailedToSendEmail, err)
	}

	d.logger.Info("Email to %s saved to %s (%s)", params.SendTo, d.dir, params.Subject)
	return nil
}
