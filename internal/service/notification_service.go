package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sheegull/deephand-forms/internal/i18n"
	"github.com/sheegull/deephand-forms/internal/models"
)

const (
	contactSubject = "[DeepHand] New contact form submission"
	requestSubject = "[DeepHand] New data request"

	notAvailable = "N/A"
)

// Notifier turns accepted submissions into operator emails.
type Notifier struct {
	sender    EmailSender
	recipient string
}

// NewNotifier creates a notifier delivering to recipient through sender.
func NewNotifier(sender EmailSender, recipient string) *Notifier {
	return &Notifier{sender: sender, recipient: recipient}
}

// Notify renders rec and hands it to the sender.
func (n *Notifier) Notify(ctx context.Context, rec models.Record) error {
	subject, body, err := RenderNotification(rec)
	if err != nil {
		return err
	}
	return n.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   n.recipient,
		Subject:  subject,
		TextBody: body,
		Tag:      rec.FormType().String(),
	})
}

type line struct {
	field string
	value string
}

// RenderNotification returns the subject and plain-text body for rec. The
// output depends only on rec.
func RenderNotification(rec models.Record) (subject, body string, err error) {
	var (
		header string
		lines  []line
	)

	switch r := rec.(type) {
	case models.ContactSubmission:
		subject, header = contactSubject, "New Contact Form Submission"
		lines = []line{
			{"name", r.Name},
			{"organization", r.Organization},
			{"email", r.Email},
			{"message", r.Message},
		}
	case *models.ContactSubmission:
		return RenderNotification(*r)
	case models.DataRequestSubmission:
		subject, header = requestSubject, "New Data Request"
		lines = []line{
			{"name", r.Name},
			{"organization", r.Organization},
			{"email", r.Email},
			{"backgroundPurpose", r.BackgroundPurpose},
			{"dataType", strings.Join(r.DataType, ", ")},
			{"dataDetails", r.DataDetails},
			{"dataVolume", r.DataVolume},
			{"deadline", r.Deadline},
			{"budget", r.Budget},
			{"otherRequirements", r.OtherRequirements},
		}
	case *models.DataRequestSubmission:
		return RenderNotification(*r)
	default:
		return "", "", fmt.Errorf("%w: %T", ErrUnknownForm, rec)
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, l := range lines {
		value := l.value
		if value == "" {
			value = notAvailable
		}
		fmt.Fprintf(&b, "%s: %s", i18n.Label(i18n.English, l.field), value)
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return subject, b.String(), nil
}
