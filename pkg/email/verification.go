package email

import (
	"context"
	"fmt"
	"html"
)

// VerificationMailer composes and sends the address-verification
// message. It satisfies the session core's verification notifier
// contract.
type VerificationMailer struct {
	sender  EmailSender
	appName string
}

// NewVerificationMailer creates a verification mailer that delivers
// through the given sender. The app name appears in the subject line.
func NewVerificationMailer(sender EmailSender, appName string) *VerificationMailer {
	return &VerificationMailer{sender: sender, appName: appName}
}

// SendVerification delivers a verification message to the address.
func (m *VerificationMailer) SendVerification(ctx context.Context, sendTo string) error {
	return m.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   sendTo,
		Subject:  fmt.Sprintf("Verify your email for %s", m.appName),
		BodyHTML: m.body(sendTo),
		Tag:      "email-verification",
	})
}

func (m *VerificationMailer) body(sendTo string) string {
	return fmt.Sprintf(
		`<p>Hi,</p>
<p>Please confirm that %s is your email address for %s by following the
verification link we sent alongside this message.</p>
<p>If you did not create this account, you can safely ignore this email.</p>`,
		html.EscapeString(sendTo), html.EscapeString(m.appName))
}
