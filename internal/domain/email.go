package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
// Sends can fail transiently; the transport is non-transactional.
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// InvitationEmailData holds data for the registration invitation email.
type InvitationEmailData struct {
	Receiver         string
	SenderFirstName  string
	SenderLastName   string
	RegistrationLink string
}

// VerificationCodeEmailData holds data for the password-reset and
// email-change code emails.
type VerificationCodeEmailData struct {
	Email            string
	Code             string
	ExpiresInMinutes int
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendInvitation(ctx context.Context, data *InvitationEmailData) error
	SendPasswordResetCode(ctx context.Context, data *VerificationCodeEmailData) error
	SendEmailChangeCode(ctx context.Context, data *VerificationCodeEmailData) error
}
