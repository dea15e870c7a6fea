package services

import (
	"context"
	"fmt"
	"log/slog"

	"ideahub/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that renders embedded templates and
// hands the result to the given Mailer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendInvitation sends the registration invitation email using the
// "invitation" template.
func (s *emailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("invitation email data is nil")
	}
	if err := s.send("invitation", data.Receiver, data); err != nil {
		return err
	}
	s.logger.Info("invitation email sent", "to", data.Receiver)
	return nil
}

// SendPasswordResetCode sends the one-time password reset code.
func (s *emailService) SendPasswordResetCode(ctx context.Context, data *domain.VerificationCodeEmailData) error {
	if data == nil {
		return fmt.Errorf("password reset email data is nil")
	}
	if err := s.send("password_reset_code", data.Email, data); err != nil {
		return err
	}
	s.logger.Info("password reset code sent", "to", data.Email)
	return nil
}

// SendEmailChangeCode sends the one-time email change confirmation code.
func (s *emailService) SendEmailChangeCode(ctx context.Context, data *domain.VerificationCodeEmailData) error {
	if data == nil {
		return fmt.Errorf("email change email data is nil")
	}
	if err := s.send("email_change_code", data.Email, data); err != nil {
		return err
	}
	s.logger.Info("email change code sent", "to", data.Email)
	return nil
}

func (s *emailService) send(templateName, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", templateName, err)
	}
	if err := s.mailer.Send(to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", templateName, err)
	}
	return nil
}
