package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailService delivers the out-of-band tokens. A send failure must be
// surfaced to the caller: signup and forgot-password compensate on it.
type EmailService interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	clientURL   string
	logger      *slog.Logger
}

func NewAWSSESEmailService(region, fromAddress, clientURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		clientURL:   clientURL,
		logger:      logger,
	}, nil
}

// SendVerificationEmail mails the email-confirmation link (24h window).
func (s *AWSSESEmailService) SendVerificationEmail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/verify-email/%s", s.clientURL, token)

	htmlBody := fmt.Sprintf(`<h1>Email Verification</h1>
<p>Welcome to ProResume! Please verify your email address by clicking the link below:</p>
<p><a href="%s">%s</a></p>
<p>This link will expire in 24 hours.</p>
<p>If you didn't create an account, please ignore this email.</p>`, link, link)

	textBody := fmt.Sprintf(`Welcome to ProResume!

Please verify your email address by opening this link:

%s

This link will expire in 24 hours.
If you didn't create an account, please ignore this email.`, link)

	return s.send(ctx, email, "Verify Your Email - ProResume", htmlBody, textBody)
}

// SendPasswordResetEmail mails the reset link (10-minute window).
func (s *AWSSESEmailService) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/reset-password/%s", s.clientURL, token)

	htmlBody := fmt.Sprintf(`<h1>Password Reset Request</h1>
<p>You requested a password reset. Please click the link below to reset your password:</p>
<p><a href="%s">%s</a></p>
<p>This link will expire in 10 minutes.</p>
<p>If you didn't request this, please ignore this email.</p>`, link, link)

	textBody := fmt.Sprintf(`You requested a password reset for your ProResume account.

Open this link to choose a new password:

%s

This link will expire in 10 minutes.
If you didn't request this, please ignore this email.`, link)

	return s.send(ctx, email, "Password Reset Request - ProResume", htmlBody, textBody)
}

func (s *AWSSESEmailService) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("subject", subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("subject", subject),
		slog.String("message_id", *result.MessageId))

	return nil
}
