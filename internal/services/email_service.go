package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	pkglogger "github.com/eyramk/campusgate/pkg/logger"
)

// CredentialMailer delivers a freshly issued secret to the account holder's
// contact address. Delivery is best effort: the plaintext is already in the
// admin's hands via the provisioning response, so a mail failure must not
// roll back the issuance.
type CredentialMailer interface {
	SendCredentialEmail(ctx context.Context, recipientEmail, accountIdentifier, secret string) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	portalName  string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, portalName string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		portalName:  portalName,
		logger:      logger,
	}, nil
}

// SendCredentialEmail notifies an account holder that sign-in credentials
// were issued for them. The secret appears in this mail and nowhere else on
// our side; it is never logged or stored in plaintext.
func (s *AWSSESEmailService) SendCredentialEmail(ctx context.Context, recipientEmail, accountIdentifier, secret string) error {
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .credentials { background-color: #f8f9fa; padding: 16px; border-radius: 4px; font-family: monospace; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
        .warning { background-color: #fff3cd; padding: 10px; border-left: 4px solid #ffc107; margin: 10px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Your %s Sign-In Credentials</h1>
        </div>
        <div class="content">
            <p>An administrator has issued sign-in credentials for your account.</p>
            <div class="credentials">
                <p><strong>Sign-in ID:</strong> %s</p>
                <p><strong>Password:</strong> %s</p>
            </div>
            <div class="warning">
                <strong>Security Notice:</strong> Change this password after your first sign-in. Staff will never ask you for it.
            </div>
            <p><strong>Didn't expect this email?</strong><br>
            Contact the IT help desk immediately.</p>
        </div>
        <div class="footer">
            <p>This is an automated message from %s. Please do not reply.</p>
        </div>
    </div>
</body>
</html>`, s.portalName, accountIdentifier, secret, s.portalName)

	textBody := fmt.Sprintf(`Your %s Sign-In Credentials

An administrator has issued sign-in credentials for your account.

Sign-in ID: %s
Password: %s

Change this password after your first sign-in. Staff will never ask you for it.

If you did not expect this email, contact the IT help desk immediately.

This is an automated message from %s. Please do not reply.`,
		s.portalName, accountIdentifier, secret, s.portalName)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{recipientEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(fmt.Sprintf("Your %s sign-in credentials", s.portalName)),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send credential email",
			slog.String("account_identifier", pkglogger.SanitizedIdentifier(accountIdentifier)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send credential email: %w", err)
	}

	s.logger.Info("credential email sent",
		slog.String("account_identifier", pkglogger.SanitizedIdentifier(accountIdentifier)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
