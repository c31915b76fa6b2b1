package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"goclean/pkg/email"
)

type EmailService interface {
	SendVerificationEmail(ctx context.Context, to, name, code string, ttl time.Duration) error
	SendWelcomeEmail(ctx context.Context, to, name string) error
	SendPasswordResetEmail(ctx context.Context, to, name, code string, ttl time.Duration) error
}

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "verification"}}<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>Welcome to {{.AppName}}, {{.Name}}!</h2>
<p>Use the code below to verify your email address:</p>
<p style="font-size:28px;font-weight:bold;letter-spacing:6px">{{.Code}}</p>
<p>The code expires in {{.Minutes}} minutes. If you did not sign up, ignore this email.</p>
</body></html>{{end}}
{{define "welcome"}}<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>You're all set, {{.Name}}!</h2>
<p>Your {{.AppName}} registration is complete and your account is now active.</p>
<p>Invite friends with your referral code and earn credits when they complete bookings.</p>
</body></html>{{end}}
{{define "reset"}}<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>Password reset requested</h2>
<p>Hi {{.Name}}, use this code to reset your {{.AppName}} password:</p>
<p style="font-size:28px;font-weight:bold;letter-spacing:6px">{{.Code}}</p>
<p>The code expires in {{.Minutes}} minutes. If you did not request a reset, you can ignore this email.</p>
</body></html>{{end}}
`))

type emailTemplateData struct {
	AppName string
	Name    string
	Code    string
	Minutes int
}

type emailService struct {
	sender  email.Sender
	appName string
}

func NewEmailService(sender email.Sender, appName string) EmailService {
	return &emailService{
		sender:  sender,
		appName: appName,
	}
}

func (s *emailService) SendVerificationEmail(ctx context.Context, to, name, code string, ttl time.Duration) error {
	minutes := int(ttl.Minutes())
	return s.send(ctx, to, name, "Verify your email", "verification",
		emailTemplateData{AppName: s.appName, Name: name, Code: code, Minutes: minutes},
		fmt.Sprintf("Your %s verification code is %s. It expires in %d minutes.", s.appName, code, minutes))
}

func (s *emailService) SendWelcomeEmail(ctx context.Context, to, name string) error {
	return s.send(ctx, to, name, fmt.Sprintf("Welcome to %s", s.appName), "welcome",
		emailTemplateData{AppName: s.appName, Name: name},
		fmt.Sprintf("Hi %s, your %s registration is complete.", name, s.appName))
}

func (s *emailService) SendPasswordResetEmail(ctx context.Context, to, name, code string, ttl time.Duration) error {
	minutes := int(ttl.Minutes())
	return s.send(ctx, to, name, "Reset your password", "reset",
		emailTemplateData{AppName: s.appName, Name: name, Code: code, Minutes: minutes},
		fmt.Sprintf("Your %s password reset code is %s. It expires in %d minutes.", s.appName, code, minutes))
}

func (s *emailService) send(ctx context.Context, to, name, subject, templateName string, data emailTemplateData, text string) error {
	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("failed to render %s email: %w", templateName, err)
	}

	return s.sender.Send(ctx, &email.Message{
		To:      to,
		ToName:  name,
		Subject: subject,
		Text:    text,
		HTML:    body.String(),
	})
}
