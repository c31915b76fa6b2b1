package main

import (
	"context"
	"fmt"

	"goclean/internal/config"
	"goclean/internal/services"
	"goclean/pkg/email"
	"goclean/pkg/logger"
	"goclean/pkg/push"
	"goclean/pkg/sms"
	"goclean/pkg/storage"
)

func newEmailSender(cfg *config.EmailConfig, log *logger.Logger) (email.Sender, error) {
	switch cfg.Provider {
	case "smtp":
		return email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.FromEmail, cfg.FromName), nil
	case "mailersend":
		return email.NewMailerSendSender(cfg.MailerSend.APIKey, cfg.FromEmail, cfg.FromName)
	case "log", "":
		return email.NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// newSMSService returns a nil service when SMS is disabled.
func newSMSService(ctx context.Context, cfg *config.Config) (services.SMSService, error) {
	var provider sms.SMSProvider
	switch cfg.SMS.Provider {
	case "twilio":
		provider = sms.NewTwilioProvider(cfg.SMS.Twilio.AccountSID, cfg.SMS.Twilio.AuthToken, cfg.SMS.Twilio.FromNumber)
	case "sns":
		snsProvider, err := sms.NewAWSSNSProvider(ctx, cfg.SMS.AWS.Region, cfg.SMS.AWS.SenderID)
		if err != nil {
			return nil, err
		}
		provider = snsProvider
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown sms provider %q", cfg.SMS.Provider)
	}
	return services.NewSMSService(provider, cfg.App.Name), nil
}

// newPushProvider returns a nil provider when push is disabled.
func newPushProvider(ctx context.Context, cfg *config.PushConfig) (push.PushProvider, error) {
	switch cfg.Provider {
	case "fcm":
		provider, err := push.NewFCMProvider(ctx, cfg.FCM.Credentials, cfg.FCM.ProjectID)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case "apns":
		provider, err := push.NewAPNSProvider(cfg.APNS.KeyFile, cfg.APNS.KeyID, cfg.APNS.TeamID, cfg.APNS.BundleID, cfg.APNS.Production)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.Provider)
	}
}

func newStorageProvider(ctx context.Context, cfg *config.StorageConfig) (storage.StorageProvider, func(), error) {
	noop := func() {}

	switch cfg.Provider {
	case "s3":
		provider, err := storage.NewAWSS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.CDNDomain)
		if err != nil {
			return nil, noop, err
		}
		return provider, noop, nil
	case "gcs":
		provider, err := storage.NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
		if err != nil {
			return nil, noop, err
		}
		return provider, func() { _ = provider.Close() }, nil
	case "local", "":
		provider, err := storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
		if err != nil {
			return nil, noop, err
		}
		return provider, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
