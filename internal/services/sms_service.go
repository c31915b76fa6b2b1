package services

import (
	"context"
	"fmt"
	"time"

	"goclean/pkg/sms"
)

type SMSService interface {
	SendPasswordResetOTP(ctx context.Context, phone, code string, ttl time.Duration) error
}

type smsService struct {
	provider sms.SMSProvider
	appName  string
}

func NewSMSService(provider sms.SMSProvider, appName string) SMSService {
	return &smsService{
		provider: provider,
		appName:  appName,
	}
}

func (s *smsService) SendPasswordResetOTP(ctx context.Context, phone, code string, ttl time.Duration) error {
	resp, err := s.provider.SendSMS(ctx, &sms.SMSRequest{
		To:      phone,
		Message: fmt.Sprintf("Your %s password reset code is %s. It expires in %d minutes.", s.appName, code, int(ttl.Minutes())),
		Type:    "otp",
	})
	if err != nil {
		return err
	}
	if resp != nil && resp.Error != "" {
		return fmt.Errorf("sms provider rejected message: %s", resp.Error)
	}
	return nil
}
