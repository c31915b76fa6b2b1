package services

import (
	"context"

	"goclean/internal/models"
	"goclean/internal/utils"
	"goclean/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	OTP             string `json:"otp" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strong_password"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strong_password"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// ForgotPassword issues a reset code whatever the registration stage.
func (s *authService) ForgotPassword(ctx context.Context, request *ForgotPasswordRequest) (*OTPResponse, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, utils.ValidationErrorFrom(err)
	}

	user, err := s.getByEmail(ctx, request.Email, utils.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	return s.issueResetOTP(ctx, user)
}

func (s *authService) issueResetOTP(ctx context.Context, user *models.User) (*OTPResponse, error) {
	code, err := s.generateOTP(s.registrationConfig.OTPLength)
	if err != nil {
		return nil, utils.NewInternalError("failed to generate otp", err)
	}

	ttl := s.registrationConfig.ResetOTPTTL
	expiry := s.now().Add(ttl)
	if err := s.userRepo.SetOTP(ctx, user.ID, models.OTPPurposePasswordReset, code, expiry); err != nil {
		if isNotFound(err) {
			return nil, utils.NewNotFoundError(utils.ErrUserNotFound)
		}
		return nil, utils.NewInternalError("failed to store reset otp", err)
	}

	s.logger.LogSecurityEvent("password_reset_requested", "medium", map[string]interface{}{
		"user_id": user.ID.Hex(),
		"phone":   utils.MaskPhone(user.Phone),
	})

	if err := s.emailService.SendPasswordResetEmail(ctx, user.Email, user.UserName, code, ttl); err != nil {
		s.sideEffectFailed(ctx, "email", user.ID, err, "Failed to send password reset email")
	}
	if s.smsService != nil && user.Phone != "" {
		if err := s.smsService.SendPasswordResetOTP(ctx, user.Phone, code, ttl); err != nil {
			s.sideEffectFailed(ctx, "sms", user.ID, err, "Failed to send password reset sms")
		}
	}

	response := &OTPResponse{
		Purpose:     models.OTPPurposePasswordReset,
		MaskedEmail: utils.MaskEmail(user.Email),
		ExpiresAt:   &expiry,
	}
	if s.registrationConfig.ExposeOTP {
		response.OTP = code
	}
	return response, nil
}

func (s *authService) ResetPassword(ctx context.Context, request *ResetPasswordRequest) error {
	if err := utils.ValidateStruct(request); err != nil {
		return utils.ValidationErrorFrom(err)
	}
	if request.NewPassword != request.ConfirmPassword {
		return utils.NewValidationError(utils.ErrPasswordMismatch, nil)
	}

	user, err := s.getByEmail(ctx, request.Email, utils.ErrUserNotFound)
	if err != nil {
		return err
	}

	if !utils.ValidateOTP(request.OTP, user.ResetPasswordOTP, user.ResetPasswordOTPExpiry, s.now()) {
		metrics.OTPFailuresTotal.WithLabelValues(string(models.OTPPurposePasswordReset)).Inc()
		return utils.NewInvalidCredentialError(utils.ErrInvalidOrExpiredOTP)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(request.NewPassword), s.securityConfig.BcryptCost)
	if err != nil {
		return utils.NewInternalError("failed to hash password", err)
	}

	// Guarded on the stored code so a concurrent reset consumes it only once.
	if err := s.userRepo.ResetPassword(ctx, user.ID, user.ResetPasswordOTP, string(hashed)); err != nil {
		if isNotFound(err) {
			return utils.NewInvalidCredentialError(utils.ErrInvalidOrExpiredOTP)
		}
		return utils.NewInternalError("failed to reset password", err)
	}

	s.logger.LogUserAction(user.ID, utils.EventPasswordReset, nil)
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID primitive.ObjectID, request *ChangePasswordRequest) error {
	if err := utils.ValidateStruct(request); err != nil {
		return utils.ValidationErrorFrom(err)
	}
	if request.NewPassword != request.ConfirmPassword {
		return utils.NewValidationError(utils.ErrPasswordMismatch, nil)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return utils.NewNotFoundError(utils.ErrUserNotFound)
		}
		return utils.NewInternalError("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(request.OldPassword)); err != nil {
		return utils.NewInvalidCredentialError(utils.ErrIncorrectPassword)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(request.NewPassword), s.securityConfig.BcryptCost)
	if err != nil {
		return utils.NewInternalError("failed to hash password", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		if isNotFound(err) {
			return utils.NewNotFoundError(utils.ErrUserNotFound)
		}
		return utils.NewInternalError("failed to update password", err)
	}

	s.logger.LogUserAction(userID, utils.EventPasswordChanged, nil)
	return nil
}
