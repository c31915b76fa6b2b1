package services

import (
	"context"
	"errors"
	"time"

	"goclean/internal/config"
	"goclean/internal/models"
	"goclean/internal/repositories/interfaces"
	"goclean/internal/utils"
	"goclean/pkg/logger"
	"goclean/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	// Registration
	Register(ctx context.Context, request *RegisterRequest) (*RegisterResponse, error)
	VerifyOTP(ctx context.Context, request *VerifyOTPRequest) (*VerifyOTPResponse, error)
	CompleteRegistration(ctx context.Context, request *CompleteRegistrationRequest) (*models.User, error)
	ResendOTP(ctx context.Context, request *ResendOTPRequest) (*OTPResponse, error)

	// Authentication
	Login(ctx context.Context, request *LoginRequest) (*LoginResponse, error)
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	ValidateToken(ctx context.Context, token string) *TokenValidation

	// Password management
	ForgotPassword(ctx context.Context, request *ForgotPasswordRequest) (*OTPResponse, error)
	ResetPassword(ctx context.Context, request *ResetPasswordRequest) error
	ChangePassword(ctx context.Context, userID primitive.ObjectID, request *ChangePasswordRequest) error
}

type RegisterRequest struct {
	UserName     string `json:"user_name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,phone"`
	Password     string `json:"password" validate:"required,strong_password"`
	ReferralCode string `json:"referral_code" validate:"omitempty,max=32"`
}

type RegisterResponse struct {
	User *models.User `json:"user"`
	OTP  string       `json:"otp,omitempty"`
}

type VerifyOTPRequest struct {
	Email   string            `json:"email" validate:"required,email"`
	OTP     string            `json:"otp" validate:"required"`
	Purpose models.OTPPurpose `json:"purpose" validate:"required"`
}

type VerifyOTPResponse struct {
	IsValid bool         `json:"is_valid"`
	User    *models.User `json:"user,omitempty"`
}

type CompleteRegistrationRequest struct {
	Email       string           `json:"email" form:"email" validate:"required,email"`
	OTP         string           `json:"otp" form:"otp" validate:"required"`
	Role        models.UserRole  `json:"role" form:"role" validate:"omitempty,oneof=CUSTOMER PROVIDER"`
	Latitude    *float64         `json:"latitude" form:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64         `json:"longitude" form:"longitude" validate:"omitempty,min=-180,max=180"`
	ResultRange int              `json:"result_range" form:"result_range" validate:"omitempty,min=1,max=500"`
	Plan        string           `json:"plan" form:"plan" validate:"omitempty,max=32"`
	Experience  string           `json:"experience" form:"experience" validate:"omitempty,max=500"`
	Documents   *DocumentUploads `json:"-" form:"-"`
}

type ResendOTPRequest struct {
	Email   string            `json:"email" validate:"required,email"`
	Purpose models.OTPPurpose `json:"purpose" validate:"required"`
}

type OTPResponse struct {
	Purpose     models.OTPPurpose `json:"purpose"`
	MaskedEmail string            `json:"masked_email"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	OTP         string            `json:"otp,omitempty"`
}

type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	PushToken string `json:"push_token" validate:"omitempty,max=512"`
}

type LoginResponse struct {
	User  *models.User       `json:"user"`
	Token *utils.AccessToken `json:"token"`
}

type TokenValidation struct {
	IsValid bool             `json:"is_valid"`
	Claims  *utils.JWTClaims `json:"claims,omitempty"`
}

type authService struct {
	userRepo           interfaces.UserRepository
	pendingRepo        interfaces.PendingRegistrationRepository
	txManager          interfaces.TransactionManager
	emailService       EmailService
	smsService         SMSService
	documentService    DocumentService
	notifier           NotificationService
	securityConfig     *config.SecurityConfig
	registrationConfig *config.RegistrationConfig
	logger             *logger.Logger

	now         func() time.Time
	generateOTP func(length int) (string, error)
}

// NewAuthService builds the registration and login flows. smsService and
// notifier may be nil.
func NewAuthService(
	userRepo interfaces.UserRepository,
	pendingRepo interfaces.PendingRegistrationRepository,
	txManager interfaces.TransactionManager,
	emailService EmailService,
	smsService SMSService,
	documentService DocumentService,
	notifier NotificationService,
	securityConfig *config.SecurityConfig,
	registrationConfig *config.RegistrationConfig,
	log *logger.Logger,
) AuthService {
	return &authService{
		userRepo:           userRepo,
		pendingRepo:        pendingRepo,
		txManager:          txManager,
		emailService:       emailService,
		smsService:         smsService,
		documentService:    documentService,
		notifier:           notifier,
		securityConfig:     securityConfig,
		registrationConfig: registrationConfig,
		logger:             log,
		now:                time.Now,
		generateOTP:        utils.GenerateOTP,
	}
}

func (s *authService) Register(ctx context.Context, request *RegisterRequest) (*RegisterResponse, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, utils.ValidationErrorFrom(err)
	}

	email := utils.NormalizeEmail(request.Email)
	phone := utils.NormalizePhone(request.Phone)

	hashed, err := bcrypt.GenerateFromPassword([]byte(request.Password), s.securityConfig.BcryptCost)
	if err != nil {
		return nil, utils.NewInternalError("failed to hash password", err)
	}

	code, err := s.generateOTP(s.registrationConfig.OTPLength)
	if err != nil {
		return nil, utils.NewInternalError("failed to generate otp", err)
	}

	now := s.now()
	expiry := now.Add(s.registrationConfig.VerificationOTPTTL)
	user := &models.User{
		UserName:                   request.UserName,
		Email:                      email,
		Phone:                      phone,
		Password:                   string(hashed),
		ReferralCode:               request.ReferralCode,
		Status:                     models.UserStatusInactive,
		RegistrationStage:          models.RegistrationStagePartial,
		EmailVerificationOTP:       code,
		EmailVerificationOTPExpiry: &expiry,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		user.ID = primitive.NilObjectID

		abandoned, released, err := s.ensureAvailable(txCtx, email, phone, now)
		if err != nil {
			return err
		}

		for _, stale := range released {
			if err := s.userRepo.ReleaseAbandoned(txCtx, stale.ID); err != nil {
				return registrationConflict(err)
			}
			if err := s.pendingRepo.DeleteByUserID(txCtx, stale.ID); err != nil {
				return err
			}
		}

		if abandoned != nil {
			user.ID = abandoned.ID
			if err := s.userRepo.RestartRegistration(txCtx, user); err != nil {
				return registrationConflict(err)
			}
		} else if err := s.userRepo.Create(txCtx, user); err != nil {
			return registrationConflict(err)
		}

		if err := s.pendingRepo.Upsert(txCtx, models.NewPendingRegistration(user, now)); err != nil {
			return registrationConflict(err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to register user")
	}

	metrics.RegistrationsTotal.WithLabelValues(string(models.RegistrationStagePartial)).Inc()
	s.logger.LogUserAction(user.ID, utils.EventUserRegistered, map[string]interface{}{
		"email": utils.MaskEmail(email),
	})

	if err := s.emailService.SendVerificationEmail(ctx, email, user.UserName, code, s.registrationConfig.VerificationOTPTTL); err != nil {
		s.sideEffectFailed(ctx, "email", user.ID, err, "Failed to send verification email")
	}

	response := &RegisterResponse{User: user.Redacted()}
	if s.registrationConfig.ExposeOTP {
		response.OTP = code
	}
	return response, nil
}

// ensureAvailable fails with a conflict when email or phone belongs to a live
// identity. When every identity holding them is an abandoned PARTIAL one, it
// returns the identity to restart (the email's owner when there is one) and
// the others, which must be released first.
func (s *authService) ensureAvailable(ctx context.Context, email, phone string, now time.Time) (*models.User, []*models.User, error) {
	users, err := s.userRepo.FindByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return nil, nil, err
	}
	pending, err := s.pendingRepo.FindByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return nil, nil, err
	}

	if len(users) == 0 {
		if len(pending) > 0 {
			return nil, nil, utils.NewConflictError(utils.ErrUserExists)
		}
		return nil, nil, nil
	}

	held := make(map[primitive.ObjectID]bool, len(users))
	for _, u := range users {
		if u.RegistrationStage != models.RegistrationStagePartial {
			return nil, nil, utils.NewConflictError(utils.ErrUserExists)
		}
		abandoned, err := s.isAbandoned(ctx, u.ID, now)
		if err != nil {
			return nil, nil, err
		}
		if !abandoned {
			return nil, nil, utils.NewConflictError(utils.ErrUserExists)
		}
		held[u.ID] = true
	}
	for _, p := range pending {
		if !held[p.UserID] {
			return nil, nil, utils.NewConflictError(utils.ErrUserExists)
		}
	}

	candidate := users[0]
	for _, u := range users {
		if u.Email == email {
			candidate = u
			break
		}
	}

	var released []*models.User
	for _, u := range users {
		if u.ID != candidate.ID {
			released = append(released, u)
		}
	}
	return candidate, released, nil
}

// isAbandoned reports whether a PARTIAL identity lost its staging row or let
// it outlive the pending TTL.
func (s *authService) isAbandoned(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	staging, err := s.pendingRepo.GetByUserID(ctx, id)
	switch {
	case isNotFound(err):
		return true, nil
	case err != nil:
		return false, err
	default:
		return staging.IsAbandoned(now, s.registrationConfig.PendingRegistrationTTL), nil
	}
}

func (s *authService) VerifyOTP(ctx context.Context, request *VerifyOTPRequest) (*VerifyOTPResponse, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, utils.ValidationErrorFrom(err)
	}
	if !validPurpose(request.Purpose) {
		return nil, utils.NewValidationError(utils.ErrInvalidOTPPurpose, nil)
	}

	user, err := s.getByEmail(ctx, request.Email, utils.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	if request.Purpose == models.OTPPurposePasswordReset {
		if !utils.ValidateOTP(request.OTP, user.ResetPasswordOTP, user.ResetPasswordOTPExpiry, s.now()) {
			metrics.OTPFailuresTotal.WithLabelValues(string(request.Purpose)).Inc()
			return nil, utils.NewInvalidCredentialError(utils.ErrInvalidOrExpiredOTP)
		}
		return &VerifyOTPResponse{IsValid: true}, nil
	}

	return s.verifyEmail(ctx, user, request.OTP)
}

func (s *authService) verifyEmail(ctx context.Context, user *models.User, code string) (*VerifyOTPResponse, error) {
	switch user.RegistrationStage {
	case models.RegistrationStageCompleted:
		return nil, utils.NewInvalidStateError(utils.ErrAlreadyVerified)
	case models.RegistrationStagePartial:
	default:
		return nil, utils.NewInvalidStateError(utils.ErrInvalidRegistrationFlow)
	}

	if !utils.ValidateOTP(code, user.EmailVerificationOTP, user.EmailVerificationOTPExpiry, s.now()) {
		metrics.OTPFailuresTotal.WithLabelValues(string(models.OTPPurposeEmailVerify)).Inc()
		return nil, utils.NewInvalidCredentialError(utils.ErrInvalidOrExpiredOTP)
	}

	var verified *models.User
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		verified, err = s.userRepo.MarkEmailVerified(txCtx, user.ID, user.EmailVerificationOTP)
		if err != nil {
			if isNotFound(err) {
				return s.verificationMissed(txCtx, user.ID)
			}
			return err
		}
		return s.pendingRepo.DeleteByUserID(txCtx, user.ID)
	})
	if err != nil {
		return nil, asAppError(err, "failed to verify email")
	}

	metrics.RegistrationsTotal.WithLabelValues(string(models.RegistrationStageEmailVerified)).Inc()
	s.logger.LogUserAction(user.ID, utils.EventEmailVerified, nil)

	return &VerifyOTPResponse{IsValid: true, User: verified.Redacted()}, nil
}

// verificationMissed explains a guarded verification that matched nothing. A
// code replaced by a concurrent resend is a bad code; anything else means the
// identity left PARTIAL.
func (s *authService) verificationMissed(ctx context.Context, id primitive.ObjectID) error {
	current, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return utils.NewInvalidStateError(utils.ErrInvalidRegistrationFlow)
		}
		return err
	}

	switch current.RegistrationStage {
	case models.RegistrationStagePartial:
		metrics.OTPFailuresTotal.WithLabelValues(string(models.OTPPurposeEmailVerify)).Inc()
		return utils.NewInvalidCredentialError(utils.ErrInvalidOrExpiredOTP)
	case models.RegistrationStageCompleted:
		return utils.NewInvalidStateError(utils.ErrAlreadyVerified)
	default:
		return utils.NewInvalidStateError(utils.ErrInvalidRegistrationFlow)
	}
}

func (s *authService) CompleteRegistration(ctx context.Context, request *CompleteRegistrationRequest) (*models.User, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, utils.ValidationErrorFrom(err)
	}

	user, err := s.getByEmail(ctx, request.Email, utils.ErrNotVerifiedForCompletion)
	if err != nil {
		return nil, err
	}
	if user.RegistrationStage != models.RegistrationStageEmailVerified {
		return nil, utils.NewNotFoundError(utils.ErrNotVerifiedForCompletion)
	}
	if !utils.MatchOTP(request.OTP, user.RegistrationOTP) {
		metrics.OTPFailuresTotal.WithLabelValues(string(models.OTPPurposeEmailVerify)).Inc()
		return nil, utils.NewInvalidCredentialError(utils.ErrInvalidCompletionOTP)
	}

	profile := &models.ProfileCompletion{
		Role:        request.Role,
		Latitude:    request.Latitude,
		Longitude:   request.Longitude,
		ResultRange: request.ResultRange,
		Plan:        request.Plan,
		Experience:  request.Experience,
	}
	if profile.Role == "" {
		profile.Role = models.UserRoleCustomer
	}
	if profile.ResultRange == 0 {
		profile.ResultRange = utils.DefaultResultRange
	}
	if profile.Plan == "" {
		profile.Plan = utils.DefaultPlan
	}
	if s.documentService != nil {
		profile.Documents = s.documentService.UploadDocuments(ctx, user.ID, request.Documents)
	}

	var completed *models.User
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		completed, err = s.userRepo.CompleteRegistration(txCtx, user.ID, user.RegistrationOTP, profile)
		if isNotFound(err) {
			return utils.NewNotFoundError(utils.ErrNotVerifiedForCompletion)
		}
		return err
	})
	if err != nil {
		return nil, asAppError(err, "failed to complete registration")
	}

	metrics.RegistrationsTotal.WithLabelValues(string(models.RegistrationStageCompleted)).Inc()
	s.logger.LogUserAction(user.ID, utils.EventRegistrationCompleted, map[string]interface{}{
		"role": completed.Role,
	})

	if err := s.emailService.SendWelcomeEmail(ctx, completed.Email, completed.UserName); err != nil {
		s.sideEffectFailed(ctx, "email", user.ID, err, "Failed to send welcome email")
	}
	notifyBestEffort(ctx, s.notifier, s.logger, &CreateNotificationRequest{
		RecipientID: completed.ID,
		Type:        models.NotificationTypeRegistrationComplete,
		Title:       "Registration complete",
		Message:     "Your account is active. Welcome aboard!",
	})

	return completed.Redacted(), nil
}

func (s *authService) ResendOTP(ctx context.Context, request *ResendOTPRequest) (*OTPResponse, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, utils.ValidationErrorFrom(err)
	}
	if !validPurpose(request.Purpose) {
		return nil, utils.NewValidationError(utils.ErrInvalidOTPPurpose, nil)
	}

	user, err := s.getByEmail(ctx, request.Email, utils.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	if request.Purpose == models.OTPPurposePasswordReset {
		return s.issueResetOTP(ctx, user)
	}

	if user.RegistrationStage == models.RegistrationStageCompleted {
		return nil, utils.NewInvalidStateError(utils.ErrAlreadyVerified)
	}

	code, err := s.generateOTP(s.registrationConfig.OTPLength)
	if err != nil {
		return nil, utils.NewInternalError("failed to generate otp", err)
	}
	now := s.now()
	expiry := now.Add(s.registrationConfig.VerificationOTPTTL)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if user.RegistrationStage == models.RegistrationStageEmailVerified {
			if err := s.userRepo.SetRegistrationOTP(txCtx, user.ID, code); err != nil {
				if isNotFound(err) {
					return utils.NewInvalidStateError(utils.ErrAlreadyVerified)
				}
				return err
			}
			return nil
		}

		if err := s.userRepo.SetOTP(txCtx, user.ID, models.OTPPurposeEmailVerify, code, expiry); err != nil {
			return err
		}
		staged := *user
		staged.EmailVerificationOTP = code
		staged.EmailVerificationOTPExpiry = &expiry
		return s.pendingRepo.Upsert(txCtx, models.NewPendingRegistration(&staged, now))
	})
	if err != nil {
		return nil, asAppError(err, "failed to resend otp")
	}

	if err := s.emailService.SendVerificationEmail(ctx, user.Email, user.UserName, code, s.registrationConfig.VerificationOTPTTL); err != nil {
		s.sideEffectFailed(ctx, "email", user.ID, err, "Failed to send verification email")
	}

	response := &OTPResponse{
		Purpose:     models.OTPPurposeEmailVerify,
		MaskedEmail: utils.MaskEmail(user.Email),
	}
	if user.RegistrationStage == models.RegistrationStagePartial {
		response.ExpiresAt = &expiry
	}
	if s.registrationConfig.ExposeOTP {
		response.OTP = code
	}
	return response, nil
}

func (s *authService) Login(ctx context.Context, request *LoginRequest) (*LoginResponse, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, utils.ValidationErrorFrom(err)
	}

	user, err := s.getByEmail(ctx, request.Email, utils.ErrUserNotFound)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}
	if !user.IsActive() {
		metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		return nil, utils.NewForbiddenError(utils.ErrAccountInactive)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(request.Password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("bad_password").Inc()
		s.logger.LogSecurityEvent("login_failed", "low", map[string]interface{}{
			"user_id": user.ID.Hex(),
		})
		return nil, utils.NewInvalidCredentialError(utils.ErrIncorrectPassword)
	}

	now := s.now()
	token, err := utils.GenerateAccessToken(user.ID, user.Email, string(user.Role), s.securityConfig.JWTSecret, s.securityConfig.JWTAccessTokenTTL, now)
	if err != nil {
		return nil, utils.NewInternalError("failed to issue access token", err)
	}

	if err := s.userRepo.UpdateLoginInfo(ctx, user.ID, request.PushToken, now); err != nil {
		s.logger.WithContext(ctx).WithUserID(user.ID).WithError(err).Warn("Failed to record login")
	} else {
		user.LastLoginAt = &now
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.LogUserAction(user.ID, utils.EventUserLogin, nil)

	return &LoginResponse{
		User:  user.Redacted(),
		Token: token,
	}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, utils.NewNotFoundError(utils.ErrUserNotFound)
		}
		return nil, utils.NewInternalError("failed to load user", err)
	}
	return user.Redacted(), nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) *TokenValidation {
	claims, err := utils.ValidateToken(token, s.securityConfig.JWTSecret)
	if err != nil {
		return &TokenValidation{IsValid: false}
	}
	return &TokenValidation{IsValid: true, Claims: claims}
}

func (s *authService) getByEmail(ctx context.Context, email, notFoundMessage string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, utils.NewNotFoundError(notFoundMessage)
		}
		return nil, utils.NewInternalError("failed to load user", err)
	}
	return user, nil
}

func (s *authService) sideEffectFailed(ctx context.Context, kind string, userID primitive.ObjectID, err error, message string) {
	metrics.SideEffectFailuresTotal.WithLabelValues(kind).Inc()
	s.logger.WithContext(ctx).WithUserID(userID).WithError(err).Error(message)
}

func validPurpose(purpose models.OTPPurpose) bool {
	return purpose == models.OTPPurposeEmailVerify || purpose == models.OTPPurposePasswordReset
}

// registrationConflict maps a lost uniqueness race onto the same conflict a
// pre-check would have reported.
func registrationConflict(err error) error {
	if errors.Is(err, interfaces.ErrDuplicateKey) || isNotFound(err) {
		return utils.NewConflictError(utils.ErrUserExists)
	}
	return err
}

// asAppError passes caller-facing errors through and wraps everything else as
// an internal failure.
func asAppError(err error, message string) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return utils.NewInternalError(message, err)
}
