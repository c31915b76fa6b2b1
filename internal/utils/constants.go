package utils

// Application Constants
const (
	AppName = "GoClean"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	PasswordMinLength = 8
	PasswordMaxLength = 128
	OTPLength         = 6

	// Profile defaults applied at registration completion
	DefaultResultRange = 10
	DefaultPlan        = "BASIC"
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrValidationFailed = "validation failed"
	ErrInvalidToken     = "invalid token"

	ErrUserExists               = "User already exists with this email or phone number"
	ErrUserNotFound             = "User does not exist!"
	ErrInvalidOrExpiredOTP      = "Invalid or expired OTP"
	ErrAlreadyVerified          = "Your email is already verified. Please login."
	ErrInvalidRegistrationFlow  = "Invalid registration flow. Please contact support."
	ErrNotVerifiedForCompletion = "User not found or email not verified. Please verify your email first."
	ErrInvalidCompletionOTP     = "Invalid OTP for registration completion"
	ErrAccountInactive          = "Your account is not active. Please complete registration or contact support."
	ErrIncorrectPassword        = "Password is incorrect"
	ErrPasswordMismatch         = "New password and confirm password do not match"
	ErrInvalidOTPPurpose        = "Invalid OTP type"
	ErrNotificationNotFound     = "Notification not found"
)

// Event Types
const (
	EventUserRegistered        = "user_registered"
	EventEmailVerified         = "email_verified"
	EventRegistrationCompleted = "registration_completed"
	EventUserLogin             = "user_login"
	EventPasswordReset         = "password_reset"
	EventPasswordChanged       = "password_changed"
	EventReferralRewardAwarded = "referral_reward_awarded"
	EventReferralCompleted     = "referral_completed"

	// Socket event carrying a freshly created notification
	EventNewNotification = "new_notification"
)

// Upload folders
const (
	FolderProfilePictures = "profile-pictures"
	FolderNIDDocuments    = "nid-documents"
	FolderSelfies         = "selfies"
)

var AllowedImageTypes = []string{"jpg", "jpeg", "png", "gif", "webp"}
