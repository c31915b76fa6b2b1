package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStatus string
type UserRole string
type RegistrationStage string
type OTPPurpose string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusInactive  UserStatus = "INACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"

	UserRoleCustomer UserRole = "CUSTOMER"
	UserRoleProvider UserRole = "PROVIDER"
	UserRoleAdmin    UserRole = "ADMIN"

	RegistrationStagePartial       RegistrationStage = "PARTIAL"
	RegistrationStageEmailVerified RegistrationStage = "EMAIL_VERIFIED"
	RegistrationStageCompleted     RegistrationStage = "COMPLETED"

	OTPPurposeEmailVerify   OTPPurpose = "VERIFY_EMAIL"
	OTPPurposePasswordReset OTPPurpose = "RESET_PASSWORD"
)

// User is the permanent identity record. Status is ACTIVE exactly when
// RegistrationStage is COMPLETED.
type User struct {
	ID                         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserName                   string             `json:"user_name" bson:"user_name"`
	Email                      string             `json:"email" bson:"email"`
	Phone                      string             `json:"phone" bson:"phone"`
	Password                   string             `json:"-" bson:"password"`
	ReferralCode               string             `json:"referral_code,omitempty" bson:"referral_code,omitempty"`
	Role                       UserRole           `json:"role,omitempty" bson:"role,omitempty"`
	Status                     UserStatus         `json:"status" bson:"status"`
	RegistrationStage          RegistrationStage  `json:"registration_stage" bson:"registration_stage"`
	IsEmailVerified            bool               `json:"is_email_verified" bson:"is_email_verified"`
	EmailVerificationOTP       string             `json:"-" bson:"email_verification_otp,omitempty"`
	EmailVerificationOTPExpiry *time.Time         `json:"-" bson:"email_verification_otp_expiry,omitempty"`
	RegistrationOTP            string             `json:"-" bson:"registration_otp,omitempty"`
	ResetPasswordOTP           string             `json:"-" bson:"reset_password_otp,omitempty"`
	ResetPasswordOTPExpiry     *time.Time         `json:"-" bson:"reset_password_otp_expiry,omitempty"`
	Latitude                   *float64           `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude                  *float64           `json:"longitude,omitempty" bson:"longitude,omitempty"`
	ResultRange                int                `json:"result_range,omitempty" bson:"result_range,omitempty"`
	Plan                       string             `json:"plan,omitempty" bson:"plan,omitempty"`
	Experience                 string             `json:"experience,omitempty" bson:"experience,omitempty"`
	Documents                  DocumentURLs       `json:"documents" bson:"documents"`
	Credits                    int64              `json:"credits" bson:"credits"`
	PushToken                  string             `json:"-" bson:"push_token,omitempty"`
	IsDeleted                  bool               `json:"-" bson:"is_deleted"`
	LastLoginAt                *time.Time         `json:"last_login_at,omitempty" bson:"last_login_at,omitempty"`
	CreatedAt                  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt                  time.Time          `json:"updated_at" bson:"updated_at"`
}

type DocumentURLs struct {
	ProfilePicture string `json:"profile_picture,omitempty" bson:"profile_picture,omitempty"`
	NIDFront       string `json:"nid_front,omitempty" bson:"nid_front,omitempty"`
	NIDBack        string `json:"nid_back,omitempty" bson:"nid_back,omitempty"`
	SelfieWithNID  string `json:"selfie_with_nid,omitempty" bson:"selfie_with_nid,omitempty"`
}

// ProfileCompletion carries the fields written when a registration reaches
// COMPLETED.
type ProfileCompletion struct {
	Role        UserRole
	Latitude    *float64
	Longitude   *float64
	ResultRange int
	Plan        string
	Experience  string
	Documents   DocumentURLs
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Redacted returns a copy with the credential hash and every OTP field
// stripped.
func (u *User) Redacted() *User {
	c := *u
	c.Password = ""
	c.EmailVerificationOTP = ""
	c.EmailVerificationOTPExpiry = nil
	c.RegistrationOTP = ""
	c.ResetPasswordOTP = ""
	c.ResetPasswordOTPExpiry = nil
	c.PushToken = ""
	return &c
}

// ReleasedContact is the placeholder email and phone written over a released
// identity so its originals can be registered again under the unique indexes.
func ReleasedContact(id primitive.ObjectID) (email, phone string) {
	return "released+" + id.Hex() + "@invalid", "released:" + id.Hex()
}
