package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"goclean/internal/models"
	"goclean/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection("users"),
	}
}

// visible adds the soft-delete guard to filter.
func visible(filter bson.M) bson.M {
	filter["is_deleted"] = bson.M{"$ne": true}
	return filter
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to create user: %w", interfaces.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) ([]*models.User, error) {
	filter := visible(bson.M{
		"$or": []bson.M{
			{"email": email},
			{"phone": phone},
		},
	})

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	return users, nil
}

func (r *userRepository) RestartRegistration(ctx context.Context, user *models.User) error {
	now := time.Now()
	filter := visible(bson.M{
		"_id":                user.ID,
		"registration_stage": models.RegistrationStagePartial,
	})
	update := bson.M{
		"$set": bson.M{
			"user_name":                     user.UserName,
			"email":                         user.Email,
			"phone":                         user.Phone,
			"password":                      user.Password,
			"referral_code":                 user.ReferralCode,
			"status":                        models.UserStatusInactive,
			"is_email_verified":             false,
			"email_verification_otp":        user.EmailVerificationOTP,
			"email_verification_otp_expiry": user.EmailVerificationOTPExpiry,
			"created_at":                    now,
			"updated_at":                    now,
		},
		"$unset": bson.M{
			"registration_otp":          "",
			"reset_password_otp":        "",
			"reset_password_otp_expiry": "",
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to restart registration: %w", interfaces.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to restart registration: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *userRepository) ReleaseAbandoned(ctx context.Context, id primitive.ObjectID) error {
	email, phone := models.ReleasedContact(id)
	filter := visible(bson.M{
		"_id":                id,
		"registration_stage": models.RegistrationStagePartial,
	})
	update := bson.M{
		"$set": bson.M{
			"email":      email,
			"phone":      phone,
			"is_deleted": true,
			"updated_at": time.Now(),
		},
		"$unset": bson.M{
			"email_verification_otp":        "",
			"email_verification_otp_expiry": "",
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release identity: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *userRepository) SetOTP(ctx context.Context, id primitive.ObjectID, purpose models.OTPPurpose, code string, expiry time.Time) error {
	codeField, expiryField := "email_verification_otp", "email_verification_otp_expiry"
	if purpose == models.OTPPurposePasswordReset {
		codeField, expiryField = "reset_password_otp", "reset_password_otp_expiry"
	}

	result, err := r.collection.UpdateOne(ctx,
		visible(bson.M{"_id": id}),
		bson.M{"$set": bson.M{
			codeField:    code,
			expiryField:  expiry,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set otp: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *userRepository) SetRegistrationOTP(ctx context.Context, id primitive.ObjectID, code string) error {
	result, err := r.collection.UpdateOne(ctx,
		visible(bson.M{"_id": id, "registration_stage": models.RegistrationStageEmailVerified}),
		bson.M{"$set": bson.M{
			"registration_otp": code,
			"updated_at":       time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set registration otp: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *userRepository) MarkEmailVerified(ctx context.Context, id primitive.ObjectID, verificationOTP string) (*models.User, error) {
	filter := visible(bson.M{
		"_id":                    id,
		"registration_stage":     models.RegistrationStagePartial,
		"email_verification_otp": verificationOTP,
	})
	update := bson.M{
		"$set": bson.M{
			"registration_stage": models.RegistrationStageEmailVerified,
			"is_email_verified":  true,
			"registration_otp":   verificationOTP,
			"updated_at":         time.Now(),
		},
		"$unset": bson.M{
			"email_verification_otp":        "",
			"email_verification_otp_expiry": "",
		},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *userRepository) CompleteRegistration(ctx context.Context, id primitive.ObjectID, registrationOTP string, profile *models.ProfileCompletion) (*models.User, error) {
	filter := visible(bson.M{
		"_id":                id,
		"registration_stage": models.RegistrationStageEmailVerified,
		"registration_otp":   registrationOTP,
	})

	set := bson.M{
		"role":               profile.Role,
		"result_range":       profile.ResultRange,
		"plan":               profile.Plan,
		"experience":         profile.Experience,
		"documents":          profile.Documents,
		"registration_stage": models.RegistrationStageCompleted,
		"status":             models.UserStatusActive,
		"updated_at":         time.Now(),
	}
	if profile.Latitude != nil {
		set["latitude"] = *profile.Latitude
	}
	if profile.Longitude != nil {
		set["longitude"] = *profile.Longitude
	}

	update := bson.M{
		"$set": set,
		"$unset": bson.M{
			"registration_otp":              "",
			"email_verification_otp":        "",
			"email_verification_otp_expiry": "",
			"reset_password_otp":            "",
			"reset_password_otp_expiry":     "",
		},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *userRepository) ResetPassword(ctx context.Context, id primitive.ObjectID, resetOTP, hashedPassword string) error {
	result, err := r.collection.UpdateOne(ctx,
		visible(bson.M{"_id": id, "reset_password_otp": resetOTP}),
		bson.M{
			"$set": bson.M{
				"password":   hashedPassword,
				"updated_at": time.Now(),
			},
			"$unset": bson.M{
				"reset_password_otp":        "",
				"reset_password_otp_expiry": "",
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error {
	result, err := r.collection.UpdateOne(ctx,
		visible(bson.M{"_id": id}),
		bson.M{"$set": bson.M{
			"password":   hashedPassword,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *userRepository) UpdateLoginInfo(ctx context.Context, id primitive.ObjectID, pushToken string, loginAt time.Time) error {
	set := bson.M{
		"last_login_at": loginAt,
		"updated_at":    time.Now(),
	}
	if pushToken != "" {
		set["push_token"] = pushToken
	}

	if _, err := r.collection.UpdateOne(ctx, visible(bson.M{"_id": id}), bson.M{"$set": set}); err != nil {
		return fmt.Errorf("failed to update login info: %w", err)
	}

	return nil
}

// IncrementCredits applies delta with $inc so concurrent grants never overwrite
// each other.
func (r *userRepository) IncrementCredits(ctx context.Context, id primitive.ObjectID, delta int64) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"credits": delta},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment credits: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, visible(filter)).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return &user, nil
}
