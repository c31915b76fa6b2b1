package services

import (
	"context"
	"fmt"
	"time"

	"goclean/internal/config"
	"goclean/internal/models"
	"goclean/internal/repositories/interfaces"
	"goclean/internal/utils"
	"goclean/pkg/events"
	"goclean/pkg/logger"
	"goclean/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralService interface {
	// ProcessReward re-evaluates the pending referral of customerID after a
	// booking completes. It never fails the caller; errors are logged.
	ProcessReward(ctx context.Context, customerID primitive.ObjectID)
	GetProgress(ctx context.Context, refereeID primitive.ObjectID) (*models.ReferralProgress, error)
}

type rewardAward struct {
	Type    models.ReferralRewardType
	Credits int64
}

type referralService struct {
	txManager           interfaces.TransactionManager
	referralRepo        interfaces.ReferralRepository
	bookingRepo         interfaces.BookingRepository
	userRepo            interfaces.UserRepository
	notificationService NotificationService
	eventPublisher      events.Publisher
	rewardSubject       string
	config              *config.ReferralConfig
	logger              *logger.Logger
	now                 func() time.Time
}

// NewReferralService builds the reward engine. notificationService and
// eventPublisher may be nil.
func NewReferralService(
	txManager interfaces.TransactionManager,
	referralRepo interfaces.ReferralRepository,
	bookingRepo interfaces.BookingRepository,
	userRepo interfaces.UserRepository,
	notificationService NotificationService,
	eventPublisher events.Publisher,
	rewardSubject string,
	cfg *config.ReferralConfig,
	log *logger.Logger,
) ReferralService {
	return &referralService{
		txManager:           txManager,
		referralRepo:        referralRepo,
		bookingRepo:         bookingRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
		eventPublisher:      eventPublisher,
		rewardSubject:       rewardSubject,
		config:              cfg,
		logger:              log,
		now:                 time.Now,
	}
}

func (s *referralService) ProcessReward(ctx context.Context, customerID primitive.ObjectID) {
	log := s.logger.WithContext(ctx).WithField("customer_id", customerID.Hex())

	var (
		referral *models.Referral
		awards   []rewardAward
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// The body may be retried on transient transaction errors.
		referral, awards = nil, nil

		current, err := s.referralRepo.GetPendingByRefereeID(txCtx, customerID)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}

		count, err := s.bookingRepo.CountCompletedByCustomer(txCtx, customerID)
		if err != nil {
			return err
		}

		next, granted, changed := applyRewardTiers(*current, count, s.config, s.now())
		if !changed {
			return nil
		}

		if err := s.referralRepo.SaveProgress(txCtx, &next, current.Flags()); err != nil {
			if isNotFound(err) {
				// A concurrent run already moved this referral on.
				return nil
			}
			return err
		}

		var total int64
		for _, award := range granted {
			total += award.Credits
		}
		if total > 0 {
			if err := s.userRepo.IncrementCredits(txCtx, next.ReferrerID, total); err != nil {
				return fmt.Errorf("failed to credit referrer: %w", err)
			}
		}

		referral, awards = &next, granted
		return nil
	})
	if err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("reward").Inc()
		log.WithError(err).Error("Failed to process referral reward")
		return
	}
	if referral == nil {
		return
	}

	for _, award := range awards {
		metrics.ReferralCreditsTotal.WithLabelValues(string(award.Type)).Add(float64(award.Credits))
		s.logger.LogReferralEvent(referral.ID, utils.EventReferralRewardAwarded, map[string]interface{}{
			"referrer_id":    referral.ReferrerID.Hex(),
			"referee_id":     referral.RefereeID.Hex(),
			"reward_type":    award.Type,
			"credits_earned": award.Credits,
		})
		s.announce(ctx, referral, award)
	}

	if referral.Status == models.ReferralStatusCompleted && len(awards) > 0 {
		s.logger.LogReferralEvent(referral.ID, utils.EventReferralCompleted, map[string]interface{}{
			"credits_earned": referral.CreditsEarned,
		})
	}
}

// applyRewardTiers computes the next ledger state for a completed-booking
// count. Tier one pays only when the count is exactly one; tier two requires
// tier one. The stored count never decreases.
func applyRewardTiers(referral models.Referral, count int64, cfg *config.ReferralConfig, now time.Time) (models.Referral, []rewardAward, bool) {
	var awards []rewardAward
	changed := false

	if count > referral.CompletedBookingsCount {
		referral.CompletedBookingsCount = count
		changed = true
	}

	if count == 1 && !referral.FirstBookingCreditAwarded {
		referral.FirstBookingCreditAwarded = true
		referral.CreditsEarned += cfg.FirstBookingCredits
		awards = append(awards, rewardAward{Type: models.ReferralRewardFirstBooking, Credits: cfg.FirstBookingCredits})
		changed = true
	}

	if count >= cfg.BonusTierThreshold && !referral.BonusTierCreditAwarded && referral.FirstBookingCreditAwarded {
		referral.BonusTierCreditAwarded = true
		referral.CreditsEarned += cfg.BonusTierCredits
		awards = append(awards, rewardAward{Type: models.ReferralRewardBonusTier, Credits: cfg.BonusTierCredits})
		changed = true
	}

	if referral.FirstBookingCreditAwarded && referral.BonusTierCreditAwarded && referral.Status != models.ReferralStatusCompleted {
		referral.Status = models.ReferralStatusCompleted
		completedAt := now
		referral.CompletedAt = &completedAt
		changed = true
	}

	return referral, awards, changed
}

func (s *referralService) announce(ctx context.Context, referral *models.Referral, award rewardAward) {
	message := fmt.Sprintf("You earned %d credits because %s completed their first booking!", award.Credits, referral.RefereeName)
	if award.Type == models.ReferralRewardBonusTier {
		message = fmt.Sprintf("You earned %d bonus credits because %s completed %d bookings!", award.Credits, referral.RefereeName, s.config.BonusTierThreshold)
	}

	notifyBestEffort(ctx, s.notificationService, s.logger, &CreateNotificationRequest{
		RecipientID: referral.ReferrerID,
		Type:        models.NotificationTypeReferralRewardEarned,
		Title:       "Referral Reward Earned!",
		Message:     message,
		Data: map[string]interface{}{
			"creditsEarned": award.Credits,
			"refereeId":     referral.RefereeID.Hex(),
			"refereeName":   referral.RefereeName,
			"rewardType":    string(award.Type),
		},
	})

	if s.eventPublisher == nil || s.rewardSubject == "" {
		return
	}
	err := s.eventPublisher.Publish(ctx, s.rewardSubject, &events.RewardEarnedEvent{
		ReferralID:    referral.ID.Hex(),
		ReferrerID:    referral.ReferrerID.Hex(),
		RefereeID:     referral.RefereeID.Hex(),
		RewardType:    string(award.Type),
		CreditsEarned: award.Credits,
		EarnedAt:      s.now(),
	})
	if err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("event").Inc()
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to publish reward event")
	}
}

func (s *referralService) GetProgress(ctx context.Context, refereeID primitive.ObjectID) (*models.ReferralProgress, error) {
	referral, err := s.referralRepo.GetByRefereeID(ctx, refereeID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, utils.NewInternalError("failed to load referral progress", err)
	}

	progress := &models.ReferralProgress{
		HasReferrer:              true,
		CompletedBookings:        referral.CompletedBookingsCount,
		FirstBookingRewardEarned: referral.FirstBookingCreditAwarded,
		BonusTierRewardEarned:    referral.BonusTierCreditAwarded,
	}

	switch {
	case !referral.FirstBookingCreditAwarded:
		at, amount := int64(1), s.config.FirstBookingCredits
		progress.NextRewardAt, progress.NextRewardAmount = &at, &amount
	case !referral.BonusTierCreditAwarded:
		at, amount := s.config.BonusTierThreshold, s.config.BonusTierCredits
		progress.NextRewardAt, progress.NextRewardAmount = &at, &amount
	}

	return progress, nil
}
