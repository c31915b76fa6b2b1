package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"goclean/internal/models"
	"goclean/internal/repositories/interfaces"
	"goclean/pkg/events"
	"goclean/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type referralFixture struct {
	store     *memStore
	svc       *referralService
	bookings  *memBookingRepo
	notes     *memNotificationRepo
	realtime  *fakeRealtime
	push      *fakePush
	publisher *fakeEventPublisher
	clock     time.Time

	referrer   *models.User
	referee    *models.User
	referralID primitive.ObjectID
}

func newReferralFixture(t *testing.T) *referralFixture {
	t.Helper()

	f := &referralFixture{
		store:     newMemStore(),
		realtime:  &fakeRealtime{},
		push:      &fakePush{},
		publisher: &fakeEventPublisher{},
		clock:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.bookings = &memBookingRepo{s: f.store}
	f.notes = &memNotificationRepo{s: f.store}

	f.referrer = &models.User{UserName: "Referrer", Email: "ref@x.com", Status: models.UserStatusActive, PushToken: "referrer-device"}
	f.referee = &models.User{UserName: "Bob", Email: "bob@x.com", Status: models.UserStatusActive}
	f.store.addUser(f.referrer)
	f.store.addUser(f.referee)

	f.referralID = primitive.NewObjectID()
	f.store.mu.Lock()
	f.store.referrals[f.referralID] = &models.Referral{
		ID:          f.referralID,
		ReferrerID:  f.referrer.ID,
		RefereeID:   f.referee.ID,
		RefereeName: f.referee.UserName,
		Status:      models.ReferralStatusPending,
	}
	f.store.mu.Unlock()

	userRepo := &memUserRepo{s: f.store}
	notifications := NewNotificationService(f.notes, userRepo, f.realtime, f.push, logger.NewDiscardLogger())

	f.svc = NewReferralService(
		f.store,
		&memReferralRepo{s: f.store},
		f.bookings,
		userRepo,
		notifications,
		f.publisher,
		"referrals.reward_earned",
		testReferralConfig(),
		logger.NewDiscardLogger(),
	).(*referralService)
	f.svc.now = func() time.Time { return f.clock }

	return f
}

func (f *referralFixture) complete(n int) {
	for i := 0; i < n; i++ {
		f.store.addBooking(f.referee.ID, models.BookingStatusCompleted)
	}
}

func (f *referralFixture) credits() int64 {
	return f.store.user(f.referrer.ID).Credits
}

func (f *referralFixture) notificationCount() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.notifications)
}

func TestProcessRewardPaysBothTiers(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	f.store.addBooking(f.referee.ID, models.BookingStatusCancelled)
	f.complete(1)
	f.svc.ProcessReward(ctx, f.referee.ID)

	ref := f.store.referral(f.referralID)
	if !ref.FirstBookingCreditAwarded || ref.BonusTierCreditAwarded {
		t.Fatalf("unexpected flags after first booking: %+v", ref.Flags())
	}
	if ref.CompletedBookingsCount != 1 || ref.CreditsEarned != 10 || ref.Status != models.ReferralStatusPending {
		t.Fatalf("unexpected ledger after first booking: %+v", ref)
	}
	if f.credits() != 10 {
		t.Fatalf("expected referrer balance 10, got %d", f.credits())
	}

	f.complete(2)
	f.svc.ProcessReward(ctx, f.referee.ID)

	ref = f.store.referral(f.referralID)
	if !ref.BonusTierCreditAwarded || ref.Status != models.ReferralStatusCompleted {
		t.Fatalf("expected completed referral, got %+v", ref)
	}
	if ref.CompletedAt == nil || !ref.CompletedAt.Equal(f.clock) {
		t.Errorf("unexpected completion time %v", ref.CompletedAt)
	}
	if ref.CreditsEarned != 15 || f.credits() != 15 {
		t.Fatalf("expected 15 credits on both sides, got ledger %d balance %d", ref.CreditsEarned, f.credits())
	}

	if f.notificationCount() != 2 {
		t.Errorf("expected one notification per tier, got %d", f.notificationCount())
	}
	if len(f.realtime.events) != 2 || f.realtime.events[0].UserID != f.referrer.ID {
		t.Errorf("expected live events for the referrer, got %+v", f.realtime.events)
	}
	if len(f.push.requests) != 2 || f.push.requests[0].Token != "referrer-device" {
		t.Errorf("expected pushes to the referrer device, got %d", len(f.push.requests))
	}
	if len(f.publisher.subjects) != 2 || f.publisher.subjects[0] != "referrals.reward_earned" {
		t.Fatalf("expected two reward events, got %v", f.publisher.subjects)
	}
	bonus := f.publisher.payloads[1].(*events.RewardEarnedEvent)
	if bonus.RewardType != string(models.ReferralRewardBonusTier) || bonus.CreditsEarned != 5 {
		t.Errorf("unexpected bonus event %+v", bonus)
	}
}

func TestProcessRewardIsIdempotent(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	f.complete(1)
	f.svc.ProcessReward(ctx, f.referee.ID)
	f.svc.ProcessReward(ctx, f.referee.ID)

	if f.credits() != 10 || f.notificationCount() != 1 {
		t.Fatalf("rerun paid twice: balance %d notifications %d", f.credits(), f.notificationCount())
	}

	f.complete(2)
	f.svc.ProcessReward(ctx, f.referee.ID)
	f.complete(1)
	f.svc.ProcessReward(ctx, f.referee.ID)

	if f.credits() != 15 || f.notificationCount() != 2 {
		t.Fatalf("completed referral paid again: balance %d notifications %d", f.credits(), f.notificationCount())
	}
	if f.store.referral(f.referralID).CompletedBookingsCount != 3 {
		t.Error("completed referral must not be touched")
	}
}

func TestProcessRewardSkipsFirstTierWhenCountJumps(t *testing.T) {
	f := newReferralFixture(t)

	f.complete(4)
	f.svc.ProcessReward(context.Background(), f.referee.ID)

	ref := f.store.referral(f.referralID)
	if ref.FirstBookingCreditAwarded || ref.BonusTierCreditAwarded {
		t.Fatalf("no tier may be paid when the first completion was missed: %+v", ref.Flags())
	}
	if ref.CompletedBookingsCount != 4 {
		t.Errorf("count must still be recorded, got %d", ref.CompletedBookingsCount)
	}
	if f.credits() != 0 || f.notificationCount() != 0 {
		t.Error("nothing may be credited")
	}
}

func TestProcessRewardWithoutReferral(t *testing.T) {
	f := newReferralFixture(t)
	stranger := &models.User{UserName: "Stranger"}
	f.store.addUser(stranger)
	f.store.addBooking(stranger.ID, models.BookingStatusCompleted)

	f.svc.ProcessReward(context.Background(), stranger.ID)

	if f.credits() != 0 || f.notificationCount() != 0 || len(f.publisher.subjects) != 0 {
		t.Error("customers without a referral must not trigger rewards")
	}
}

func TestProcessRewardRollsBackWhenCreditFails(t *testing.T) {
	f := newReferralFixture(t)
	f.store.incrementErr = errStoreDown

	f.complete(1)
	f.svc.ProcessReward(context.Background(), f.referee.ID)

	ref := f.store.referral(f.referralID)
	if ref.FirstBookingCreditAwarded || ref.CreditsEarned != 0 || ref.CompletedBookingsCount != 0 {
		t.Fatalf("ledger must roll back with the failed credit: %+v", ref)
	}
	if f.notificationCount() != 0 || len(f.publisher.subjects) != 0 {
		t.Error("no announcement may follow a rolled back reward")
	}

	f.store.incrementErr = nil
	f.svc.ProcessReward(context.Background(), f.referee.ID)
	if f.credits() != 10 {
		t.Fatalf("retry should pay the first tier, got %d", f.credits())
	}
}

func TestProcessRewardIgnoresCountFailure(t *testing.T) {
	f := newReferralFixture(t)
	f.bookings.err = errStoreDown

	f.complete(1)
	f.svc.ProcessReward(context.Background(), f.referee.ID)

	if f.store.referral(f.referralID).FirstBookingCreditAwarded {
		t.Error("nothing may change when bookings cannot be counted")
	}
}

func TestProcessRewardSurvivesNotificationFailure(t *testing.T) {
	f := newReferralFixture(t)
	f.notes.err = errStoreDown

	f.complete(1)
	f.svc.ProcessReward(context.Background(), f.referee.ID)

	if f.credits() != 10 {
		t.Fatalf("credit must stand when the notification fails, got %d", f.credits())
	}
	if len(f.publisher.subjects) != 1 {
		t.Error("reward event should still be published")
	}
}

func TestProcessRewardConcurrentRunsPayOnce(t *testing.T) {
	f := newReferralFixture(t)
	f.complete(1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.ProcessReward(context.Background(), f.referee.ID)
		}()
	}
	wg.Wait()

	if f.credits() != 10 {
		t.Fatalf("expected exactly one first-tier payout, got balance %d", f.credits())
	}
	if f.notificationCount() != 1 {
		t.Errorf("expected one notification, got %d", f.notificationCount())
	}
}

// staleReferralRepo lets a test move the stored ledger between the read and
// the guarded save of a reward run.
type staleReferralRepo struct {
	interfaces.ReferralRepository
	beforeSave func()
}

func (r *staleReferralRepo) SaveProgress(ctx context.Context, referral *models.Referral, expected models.ReferralFlags) error {
	r.beforeSave()
	return r.ReferralRepository.SaveProgress(ctx, referral, expected)
}

func TestProcessRewardNeverLowersStoredCount(t *testing.T) {
	f := newReferralFixture(t)
	f.complete(1)

	f.svc.referralRepo = &staleReferralRepo{
		ReferralRepository: &memReferralRepo{s: f.store},
		beforeSave: func() {
			f.store.mu.Lock()
			f.store.referrals[f.referralID].CompletedBookingsCount = 3
			f.store.mu.Unlock()
		},
	}

	f.svc.ProcessReward(context.Background(), f.referee.ID)

	ref := f.store.referral(f.referralID)
	if ref.CompletedBookingsCount != 3 {
		t.Fatalf("stale run overwrote the stored count: got %d, want 3", ref.CompletedBookingsCount)
	}
	if f.credits() != 0 {
		t.Errorf("stale run must not pay, got balance %d", f.credits())
	}
}

func TestApplyRewardTiers(t *testing.T) {
	cfg := testReferralConfig()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		start       models.Referral
		count       int64
		wantAwards  []models.ReferralRewardType
		wantCount   int64
		wantCredits int64
		wantStatus  models.ReferralStatus
		wantChanged bool
	}{
		{
			name:        "no bookings",
			start:       models.Referral{Status: models.ReferralStatusPending},
			count:       0,
			wantStatus:  models.ReferralStatusPending,
			wantChanged: false,
		},
		{
			name:        "first booking",
			start:       models.Referral{Status: models.ReferralStatusPending},
			count:       1,
			wantAwards:  []models.ReferralRewardType{models.ReferralRewardFirstBooking},
			wantCount:   1,
			wantCredits: 10,
			wantStatus:  models.ReferralStatusPending,
			wantChanged: true,
		},
		{
			name:        "below bonus threshold",
			start:       models.Referral{Status: models.ReferralStatusPending, FirstBookingCreditAwarded: true, CompletedBookingsCount: 1, CreditsEarned: 10},
			count:       2,
			wantCount:   2,
			wantCredits: 10,
			wantStatus:  models.ReferralStatusPending,
			wantChanged: true,
		},
		{
			name:        "bonus threshold reached",
			start:       models.Referral{Status: models.ReferralStatusPending, FirstBookingCreditAwarded: true, CompletedBookingsCount: 2, CreditsEarned: 10},
			count:       3,
			wantAwards:  []models.ReferralRewardType{models.ReferralRewardBonusTier},
			wantCount:   3,
			wantCredits: 15,
			wantStatus:  models.ReferralStatusCompleted,
			wantChanged: true,
		},
		{
			name:        "jump past first booking",
			start:       models.Referral{Status: models.ReferralStatusPending},
			count:       5,
			wantCount:   5,
			wantStatus:  models.ReferralStatusPending,
			wantChanged: true,
		},
		{
			name:        "stale lower count",
			start:       models.Referral{Status: models.ReferralStatusPending, FirstBookingCreditAwarded: true, CompletedBookingsCount: 2, CreditsEarned: 10},
			count:       1,
			wantCount:   2,
			wantCredits: 10,
			wantStatus:  models.ReferralStatusPending,
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, awards, changed := applyRewardTiers(tt.start, tt.count, cfg, now)

			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if len(awards) != len(tt.wantAwards) {
				t.Fatalf("awards = %+v, want %v", awards, tt.wantAwards)
			}
			for i, award := range awards {
				if award.Type != tt.wantAwards[i] {
					t.Errorf("award %d = %s, want %s", i, award.Type, tt.wantAwards[i])
				}
			}
			if next.CompletedBookingsCount != tt.wantCount {
				t.Errorf("count = %d, want %d", next.CompletedBookingsCount, tt.wantCount)
			}
			if next.CreditsEarned != tt.wantCredits {
				t.Errorf("credits = %d, want %d", next.CreditsEarned, tt.wantCredits)
			}
			if next.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", next.Status, tt.wantStatus)
			}
		})
	}
}

func TestGetProgress(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	progress, err := f.svc.GetProgress(ctx, primitive.NewObjectID())
	if err != nil || progress != nil {
		t.Fatalf("expected no progress for unreferred customer, got %+v, %v", progress, err)
	}

	progress, err = f.svc.GetProgress(ctx, f.referee.ID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if !progress.HasReferrer || *progress.NextRewardAt != 1 || *progress.NextRewardAmount != 10 {
		t.Errorf("unexpected initial progress %+v", progress)
	}

	f.complete(1)
	f.svc.ProcessReward(ctx, f.referee.ID)
	progress, _ = f.svc.GetProgress(ctx, f.referee.ID)
	if *progress.NextRewardAt != 3 || *progress.NextRewardAmount != 5 {
		t.Errorf("expected bonus tier next, got %d/%d", *progress.NextRewardAt, *progress.NextRewardAmount)
	}

	f.complete(2)
	f.svc.ProcessReward(ctx, f.referee.ID)
	progress, _ = f.svc.GetProgress(ctx, f.referee.ID)
	if progress.NextRewardAt != nil || progress.NextRewardAmount != nil || progress.CompletedBookings != 3 {
		t.Errorf("expected finished progress, got %+v", progress)
	}
}
