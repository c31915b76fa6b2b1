package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"goclean/internal/config"
	"goclean/internal/models"
	"goclean/internal/repositories/interfaces"
	"goclean/internal/utils"
	"goclean/pkg/push"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the Mongo collections. Transactions
// are serialized and roll every collection back when fn fails.
type memStore struct {
	mu            sync.Mutex
	txMu          sync.Mutex
	users         map[primitive.ObjectID]*models.User
	pending       map[primitive.ObjectID]*models.PendingRegistration
	referrals     map[primitive.ObjectID]*models.Referral
	bookings      []*models.Booking
	notifications map[primitive.ObjectID]*models.Notification

	upsertPendingErr error
	incrementErr     error
	txCount          int
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[primitive.ObjectID]*models.User),
		pending:       make(map[primitive.ObjectID]*models.PendingRegistration),
		referrals:     make(map[primitive.ObjectID]*models.Referral),
		notifications: make(map[primitive.ObjectID]*models.Notification),
	}
}

type memSnapshot struct {
	users         map[primitive.ObjectID]models.User
	pending       map[primitive.ObjectID]models.PendingRegistration
	referrals     map[primitive.ObjectID]models.Referral
	notifications map[primitive.ObjectID]models.Notification
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		users:         make(map[primitive.ObjectID]models.User, len(s.users)),
		pending:       make(map[primitive.ObjectID]models.PendingRegistration, len(s.pending)),
		referrals:     make(map[primitive.ObjectID]models.Referral, len(s.referrals)),
		notifications: make(map[primitive.ObjectID]models.Notification, len(s.notifications)),
	}
	for k, v := range s.users {
		snap.users[k] = *v
	}
	for k, v := range s.pending {
		snap.pending[k] = *v
	}
	for k, v := range s.referrals {
		snap.referrals[k] = *v
	}
	for k, v := range s.notifications {
		snap.notifications[k] = *v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[primitive.ObjectID]*models.User, len(snap.users))
	for k, v := range snap.users {
		v := v
		s.users[k] = &v
	}
	s.pending = make(map[primitive.ObjectID]*models.PendingRegistration, len(snap.pending))
	for k, v := range snap.pending {
		v := v
		s.pending[k] = &v
	}
	s.referrals = make(map[primitive.ObjectID]*models.Referral, len(snap.referrals))
	for k, v := range snap.referrals {
		v := v
		s.referrals[k] = &v
	}
	s.notifications = make(map[primitive.ObjectID]*models.Notification, len(snap.notifications))
	for k, v := range snap.notifications {
		v := v
		s.notifications[k] = &v
	}
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.txCount++
	s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) user(id primitive.ObjectID) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		c := *u
		return &c
	}
	return nil
}

func (s *memStore) pendingFor(userID primitive.ObjectID) *models.PendingRegistration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[userID]; ok {
		c := *p
		return &c
	}
	return nil
}

func (s *memStore) referral(id primitive.ObjectID) *models.Referral {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.referrals[id]; ok {
		c := *r
		return &c
	}
	return nil
}

func (s *memStore) addUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	c := *u
	s.users[u.ID] = &c
}

func (s *memStore) addBooking(customerID primitive.ObjectID, status models.BookingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, &models.Booking{
		ID:         primitive.NewObjectID(),
		CustomerID: customerID,
		Status:     status,
	})
}

// memUserRepo mirrors the guarded updates of the Mongo repository.
type memUserRepo struct{ s *memStore }

func (r *memUserRepo) findLocked(match func(u *models.User) bool) *models.User {
	for _, u := range r.s.users {
		if !u.IsDeleted && match(u) {
			return u
		}
	}
	return nil
}

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.findLocked(func(u *models.User) bool { return u.Email == user.Email || u.Phone == user.Phone }) != nil {
		return interfaces.ErrDuplicateKey
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	c := *user
	r.s.users[user.ID] = &c
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u := r.findLocked(func(u *models.User) bool { return u.ID == id }); u != nil {
		c := *u
		return &c, nil
	}
	return nil, interfaces.ErrNotFound
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u := r.findLocked(func(u *models.User) bool { return u.Email == email }); u != nil {
		c := *u
		return &c, nil
	}
	return nil, interfaces.ErrNotFound
}

func (r *memUserRepo) FindByEmailOrPhone(ctx context.Context, email, phone string) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.User
	for _, u := range r.s.users {
		if !u.IsDeleted && (u.Email == email || u.Phone == phone) {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memUserRepo) RestartRegistration(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := r.findLocked(func(u *models.User) bool {
		return u.ID == user.ID && u.RegistrationStage == models.RegistrationStagePartial
	})
	if stored == nil {
		return interfaces.ErrNotFound
	}
	if r.findLocked(func(u *models.User) bool {
		return u.ID != user.ID && (u.Email == user.Email || u.Phone == user.Phone)
	}) != nil {
		return interfaces.ErrDuplicateKey
	}

	stored.UserName = user.UserName
	stored.Email = user.Email
	stored.Phone = user.Phone
	stored.Password = user.Password
	stored.ReferralCode = user.ReferralCode
	stored.Status = models.UserStatusInactive
	stored.IsEmailVerified = false
	stored.EmailVerificationOTP = user.EmailVerificationOTP
	stored.EmailVerificationOTPExpiry = user.EmailVerificationOTPExpiry
	stored.RegistrationOTP = ""
	stored.ResetPasswordOTP = ""
	stored.ResetPasswordOTPExpiry = nil
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	return nil
}

func (r *memUserRepo) ReleaseAbandoned(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.findLocked(func(u *models.User) bool {
		return u.ID == id && u.RegistrationStage == models.RegistrationStagePartial
	})
	if u == nil {
		return interfaces.ErrNotFound
	}
	u.Email, u.Phone = models.ReleasedContact(id)
	u.IsDeleted = true
	u.EmailVerificationOTP = ""
	u.EmailVerificationOTPExpiry = nil
	return nil
}

func (r *memUserRepo) SetOTP(ctx context.Context, id primitive.ObjectID, purpose models.OTPPurpose, code string, expiry time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.findLocked(func(u *models.User) bool { return u.ID == id })
	if u == nil {
		return interfaces.ErrNotFound
	}
	if purpose == models.OTPPurposePasswordReset {
		u.ResetPasswordOTP, u.ResetPasswordOTPExpiry = code, &expiry
	} else {
		u.EmailVerificationOTP, u.EmailVerificationOTPExpiry = code, &expiry
	}
	return nil
}

func (r *memUserRepo) SetRegistrationOTP(ctx context.Context, id primitive.ObjectID, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.findLocked(func(u *models.User) bool {
		return u.ID == id && u.RegistrationStage == models.RegistrationStageEmailVerified
	})
	if u == nil {
		return interfaces.ErrNotFound
	}
	u.RegistrationOTP = code
	return nil
}

func (r *memUserRepo) MarkEmailVerified(ctx context.Context, id primitive.ObjectID, verificationOTP string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.findLocked(func(u *models.User) bool {
		return u.ID == id && u.RegistrationStage == models.RegistrationStagePartial && u.EmailVerificationOTP == verificationOTP
	})
	if u == nil {
		return nil, interfaces.ErrNotFound
	}
	u.RegistrationStage = models.RegistrationStageEmailVerified
	u.IsEmailVerified = true
	u.RegistrationOTP = verificationOTP
	u.EmailVerificationOTP = ""
	u.EmailVerificationOTPExpiry = nil
	c := *u
	return &c, nil
}

func (r *memUserRepo) CompleteRegistration(ctx context.Context, id primitive.ObjectID, registrationOTP string, profile *models.ProfileCompletion) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.findLocked(func(u *models.User) bool {
		return u.ID == id && u.RegistrationStage == models.RegistrationStageEmailVerified && u.RegistrationOTP == registrationOTP
	})
	if u == nil {
		return nil, interfaces.ErrNotFound
	}
	u.Role = profile.Role
	u.Latitude = profile.Latitude
	u.Longitude = profile.Longitude
	u.ResultRange = profile.ResultRange
	u.Plan = profile.Plan
	u.Experience = profile.Experience
	u.Documents = profile.Documents
	u.RegistrationStage = models.RegistrationStageCompleted
	u.Status = models.UserStatusActive
	u.RegistrationOTP = ""
	u.EmailVerificationOTP = ""
	u.EmailVerificationOTPExpiry = nil
	u.ResetPasswordOTP = ""
	u.ResetPasswordOTPExpiry = nil
	c := *u
	return &c, nil
}

func (r *memUserRepo) ResetPassword(ctx context.Context, id primitive.ObjectID, resetOTP, hashedPassword string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.findLocked(func(u *models.User) bool { return u.ID == id && u.ResetPasswordOTP == resetOTP })
	if u == nil {
		return interfaces.ErrNotFound
	}
	u.Password = hashedPassword
	u.ResetPasswordOTP = ""
	u.ResetPasswordOTPExpiry = nil
	return nil
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.findLocked(func(u *models.User) bool { return u.ID == id })
	if u == nil {
		return interfaces.ErrNotFound
	}
	u.Password = hashedPassword
	return nil
}

func (r *memUserRepo) UpdateLoginInfo(ctx context.Context, id primitive.ObjectID, pushToken string, loginAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.findLocked(func(u *models.User) bool { return u.ID == id })
	if u == nil {
		return interfaces.ErrNotFound
	}
	u.LastLoginAt = &loginAt
	if pushToken != "" {
		u.PushToken = pushToken
	}
	return nil
}

func (r *memUserRepo) IncrementCredits(ctx context.Context, id primitive.ObjectID, delta int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.incrementErr != nil {
		return r.s.incrementErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	u.Credits += delta
	return nil
}

type memPendingRepo struct{ s *memStore }

func (r *memPendingRepo) Create(ctx context.Context, pending *models.PendingRegistration) error {
	return r.Upsert(ctx, pending)
}

func (r *memPendingRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.PendingRegistration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.pending[userID]; ok {
		c := *p
		return &c, nil
	}
	return nil, interfaces.ErrNotFound
}

func (r *memPendingRepo) FindByEmailOrPhone(ctx context.Context, email, phone string) ([]*models.PendingRegistration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.PendingRegistration
	for _, p := range r.s.pending {
		if p.Email == email || p.Phone == phone {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memPendingRepo) Upsert(ctx context.Context, pending *models.PendingRegistration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.upsertPendingErr != nil {
		return r.s.upsertPendingErr
	}
	c := *pending
	r.s.pending[pending.UserID] = &c
	return nil
}

func (r *memPendingRepo) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.pending, userID)
	return nil
}

type memReferralRepo struct{ s *memStore }

func (r *memReferralRepo) find(match func(ref *models.Referral) bool) (*models.Referral, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ref := range r.s.referrals {
		if match(ref) {
			c := *ref
			return &c, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *memReferralRepo) GetByRefereeID(ctx context.Context, refereeID primitive.ObjectID) (*models.Referral, error) {
	return r.find(func(ref *models.Referral) bool { return ref.RefereeID == refereeID })
}

func (r *memReferralRepo) GetPendingByRefereeID(ctx context.Context, refereeID primitive.ObjectID) (*models.Referral, error) {
	return r.find(func(ref *models.Referral) bool {
		return ref.RefereeID == refereeID && ref.Status == models.ReferralStatusPending
	})
}

func (r *memReferralRepo) SaveProgress(ctx context.Context, referral *models.Referral, expected models.ReferralFlags) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.referrals[referral.ID]
	if !ok || stored.Status != models.ReferralStatusPending || stored.Flags() != expected ||
		stored.CompletedBookingsCount > referral.CompletedBookingsCount {
		return interfaces.ErrNotFound
	}
	c := *referral
	r.s.referrals[referral.ID] = &c
	return nil
}

type memBookingRepo struct {
	s   *memStore
	err error
}

func (r *memBookingRepo) CountCompletedByCustomer(ctx context.Context, customerID primitive.ObjectID) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, b := range r.s.bookings {
		if b.CustomerID == customerID && b.Status == models.BookingStatusCompleted {
			n++
		}
	}
	return n, nil
}

type memNotificationRepo struct {
	s   *memStore
	err error
}

func (r *memNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	c := *n
	r.s.notifications[n.ID] = &c
	return nil
}

func (r *memNotificationRepo) forRecipient(recipientID primitive.ObjectID) []*models.Notification {
	var out []*models.Notification
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memNotificationRepo) GetByRecipient(ctx context.Context, recipientID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.forRecipient(recipientID)
	start := int(params.GetSkip())
	if start > len(all) {
		start = len(all)
	}
	end := start + int(params.GetLimit())
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *memNotificationRepo) GetUnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, item := range r.forRecipient(recipientID) {
		if !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *memNotificationRepo) MarkAsRead(ctx context.Context, id, recipientID primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return false, nil
	}
	now := time.Now()
	n.IsRead, n.ReadAt = true, &now
	return true, nil
}

func (r *memNotificationRepo) MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	now := time.Now()
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead, n.ReadAt = true, &now
			count++
		}
	}
	return count, nil
}

func (r *memNotificationRepo) Delete(ctx context.Context, id, recipientID primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return false, nil
	}
	delete(r.s.notifications, id)
	return true, nil
}

type sentEmail struct {
	Kind string
	To   string
	Code string
}

type fakeEmailService struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmailService) record(kind, to, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{Kind: kind, To: to, Code: code})
	return f.err
}

func (f *fakeEmailService) SendVerificationEmail(ctx context.Context, to, name, code string, ttl time.Duration) error {
	return f.record("verification", to, code)
}

func (f *fakeEmailService) SendWelcomeEmail(ctx context.Context, to, name string) error {
	return f.record("welcome", to, "")
}

func (f *fakeEmailService) SendPasswordResetEmail(ctx context.Context, to, name, code string, ttl time.Duration) error {
	return f.record("reset", to, code)
}

func (f *fakeEmailService) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.sent {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type fakeSMSService struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (f *fakeSMSService) SendPasswordResetOTP(ctx context.Context, phone, code string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
	return f.err
}

type fakeDocumentService struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeDocumentService) UploadDocuments(ctx context.Context, userID primitive.ObjectID, uploads *DocumentUploads) models.DocumentURLs {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if uploads == nil || uploads.ProfilePicture == nil {
		return models.DocumentURLs{}
	}
	return models.DocumentURLs{ProfilePicture: "https://cdn.test/" + uploads.ProfilePicture.Filename}
}

type publishedEvent struct {
	UserID primitive.ObjectID
	Event  string
	Data   interface{}
}

type fakeRealtime struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakeRealtime) PublishToUser(ctx context.Context, userID primitive.ObjectID, event string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{UserID: userID, Event: event, Data: data})
	return f.err
}

type fakePush struct {
	mu       sync.Mutex
	requests []*push.NotificationRequest
	err      error
}

func (f *fakePush) SendNotification(ctx context.Context, request *push.NotificationRequest) (*push.NotificationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, request)
	if f.err != nil {
		return nil, f.err
	}
	return &push.NotificationResponse{Success: true, Token: request.Token}, nil
}

type fakeEventPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (f *fakeEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

var errStoreDown = errors.New("store unavailable")

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:         "test-secret",
		JWTAccessTokenTTL: time.Hour,
		BcryptCost:        4,
	}
}

func testRegistrationConfig() *config.RegistrationConfig {
	return &config.RegistrationConfig{
		OTPLength:              6,
		VerificationOTPTTL:     10 * time.Minute,
		ResetOTPTTL:            15 * time.Minute,
		PendingRegistrationTTL: 15 * time.Minute,
		ExposeOTP:              true,
	}
}

func testReferralConfig() *config.ReferralConfig {
	return &config.ReferralConfig{
		FirstBookingCredits: 10,
		BonusTierCredits:    5,
		BonusTierThreshold:  3,
	}
}
