package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/warranty-tracker/internal/lib/clock"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/warranty"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindExpiringOn(ctx context.Context, q models.ExpiringQuery) ([]models.ExpiringWarranty, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ExpiringWarranty), args.Error(1)
}

func (m *MockRepository) RecordNotification(ctx context.Context, rec models.NotificationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRepository) ListCustomDays(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, message any) error {
	args := m.Called(ctx, routingKey, message)
	return args.Error(0)
}

// countingRecorder считает исходы по типам уведомлений.
type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) ObserveNotification(notificationType, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[notificationType+"/"+outcome]++
}

func forPass(nt models.NotificationType, days int) any {
	return mock.MatchedBy(func(q models.ExpiringQuery) bool {
		return q.Type == nt && q.DaysBeforeExpiry == days
	})
}

func newScheduler(repo *MockRepository, pub *MockPublisher, rec Recorder) *SchedulerService {
	calc := warranty.NewCalculator(clock.NewFixed(testNow))
	return NewSchedulerService(repo, pub, calc, rec, newNoopLogger(), "warranty.expiry")
}

func TestSchedulerService_PublishesReminder(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	rec := &countingRecorder{}

	candidate := models.ExpiringWarranty{
		WarrantyID:   "w-1",
		UserID:       "user-1",
		Email:        "user@example.com",
		EmailEnabled: true,
		ProductName:  "Dishwasher",
		Type:         models.TypeManufacturer,
		ExpiryDate:   date(2024, 6, 17),
	}

	repo.On("ListCustomDays", mock.Anything).Return([]int{}, nil).Once()
	repo.On("FindExpiringOn", mock.Anything, mock.MatchedBy(func(q models.ExpiringQuery) bool {
		return q.Type == models.NotificationExpiry7Days &&
			q.From.Equal(date(2024, 6, 17)) && q.To.Equal(date(2024, 6, 18)) && q.Now.Equal(testNow)
	})).Return([]models.ExpiringWarranty{candidate}, nil).Once()
	repo.On("FindExpiringOn", mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("RecordNotification", mock.Anything, mock.MatchedBy(func(r models.NotificationRecord) bool {
		return r.WarrantyID == "w-1" && r.Status == models.NotificationSent &&
			r.Type == models.NotificationExpiry7Days && r.DaysBeforeExpiry == 7 &&
			r.SentAt != nil && r.SentAt.Equal(testNow) && r.ScheduledFor.Equal(date(2024, 6, 10)) &&
			r.ID != ""
	})).Return(nil).Once()

	pub.On("Publish", mock.Anything, "warranty.expiry", models.NotificationEvent{
		WarrantyID:       "w-1",
		UserID:           "user-1",
		Email:            "user@example.com",
		EmailEnabled:     true,
		ProductName:      "Dishwasher",
		Type:             models.NotificationExpiry7Days,
		DaysBeforeExpiry: 7,
		ExpiryDate:       date(2024, 6, 17),
	}).Return(nil).Once()

	res, ok, err := newScheduler(repo, pub, rec).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Result{Candidates: 1, Published: 1}, res)
	assert.Equal(t, 1, rec.counts["EXPIRY_7_DAYS/published"])

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
	// 90, 30, 7, 1 и EXPIRED
	repo.AssertNumberOfCalls(t, "FindExpiringOn", 5)
}

func TestSchedulerService_SkipsRecentlyNotified(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)

	candidate := models.ExpiringWarranty{
		WarrantyID:         "w-1",
		UserID:             "user-1",
		Type:               models.TypeLimited,
		ExpiryDate:         date(2024, 7, 10),
		LastNotificationAt: ptr(testNow.Add(-time.Hour)),
	}

	repo.On("ListCustomDays", mock.Anything).Return([]int{}, nil).Once()
	repo.On("FindExpiringOn", mock.Anything, forPass(models.NotificationExpiry30Days, 30)).
		Return([]models.ExpiringWarranty{candidate}, nil).Once()
	repo.On("FindExpiringOn", mock.Anything, mock.Anything).Return(nil, nil)

	res, _, err := newScheduler(repo, pub, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Candidates: 1, Skipped: 1}, res)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "RecordNotification", mock.Anything, mock.Anything)
}

func TestSchedulerService_SkipsCandidateOnWrongDay(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)

	candidate := models.ExpiringWarranty{
		WarrantyID: "w-1",
		Type:       models.TypeLimited,
		ExpiryDate: date(2024, 6, 18),
	}

	repo.On("ListCustomDays", mock.Anything).Return([]int{}, nil).Once()
	repo.On("FindExpiringOn", mock.Anything, forPass(models.NotificationExpiry7Days, 7)).
		Return([]models.ExpiringWarranty{candidate}, nil).Once()
	repo.On("FindExpiringOn", mock.Anything, mock.Anything).Return(nil, nil)

	res, _, err := newScheduler(repo, pub, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestSchedulerService_RecordsFailedPublish(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	rec := &countingRecorder{}

	candidate := models.ExpiringWarranty{
		WarrantyID: "w-1",
		UserID:     "user-1",
		Type:       models.TypeLimited,
		ExpiryDate: date(2024, 6, 11),
	}

	repo.On("ListCustomDays", mock.Anything).Return([]int{}, nil).Once()
	repo.On("FindExpiringOn", mock.Anything, forPass(models.NotificationExpiry1Day, 1)).
		Return([]models.ExpiringWarranty{candidate}, nil).Once()
	repo.On("FindExpiringOn", mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("RecordNotification", mock.Anything, mock.MatchedBy(func(r models.NotificationRecord) bool {
		return r.Status == models.NotificationFailed && r.SentAt == nil
	})).Return(nil).Once()
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed")).Once()

	res, _, err := newScheduler(repo, pub, rec).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Candidates: 1, Failed: 1}, res)
	assert.Equal(t, 1, rec.counts["EXPIRY_1_DAY/failed"])
	repo.AssertExpectations(t)
}

func TestSchedulerService_ExpiredAndCustomPasses(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)

	expired := models.ExpiringWarranty{WarrantyID: "w-expired", Type: models.TypeLimited, ExpiryDate: date(2024, 6, 10)}
	custom := models.ExpiringWarranty{WarrantyID: "w-custom", Type: models.TypeLimited, ExpiryDate: date(2024, 6, 24)}

	repo.On("ListCustomDays", mock.Anything).Return([]int{14}, nil).Once()
	repo.On("FindExpiringOn", mock.Anything, mock.MatchedBy(func(q models.ExpiringQuery) bool {
		return q.Type == models.NotificationExpired && q.From.Equal(date(2024, 6, 10))
	})).Return([]models.ExpiringWarranty{expired}, nil).Once()
	repo.On("FindExpiringOn", mock.Anything, mock.MatchedBy(func(q models.ExpiringQuery) bool {
		return q.Type == models.NotificationCustom && q.DaysBeforeExpiry == 14 && q.From.Equal(date(2024, 6, 24))
	})).Return([]models.ExpiringWarranty{custom}, nil).Once()
	repo.On("FindExpiringOn", mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("RecordNotification", mock.Anything, mock.Anything).Return(nil).Twice()

	var published []models.NotificationEvent
	pub.On("Publish", mock.Anything, "warranty.expiry", mock.AnythingOfType("models.NotificationEvent")).
		Run(func(args mock.Arguments) {
			published = append(published, args.Get(2).(models.NotificationEvent))
		}).Return(nil).Twice()

	res, _, err := newScheduler(repo, pub, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Published)
	require.Len(t, published, 2)
	assert.Equal(t, models.NotificationExpired, published[0].Type)
	assert.Equal(t, 0, published[0].DaysBeforeExpiry)
	assert.Equal(t, models.NotificationCustom, published[1].Type)
	assert.Equal(t, 14, published[1].DaysBeforeExpiry)
	repo.AssertNumberOfCalls(t, "FindExpiringOn", 6)
}

func TestSchedulerService_Errors(t *testing.T) {
	t.Run("custom days lookup fails", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ListCustomDays", mock.Anything).Return(nil, errors.New("connection refused")).Once()

		_, ok, err := newScheduler(repo, new(MockPublisher), nil).Run(context.Background())
		assert.True(t, ok)
		assert.Error(t, err)
		repo.AssertNotCalled(t, "FindExpiringOn", mock.Anything, mock.Anything)
	})

	t.Run("query fails", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ListCustomDays", mock.Anything).Return([]int{}, nil).Once()
		repo.On("FindExpiringOn", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

		_, _, err := newScheduler(repo, new(MockPublisher), nil).Run(context.Background())
		assert.Error(t, err)
		repo.AssertNumberOfCalls(t, "FindExpiringOn", 1)
	})

	t.Run("context cancelled", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ListCustomDays", mock.Anything).Return([]int{}, nil).Once()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := newScheduler(repo, new(MockPublisher), nil).Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSchedulerService_SkipsOverlappingRun(t *testing.T) {
	repo := new(MockRepository)
	s := newScheduler(repo, new(MockPublisher), nil)

	s.running.Lock()
	defer s.running.Unlock()

	_, ok, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	repo.AssertNotCalled(t, "ListCustomDays", mock.Anything)
}

func ptr[T any](v T) *T { return &v }

// notificationLog хранилище в памяти: последняя отправка считается
// отдельно для каждой пары (тип, срок), как в FindExpiringOn.
type notificationLog struct {
	mu         sync.Mutex
	warranties []models.ExpiringWarranty
	sent       []models.NotificationRecord
}

func (r *notificationLog) FindExpiringOn(_ context.Context, q models.ExpiringQuery) ([]models.ExpiringWarranty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ExpiringWarranty
	for _, w := range r.warranties {
		if w.ExpiryDate.Before(q.From) || !w.ExpiryDate.Before(q.To) {
			continue
		}
		for _, rec := range r.sent {
			if rec.WarrantyID != w.WarrantyID || rec.Type != q.Type || rec.DaysBeforeExpiry != q.DaysBeforeExpiry {
				continue
			}
			if w.LastNotificationAt == nil || rec.SentAt.After(*w.LastNotificationAt) {
				w.LastNotificationAt = rec.SentAt
			}
		}
		out = append(out, w)
	}
	return out, nil
}

func (r *notificationLog) RecordNotification(_ context.Context, rec models.NotificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.Status == models.NotificationSent {
		r.sent = append(r.sent, rec)
	}
	return nil
}

func (r *notificationLog) ListCustomDays(context.Context) ([]int, error) {
	return nil, nil
}

type eventCollector struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (p *eventCollector) Publish(_ context.Context, _ string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, message.(models.NotificationEvent))
	return nil
}

func TestSchedulerService_ExpiredFollowsOneDayReminder(t *testing.T) {
	repo := &notificationLog{warranties: []models.ExpiringWarranty{{
		WarrantyID:   "w-1",
		UserID:       "user-1",
		Email:        "user@example.com",
		EmailEnabled: true,
		ProductName:  "Kettle",
		Type:         models.TypeLimited,
		ExpiryDate:   date(2024, 6, 11),
	}}}
	pub := &eventCollector{}
	clk := clock.NewFixed(time.Date(2024, 6, 10, 10, 0, 0, int(10*time.Millisecond), time.UTC))
	s := NewSchedulerService(repo, pub, warranty.NewCalculator(clk), nil, newNoopLogger(), "warranty.expiry")

	res, _, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Candidates: 1, Published: 1}, res)

	// следующий тик наступает чуть раньше, чем через сутки
	clk.Advance(24*time.Hour - 5*time.Millisecond)
	res, _, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Candidates: 1, Published: 1}, res)

	require.Len(t, pub.events, 2)
	assert.Equal(t, models.NotificationExpiry1Day, pub.events[0].Type)
	assert.Equal(t, models.NotificationExpired, pub.events[1].Type)
	assert.Len(t, repo.sent, 2)
}

func TestSchedulerService_SameDayRetryIsSkipped(t *testing.T) {
	repo := &notificationLog{warranties: []models.ExpiringWarranty{{
		WarrantyID:   "w-1",
		UserID:       "user-1",
		EmailEnabled: true,
		Type:         models.TypeLimited,
		ExpiryDate:   date(2024, 6, 17),
	}}}
	pub := &eventCollector{}
	clk := clock.NewFixed(testNow)
	s := NewSchedulerService(repo, pub, warranty.NewCalculator(clk), nil, newNoopLogger(), "warranty.expiry")

	_, _, err := s.Run(context.Background())
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	res, _, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Candidates: 1, Skipped: 1}, res)
	assert.Len(t, pub.events, 1)
}
