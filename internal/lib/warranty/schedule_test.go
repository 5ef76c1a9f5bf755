package warranty

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

func allReminders() models.WarrantyPreferences {
	return models.WarrantyPreferences{
		Reminder90Days: true,
		Reminder30Days: true,
		Reminder7Days:  true,
		Reminder1Day:   true,
	}
}

func TestBuildSchedule_DropsPastOffsets(t *testing.T) {
	expiry := testNow.AddDate(0, 0, 5)

	schedule := BuildSchedule(testNow, &expiry, models.TypeLimited, allReminders())

	require.Len(t, schedule, 1)
	assert.Equal(t, models.NotificationExpiry1Day, schedule[0].Type)
	assert.Equal(t, testNow.AddDate(0, 0, 4), schedule[0].ScheduledFor)
	assert.Equal(t, 1, schedule[0].DaysBeforeExpiry)
}

func TestBuildSchedule_SortedWithCustomDays(t *testing.T) {
	expiry := testNow.AddDate(0, 0, 100)
	prefs := allReminders()
	prefs.CustomDays = []int{14, 45}

	schedule := BuildSchedule(testNow, &expiry, models.TypeLimited, prefs)

	require.Len(t, schedule, 6)
	gotDays := make([]int, 0, len(schedule))
	for i, n := range schedule {
		gotDays = append(gotDays, n.DaysBeforeExpiry)
		if i > 0 {
			assert.False(t, n.ScheduledFor.Before(schedule[i-1].ScheduledFor))
		}
	}
	assert.Equal(t, []int{90, 45, 30, 14, 7, 1}, gotDays)
	assert.Equal(t, models.NotificationCustom, schedule[1].Type)
	assert.Equal(t, models.NotificationCustom, schedule[3].Type)
}

func TestBuildSchedule_RespectsDisabledReminders(t *testing.T) {
	expiry := testNow.AddDate(0, 0, 100)
	prefs := models.WarrantyPreferences{Reminder7Days: true}

	schedule := BuildSchedule(testNow, &expiry, models.TypeLimited, prefs)

	require.Len(t, schedule, 1)
	assert.Equal(t, models.NotificationExpiry7Days, schedule[0].Type)
}

func TestBuildSchedule_NoDeduplicationOfCoincidingDates(t *testing.T) {
	expiry := testNow.AddDate(0, 0, 100)
	prefs := models.WarrantyPreferences{Reminder30Days: true, CustomDays: []int{30}}

	schedule := BuildSchedule(testNow, &expiry, models.TypeLimited, prefs)

	require.Len(t, schedule, 2)
	assert.Equal(t, schedule[0].ScheduledFor, schedule[1].ScheduledFor)
	assert.Equal(t, models.NotificationExpiry30Days, schedule[0].Type)
	assert.Equal(t, models.NotificationCustom, schedule[1].Type)
}

func TestBuildSchedule_OffsetExactlyNowIsDropped(t *testing.T) {
	expiry := testNow.AddDate(0, 0, 7)

	schedule := BuildSchedule(testNow, &expiry, models.TypeLimited, allReminders())

	require.Len(t, schedule, 1)
	assert.Equal(t, models.NotificationExpiry1Day, schedule[0].Type)
}

func TestBuildSchedule_EmptyForLifetimeOrMissingExpiry(t *testing.T) {
	expiry := testNow.AddDate(1, 0, 0)

	lifetime := BuildSchedule(testNow, &expiry, models.TypeLifetime, allReminders())
	assert.NotNil(t, lifetime)
	assert.Empty(t, lifetime)

	assert.Empty(t, BuildSchedule(testNow, nil, models.TypeLimited, allReminders()))
}

func TestShouldNotifyToday(t *testing.T) {
	in30 := testNow.AddDate(0, 0, 30)
	in29 := testNow.AddDate(0, 0, 29)
	today := testNow.Add(3 * time.Hour)

	tests := []struct {
		name   string
		expiry *time.Time
		wt     models.WarrantyType
		last   *time.Time
		nt     models.NotificationType
		want   bool
	}{
		{"exact 30 day match", &in30, models.TypeLimited, nil, models.NotificationExpiry30Days, true},
		{"wrong tier", &in30, models.TypeLimited, nil, models.NotificationExpiry7Days, false},
		{"missed day is not caught up", &in29, models.TypeLimited, nil, models.NotificationExpiry30Days, false},
		{"lifetime", &in30, models.TypeLifetime, nil, models.NotificationExpiry30Days, false},
		{"no expiry", nil, models.TypeLimited, nil, models.NotificationExpiry30Days, false},
		{"notified two hours ago", &in30, models.TypeLimited, ptr(testNow.Add(-2 * time.Hour)), models.NotificationExpiry30Days, false},
		{"notified 25 hours ago", &in30, models.TypeLimited, ptr(testNow.Add(-25 * time.Hour)), models.NotificationExpiry30Days, true},
		{"expired today", &today, models.TypeLimited, nil, models.NotificationExpired, true},
		{"custom has no fixed threshold", &in30, models.TypeLimited, nil, models.NotificationCustom, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldNotifyToday(testNow, tt.expiry, tt.wt, tt.last, tt.nt))
		})
	}
}

func TestShouldNotifyDaysBefore(t *testing.T) {
	in45 := testNow.AddDate(0, 0, 45)

	assert.True(t, ShouldNotifyDaysBefore(testNow, &in45, models.TypeLimited, nil, 45))
	assert.False(t, ShouldNotifyDaysBefore(testNow, &in45, models.TypeLimited, nil, 44))
}

func TestThreshold(t *testing.T) {
	days, ok := Threshold(models.NotificationExpired)
	assert.True(t, ok)
	assert.Equal(t, 0, days)

	_, ok = Threshold(models.NotificationRenewalAvailable)
	assert.False(t, ok)
}
