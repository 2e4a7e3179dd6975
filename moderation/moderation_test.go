package moderation

import (
	"testing"
	"time"

	"civica/database"
	"civica/models"
	"civica/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

type testEnv struct {
	db        *gorm.DB
	recorder  *Recorder
	lifecycle *LifecycleService
	penalties *PenaltyService
	appeals   *AppealService
	watchlist *WatchlistService
	clock     *fakeClock
}

// fakeClock lets tests move time forward deterministically.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	clock := &fakeClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	recorder := NewRecorder(repository.NewAuditRepository(db), nil)
	recorder.now = clock.Now

	watchlist := NewWatchlistService(db, recorder, nil, 2)
	watchlist.now = clock.Now

	penalties := NewPenaltyService(db, recorder, nil, watchlist, nil, 30)
	penalties.now = clock.Now

	lifecycle := NewLifecycleService(db, recorder, nil, true)
	lifecycle.now = clock.Now

	appeals := NewAppealService(db, recorder, nil)
	appeals.now = clock.Now

	return &testEnv{
		db:        db,
		recorder:  recorder,
		lifecycle: lifecycle,
		penalties: penalties,
		appeals:   appeals,
		watchlist: watchlist,
		clock:     clock,
	}
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Role:     models.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func requireAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code)
}
