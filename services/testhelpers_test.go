package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"sementes-play/models"
	"sementes-play/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// newTestDB opens a private in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func newTestLedger(db *gorm.DB) *FundLedger {
	ledger := NewFundLedger(db, utils.DiscardLogger())
	ledger.Now = fixedClock
	return ledger
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got.Round(4)), "want %s, got %s", want, got)
}

func seedRepasse(t *testing.T, db *gorm.DB, value string, status models.RepasseStatus, at time.Time) *models.PartnerRepasse {
	t.Helper()
	r := &models.PartnerRepasse{Value: dec(value), Status: status, RepasseDate: at}
	require.NoError(t, db.Create(r).Error)
	return r
}

// seedLegacyFund inserts an undistributed fund without the active slot, the
// way rows written before the unique slot existed look.
func seedLegacyFund(t *testing.T, db *gorm.DB, cycle int, value string, start time.Time) *models.Fund {
	t.Helper()
	f := &models.Fund{Cycle: cycle, TotalValue: dec(value), StartDate: start, EndDate: start}
	require.NoError(t, db.Create(f).Error)
	return f
}

type creatorSeed struct {
	Name         string
	Level        string
	StoredScore  int64
	Donations    []int64
	Missions     int // completed
	Achievements int // unlocked
	Contents     int
	CreatedAt    time.Time
}

func seedCreator(t *testing.T, db *gorm.DB, s creatorSeed) *models.Creator {
	t.Helper()
	if s.Level == "" {
		s.Level = models.LevelBeginner
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = testNow
	}

	user := &models.User{Name: s.Name, Level: s.Level, Score: s.StoredScore}
	user.CreatedAt = s.CreatedAt
	require.NoError(t, db.Create(user).Error)

	creator := &models.Creator{UserID: user.ID}
	creator.CreatedAt = s.CreatedAt
	require.NoError(t, db.Create(creator).Error)

	for _, q := range s.Donations {
		require.NoError(t, db.Create(&models.Donation{CreatorID: creator.ID, Quantity: q}).Error)
	}
	for i := 0; i < s.Missions; i++ {
		require.NoError(t, db.Create(&models.UserMission{UserID: user.ID, Completed: true}).Error)
	}
	for i := 0; i < s.Achievements; i++ {
		require.NoError(t, db.Create(&models.UserAchievement{UserID: user.ID, Unlocked: true}).Error)
	}
	for i := 0; i < s.Contents; i++ {
		require.NoError(t, db.Create(&models.Content{CreatorID: creator.ID, Title: fmt.Sprintf("%s #%d", s.Name, i+1)}).Error)
	}
	creator.User = *user
	return creator
}

func userLevel(t *testing.T, db *gorm.DB, userID string) string {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, "id = ?", userID).Error)
	return u.Level
}

type published struct {
	RoutingKey string
	Body       interface{}
}

// recordingPublisher keeps every event instead of sending it.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{RoutingKey: routingKey, Body: body})
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.RoutingKey)
	}
	return out
}
