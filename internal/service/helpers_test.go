package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"clan-hub/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database. One connection keeps
// transactions strictly serialized, as row locks would on MySQL.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, model.Migrate(db))
	return db
}

func addMember(t *testing.T, db *gorm.DB, nick, status, pushToken string) *model.Member {
	t.Helper()
	m := &model.Member{
		Username:  strings.ToLower(nick),
		Password:  "x",
		Nick:      nick,
		Role:      model.RoleMember,
		Status:    status,
		GameClass: "KNIGHT",
		PushToken: pushToken,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

type sentPush struct {
	tokens      []string
	title, body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentPush
}

func (f *fakeNotifier) SendBulk(_ context.Context, tokens []string, title, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentPush{tokens: tokens, title: title, body: body})
}

func (f *fakeNotifier) calls() []sentPush {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentPush(nil), f.sent...)
}

// thursday is 2026-10-15 00:00 UTC.
var thursday = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

func newSiegeWarService(t *testing.T, db *gorm.DB, n Notifier) *SiegeWarService {
	t.Helper()
	s := NewSiegeWarService(db, n, nil, time.Sunday, time.UTC)
	s.now = func() time.Time { return thursday.Add(time.Hour) }
	return s
}

func countActive(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.SiegeWar{}).Where("is_active = ?", true).Count(&n).Error)
	return n
}
