package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/dbx"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/calendar"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/purges"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/watermarks"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// --- accounts ---

type fakeAccountsRepo struct {
	accounts.Repository

	mu        sync.Mutex
	rows      map[string]*models.Account
	deleteErr map[string]error
	selects   int
	selectErr error
}

func newFakeAccountsRepo(rows ...*models.Account) *fakeAccountsRepo {
	f := &fakeAccountsRepo{rows: map[string]*models.Account{}, deleteErr: map[string]error{}}
	for _, a := range rows {
		f.rows[a.ID] = a
	}
	return f
}

func (f *fakeAccountsRepo) SelectPurgeable(ctx context.Context, cutoff time.Time, afterID string, limit int) ([]*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selects++
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	var out []*models.Account
	for _, a := range f.rows {
		if a.Deleted && a.ModifiedAt.Before(cutoff) && a.ID > afterID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAccountsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeAccountsRepo) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	return ok
}

// --- outbox ---

type fakePurgesRepo struct {
	purges.Repository

	mu    sync.Mutex
	steps map[string]*models.PurgeStep
	clock int
}

func newFakePurgesRepo() *fakePurgesRepo {
	return &fakePurgesRepo{steps: map[string]*models.PurgeStep{}}
}

func (f *fakePurgesRepo) tick() time.Time {
	f.clock++
	return time.Unix(int64(f.clock), 0)
}

func (f *fakePurgesRepo) add(id, ownerType, ownerID, step string, attempts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps[id] = &models.PurgeStep{
		ID: id, OwnerType: ownerType, OwnerID: ownerID, Step: step,
		Status: models.PurgeStatusPending, Attempts: attempts, UpdatedAt: f.tick(),
	}
}

func (f *fakePurgesRepo) find(ownerType, ownerID, step string) *models.PurgeStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.steps {
		if s.OwnerType == ownerType && s.OwnerID == ownerID && s.Step == step {
			cp := *s
			return &cp
		}
	}
	return nil
}

func (f *fakePurgesRepo) Enqueue(ctx context.Context, ownerType, ownerID, step, lastErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.steps {
		if s.OwnerType == ownerType && s.OwnerID == ownerID && s.Step == step {
			s.Status, s.LastError, s.UpdatedAt = models.PurgeStatusPending, lastErr, f.tick()
			return nil
		}
	}
	id := fmt.Sprintf("s%d", len(f.steps)+1)
	f.steps[id] = &models.PurgeStep{
		ID: id, OwnerType: ownerType, OwnerID: ownerID, Step: step,
		Status: models.PurgeStatusPending, LastError: lastErr, UpdatedAt: f.tick(),
	}
	return nil
}

func (f *fakePurgesRepo) SelectPending(ctx context.Context, limit int) ([]*models.PurgeStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PurgeStep
	for _, s := range f.steps {
		if s.Status == models.PurgeStatusPending {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePurgesRepo) MarkDone(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.steps[id]
	s.Status, s.LastError, s.UpdatedAt = models.PurgeStatusDone, "", f.tick()
	s.Attempts++
	return nil
}

func (f *fakePurgesRepo) MarkFailed(ctx context.Context, id, msg string, giveUp bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.steps[id]
	s.Status = models.PurgeStatusPending
	if giveUp {
		s.Status = models.PurgeStatusFailed
	}
	s.LastError, s.UpdatedAt = msg, f.tick()
	s.Attempts++
	return nil
}

// --- calendar and watermarks ---

type fakeCalendarRepo struct {
	calendar.Repository
	entries []*models.CalendarEntry
	err     error
}

func (f *fakeCalendarRepo) SelectAlarmsBetween(ctx context.Context, from, to time.Time) ([]*models.CalendarEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.CalendarEntry
	for _, e := range f.entries {
		if e.AlarmAt != nil && !e.AlarmAt.Before(from) && !e.AlarmAt.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeWatermarksRepo struct {
	watermarks.Repository
	marks  map[string]time.Time
	getErr error
}

func (f *fakeWatermarksRepo) Get(ctx context.Context, job string) (time.Time, error) {
	if f.getErr != nil {
		return time.Time{}, f.getErr
	}
	m, ok := f.marks[job]
	if !ok {
		return time.Time{}, common.ErrorNotFound
	}
	return m, nil
}

func (f *fakeWatermarksRepo) Advance(ctx context.Context, job string, mark time.Time) error {
	if mark.After(f.marks[job]) {
		f.marks[job] = mark
	}
	return nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	accounts   *fakeAccountsRepo
	purges     *fakePurgesRepo
	calendar   *fakeCalendarRepo
	watermarks *fakeWatermarksRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		accounts:   newFakeAccountsRepo(),
		purges:     newFakePurgesRepo(),
		calendar:   &fakeCalendarRepo{},
		watermarks: &fakeWatermarksRepo{marks: map[string]time.Time{}},
	}
}

func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository     { return m.accounts }
func (m *fakeRepoManager) Purges(db dbx.DBTX) purges.Repository         { return m.purges }
func (m *fakeRepoManager) Calendar(db dbx.DBTX) calendar.Repository     { return m.calendar }
func (m *fakeRepoManager) Watermarks(db dbx.DBTX) watermarks.Repository { return m.watermarks }

// --- remote collaborators ---

type fakeBlobs struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeBlobs) DeleteAllForOwner(ctx context.Context, ownerType, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ownerType + "/" + ownerID
	f.calls = append(f.calls, key)
	return f.fail[key]
}

func (f *fakeBlobs) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.calls...)
	sort.Strings(out)
	return out
}

type fakePurger struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakePurger) PurgeOwner(ctx context.Context, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ownerID)
	return f.fail[ownerID]
}

func (f *fakePurger) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.calls...)
	sort.Strings(out)
	return out
}

type fakePublisher struct {
	batches [][]models.AlarmMessage
	err     error
}

func (f *fakePublisher) PublishBatch(ctx context.Context, msgs []models.AlarmMessage) error {
	f.batches = append(f.batches, msgs)
	return f.err
}
