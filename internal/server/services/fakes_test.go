package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/dbx"
	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/calendar"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/contents"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/purges"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/watermarks"
)

// --- blob store ---

type fakeBlobStore struct {
	mu      sync.Mutex
	records map[string][]models.AttachmentRecord
	seq     int

	listErr, storeErr, updateErr, deleteErr error

	lists, stores, updates, deletes int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{records: map[string][]models.AttachmentRecord{}}
}

func ownerKey(ownerType, ownerID string) string { return ownerType + "/" + ownerID }

func (f *fakeBlobStore) seed(ownerType, ownerID string, names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		f.seq++
		f.records[ownerKey(ownerType, ownerID)] = append(f.records[ownerKey(ownerType, ownerID)], models.AttachmentRecord{
			Name: n, Key: fmt.Sprintf("%s/%s/%d-%s", ownerType, ownerID, f.seq, n),
			URL: "https://signed.example/" + n, OwnerType: ownerType, OwnerID: ownerID,
		})
	}
}

func (f *fakeBlobStore) names(ownerType, ownerID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.records[ownerKey(ownerType, ownerID)] {
		out = append(out, r.Name)
	}
	sort.Strings(out)
	return out
}

func (f *fakeBlobStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists + f.stores + f.updates + f.deletes
}

func (f *fakeBlobStore) List(ctx context.Context, ownerType, ownerID string) ([]models.AttachmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.AttachmentRecord(nil), f.records[ownerKey(ownerType, ownerID)]...), nil
}

func (f *fakeBlobStore) Store(ctx context.Context, ownerType, ownerID string, files []models.Upload) error {
	f.mu.Lock()
	f.stores++
	err := f.storeErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	for _, u := range files {
		f.seed(ownerType, ownerID, u.Name)
	}
	return nil
}

func (f *fakeBlobStore) Update(ctx context.Context, ownerType, ownerID string, files []models.Upload, removed []models.AttachmentRecord) error {
	f.mu.Lock()
	f.updates++
	if f.updateErr != nil {
		f.mu.Unlock()
		return f.updateErr
	}
	drop := map[string]bool{}
	for _, r := range removed {
		drop[r.Key] = true
	}
	var keep []models.AttachmentRecord
	for _, r := range f.records[ownerKey(ownerType, ownerID)] {
		if !drop[r.Key] {
			keep = append(keep, r)
		}
	}
	f.records[ownerKey(ownerType, ownerID)] = keep
	f.mu.Unlock()

	for _, u := range files {
		f.seed(ownerType, ownerID, u.Name)
	}
	return nil
}

func (f *fakeBlobStore) DeleteAllForOwner(ctx context.Context, ownerType, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.records, ownerKey(ownerType, ownerID))
	return nil
}

// --- repositories ---

type fakeContentsRepo struct {
	contents.Repository

	mu       sync.Mutex
	rows     map[string]*models.Content
	flagSets []bool
	getErr   error
	delOwner error
}

func newFakeContentsRepo() *fakeContentsRepo {
	return &fakeContentsRepo{rows: map[string]*models.Content{}}
}

func (f *fakeContentsRepo) put(c *models.Content) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.rows[c.ID] = &cp
}

func (f *fakeContentsRepo) row(id string) *models.Content {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.rows[id]; ok {
		cp := *c
		return &cp
	}
	return nil
}

func (f *fakeContentsRepo) Create(ctx context.Context, c *models.Content) (*models.Content, error) {
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.put(c)
	return c, nil
}

func (f *fakeContentsRepo) GetByID(ctx context.Context, id string) (*models.Content, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if c := f.row(id); c != nil {
		return c, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeContentsRepo) Update(ctx context.Context, c *models.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[c.ID]
	if !ok {
		return common.ErrorNotFound
	}
	row.Category, row.Title, row.Body = c.Category, c.Title, c.Body
	return nil
}

func (f *fakeContentsRepo) SetHasAttachment(ctx context.Context, id string, v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.HasAttachment = v
	f.flagSets = append(f.flagSets, v)
	return nil
}

func (f *fakeContentsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeContentsRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Content, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Content
	for _, c := range f.rows {
		if c.OwnerID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeContentsRepo) DeleteByOwner(ctx context.Context, ownerID string) ([]*models.Content, error) {
	if f.delOwner != nil {
		return nil, f.delOwner
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Content
	for id, c := range f.rows {
		if c.OwnerID == ownerID {
			out = append(out, c)
			delete(f.rows, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeCalendarRepo struct {
	calendar.Repository
	deleted   map[string]int64
	counts    map[string]int64
	created   []*models.CalendarEntry
	createErr error
}

func (f *fakeCalendarRepo) Create(ctx context.Context, e *models.CalendarEntry) (*models.CalendarEntry, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, e)
	return e, nil
}

func (f *fakeCalendarRepo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	n := f.counts[ownerID]
	delete(f.counts, ownerID)
	if f.deleted == nil {
		f.deleted = map[string]int64{}
	}
	f.deleted[ownerID] += n
	return n, nil
}

type enqueued struct{ ownerType, ownerID, step string }

type fakePurgesRepo struct {
	purges.Repository
	mu    sync.Mutex
	steps []enqueued
	err   error
}

func (f *fakePurgesRepo) Enqueue(ctx context.Context, ownerType, ownerID, step, lastErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.steps = append(f.steps, enqueued{ownerType, ownerID, step})
	return nil
}

type fakeAccountsRepo struct {
	accounts.Repository
	rows     map[string]*models.Account
	markedAt time.Time
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if _, ok := f.rows[a.ID]; ok {
		return nil, fmt.Errorf("db error: duplicate key")
	}
	f.rows[a.ID] = a
	return a, nil
}

func (f *fakeAccountsRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if a, ok := f.rows[id]; ok {
		return a, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccountsRepo) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	a, ok := f.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.Deleted = true
	a.DeletedAt = &at
	a.ModifiedAt = at
	f.markedAt = at
	return nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	accounts *fakeAccountsRepo
	contents *fakeContentsRepo
	calendar *fakeCalendarRepo
	purges   *fakePurgesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		accounts: &fakeAccountsRepo{rows: map[string]*models.Account{}},
		contents: newFakeContentsRepo(),
		calendar: &fakeCalendarRepo{counts: map[string]int64{}},
		purges:   &fakePurgesRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository     { return m.accounts }
func (m *fakeRepoManager) Contents(db dbx.DBTX) contents.Repository     { return m.contents }
func (m *fakeRepoManager) Calendar(db dbx.DBTX) calendar.Repository     { return m.calendar }
func (m *fakeRepoManager) Purges(db dbx.DBTX) purges.Repository         { return m.purges }
func (m *fakeRepoManager) Watermarks(db dbx.DBTX) watermarks.Repository { return nil }

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var testCaps = NewCaps(map[string]int{models.CategoryUrgent: 5}, 3)

type fixture struct {
	db    *sql.DB
	mock  sqlmock.Sqlmock
	rm    *fakeRepoManager
	blobs *fakeBlobStore
	am    *AttachmentManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	rm := newFakeRepoManager()
	bs := newFakeBlobStore()
	return &fixture{
		db:    db,
		mock:  mock,
		rm:    rm,
		blobs: bs,
		am:    NewAttachmentManager(db, rm, bs, testCaps, logging.Nop()),
	}
}
