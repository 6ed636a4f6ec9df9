package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/dmitrijs2005/lifecycle/internal/server/auth"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/dmitrijs2005/lifecycle/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- mock implementations ----

type mockContents struct {
	createFn func(ownerID string, kind models.Kind, in services.ContentInput) (*services.ContentDetails, error)
	getFn    func(kind models.Kind, id string) (*services.ContentDetails, error)
	listFn   func(ownerID string, kind models.Kind) ([]*services.ContentDetails, error)
	updateFn func(ownerID string, kind models.Kind, id string, in services.ContentInput) (*services.ContentDetails, error)
	deleteFn func(ownerID string, kind models.Kind, id string) error
}

func (m *mockContents) Create(ctx context.Context, ownerID string, kind models.Kind, in services.ContentInput) (*services.ContentDetails, error) {
	if m.createFn != nil {
		return m.createFn(ownerID, kind, in)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockContents) Get(ctx context.Context, kind models.Kind, id string) (*services.ContentDetails, error) {
	if m.getFn != nil {
		return m.getFn(kind, id)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockContents) ListMine(ctx context.Context, ownerID string, kind models.Kind) ([]*services.ContentDetails, error) {
	if m.listFn != nil {
		return m.listFn(ownerID, kind)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockContents) Update(ctx context.Context, ownerID string, kind models.Kind, id string, in services.ContentInput) (*services.ContentDetails, error) {
	if m.updateFn != nil {
		return m.updateFn(ownerID, kind, id, in)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockContents) Delete(ctx context.Context, ownerID string, kind models.Kind, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ownerID, kind, id)
	}
	return fmt.Errorf("not configured")
}

type mockAccounts struct {
	registerFn func(id, nickname string) (*models.Account, error)
	getFn      func(id string) (*models.Account, error)
	withdrawFn func(id string) error
}

func (m *mockAccounts) Register(ctx context.Context, id, nickname string) (*models.Account, error) {
	if m.registerFn != nil {
		return m.registerFn(id, nickname)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockAccounts) Get(ctx context.Context, id string) (*models.Account, error) {
	if m.getFn != nil {
		return m.getFn(id)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockAccounts) Withdraw(ctx context.Context, id string) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(id)
	}
	return fmt.Errorf("not configured")
}

type mockCalendar struct {
	scheduleFn func(ownerID, petID string, in services.CalendarInput) (*models.CalendarEntry, error)
}

func (m *mockCalendar) Schedule(ctx context.Context, ownerID, petID string, in services.CalendarInput) (*models.CalendarEntry, error) {
	if m.scheduleFn != nil {
		return m.scheduleFn(ownerID, petID, in)
	}
	return nil, fmt.Errorf("not configured")
}

type staticResolver struct {
	id  string
	err error
}

func (r staticResolver) Resolve(ctx context.Context, credential string) (string, error) {
	return r.id, r.err
}

// ---- helpers ----

func newTestRouter(contents ContentManager, accounts AccountManager) *gin.Engine {
	return newTestRouterWithCalendar(contents, accounts, &mockCalendar{})
}

func newTestRouterWithCalendar(contents ContentManager, accounts AccountManager, calendar CalendarScheduler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(Deps{
		Resolver: staticResolver{id: "usr-001"},
		Contents: contents,
		Accounts: accounts,
		Calendar: calendar,
	}, logging.Nop())
}

func doRequest(router http.Handler, method, url string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Authorization", "Bearer token")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type part struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string][]string, files ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

var testDetails = &services.ContentDetails{
	Content: &models.Content{
		ID: "c1", OwnerID: "usr-001", Kind: models.KindPet, Category: "general",
		Title: "Rex", HasAttachment: true,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	},
	Attachments: []models.AttachmentRecord{{Name: "rex.png", URL: "https://signed/rex.png"}},
}

// ---- tests ----

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(&mockContents{}, &mockAccounts{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("test-secret")
	r := NewRouter(Deps{
		Resolver: auth.NewJWTResolver(secret),
		Contents: &mockContents{getFn: func(models.Kind, string) (*services.ContentDetails, error) { return testDetails, nil }},
		Accounts: &mockAccounts{},
	}, logging.Nop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/pets/c1", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/pets/c1", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := auth.GenerateToken("usr-001", secret, time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/v1/pets/c1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreatePet_Multipart(t *testing.T) {
	var got services.ContentInput
	var gotOwner string
	var gotBody []byte
	contents := &mockContents{createFn: func(ownerID string, kind models.Kind, in services.ContentInput) (*services.ContentDetails, error) {
		require.Equal(t, models.KindPet, kind)
		gotOwner, got = ownerID, in
		b, err := io.ReadAll(in.Files[0].Body)
		require.NoError(t, err)
		gotBody = b
		return testDetails, nil
	}}
	r := newTestRouter(contents, &mockAccounts{})

	body, ct := multipartBody(t,
		map[string][]string{"title": {"Rex"}, "category": {"general"}},
		part{"files", "rex.png", pngBytes},
	)
	w := doRequest(r, http.MethodPost, "/v1/pets", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, "usr-001", gotOwner)
	assert.Equal(t, "Rex", got.Title)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "rex.png", got.Files[0].Name)
	assert.Equal(t, "image/png", got.Files[0].ContentType)
	assert.Equal(t, int64(len(pngBytes)), got.Files[0].Size)
	assert.Equal(t, pngBytes, gotBody, "body must be rewound after sniffing")

	var resp ContentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "c1", resp.ID)
	assert.Equal(t, []AttachmentResponse{{Name: "rex.png", URL: "https://signed/rex.png"}}, resp.Attachments)
}

func TestCreatePost_ValidationError(t *testing.T) {
	r := newTestRouter(&mockContents{}, &mockAccounts{})

	body, ct := multipartBody(t, map[string][]string{"body": {"no title"}})
	w := doRequest(r, http.MethodPost, "/v1/posts", body, ct)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "Title", resp.Details[0].Field)
	assert.Equal(t, "required", resp.Details[0].Type)
}

func TestUpdatePost_PassesRemovals(t *testing.T) {
	var got services.ContentInput
	contents := &mockContents{updateFn: func(ownerID string, kind models.Kind, id string, in services.ContentInput) (*services.ContentDetails, error) {
		assert.Equal(t, models.KindPost, kind)
		assert.Equal(t, "p9", id)
		got = in
		return testDetails, nil
	}}
	r := newTestRouter(contents, &mockAccounts{})

	body, ct := multipartBody(t, map[string][]string{"title": {"t"}, "remove": {"a.png", "b.png"}})
	w := doRequest(r, http.MethodPut, "/v1/posts/p9", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"a.png", "b.png"}, got.Remove)
	assert.Empty(t, got.Files)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		code    int
		message string
	}{
		{common.ErrorNotFound, http.StatusNotFound, "not found"},
		{common.ErrorUnauthorized, http.StatusForbidden, "unauthorized"},
		{fmt.Errorf("%w: 4 new", common.ErrLimitExceeded), http.StatusBadRequest, "attachment limit exceeded: 4 new"},
		{fmt.Errorf("%w: bad kind", common.ErrorValidation), http.StatusBadRequest, "validation error: bad kind"},
		{fmt.Errorf("list: %w", common.ErrRemoteCall), http.StatusBadGateway, "list: remote call failed"},
		{errors.New("db error: conn reset"), http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			r := newTestRouter(&mockContents{
				getFn: func(models.Kind, string) (*services.ContentDetails, error) { return nil, tt.err },
			}, &mockAccounts{})

			w := doRequest(r, http.MethodGet, "/v1/posts/x", nil, "")
			assert.Equal(t, tt.code, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestListPets(t *testing.T) {
	var gotOwner string
	r := newTestRouter(&mockContents{listFn: func(ownerID string, kind models.Kind) ([]*services.ContentDetails, error) {
		require.Equal(t, models.KindPet, kind)
		gotOwner = ownerID
		return []*services.ContentDetails{testDetails}, nil
	}}, &mockAccounts{})

	w := doRequest(r, http.MethodGet, "/v1/pets", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "usr-001", gotOwner)

	var resp []ContentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "c1", resp[0].ID)
	assert.Equal(t, []AttachmentResponse{{Name: "rex.png", URL: "https://signed/rex.png"}}, resp[0].Attachments)
}

func TestListPosts_RequiresMine(t *testing.T) {
	calls := 0
	r := newTestRouter(&mockContents{listFn: func(ownerID string, kind models.Kind) ([]*services.ContentDetails, error) {
		require.Equal(t, models.KindPost, kind)
		calls++
		return nil, nil
	}}, &mockAccounts{})

	w := doRequest(r, http.MethodGet, "/v1/posts", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, calls)

	w = doRequest(r, http.MethodGet, "/v1/posts?mine=true", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, 1, calls)
}

func TestSchedulePetCalendarEntry(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var gotOwner, gotPet string
	var got services.CalendarInput
	cal := &mockCalendar{scheduleFn: func(ownerID, petID string, in services.CalendarInput) (*models.CalendarEntry, error) {
		gotOwner, gotPet, got = ownerID, petID, in
		return &models.CalendarEntry{ID: "e1", PetID: petID, ScheduledAt: in.ScheduledAt, AlarmAt: in.AlarmAt, Text: in.Text}, nil
	}}
	r := newTestRouterWithCalendar(&mockContents{}, &mockAccounts{}, cal)

	w := doRequest(r, http.MethodPost, "/v1/pets/p1/calendar",
		strings.NewReader(`{"scheduledAt":"2024-03-01T10:00:00Z","alarmAt":"2024-03-01T08:00:00Z","text":"vet"}`), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, "usr-001", gotOwner)
	assert.Equal(t, "p1", gotPet)
	assert.True(t, at.Equal(got.ScheduledAt))
	require.NotNil(t, got.AlarmAt)
	assert.True(t, at.Add(-2*time.Hour).Equal(*got.AlarmAt))

	var resp CalendarEntryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "e1", resp.ID)
	assert.Equal(t, "vet", resp.Text)
}

func TestSchedulePetCalendarEntry_Errors(t *testing.T) {
	cal := &mockCalendar{scheduleFn: func(ownerID, petID string, in services.CalendarInput) (*models.CalendarEntry, error) {
		return nil, common.ErrorUnauthorized
	}}
	r := newTestRouterWithCalendar(&mockContents{}, &mockAccounts{}, cal)

	w := doRequest(r, http.MethodPost, "/v1/pets/p1/calendar", strings.NewReader(`{"scheduledAt":"2024-03-01T10:00:00Z"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code, "text is required")

	w = doRequest(r, http.MethodPost, "/v1/pets/p1/calendar", strings.NewReader(`{"scheduledAt":"2024-03-01T10:00:00Z","text":"vet"}`), "application/json")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeletePost(t *testing.T) {
	var deleted string
	r := newTestRouter(&mockContents{deleteFn: func(ownerID string, kind models.Kind, id string) error {
		deleted = ownerID + ":" + string(kind) + ":" + id
		return nil
	}}, &mockAccounts{})

	w := doRequest(r, http.MethodDelete, "/v1/posts/p1", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "usr-001:post:p1", deleted)
}

func TestAccounts(t *testing.T) {
	var withdrawn string
	accounts := &mockAccounts{
		registerFn: func(id, nickname string) (*models.Account, error) {
			return &models.Account{ID: id, Nickname: nickname}, nil
		},
		getFn: func(id string) (*models.Account, error) {
			return nil, common.ErrorNotFound
		},
		withdrawFn: func(id string) error {
			withdrawn = id
			return nil
		},
	}
	r := newTestRouter(&mockContents{}, accounts)

	w := doRequest(r, http.MethodPost, "/v1/accounts", strings.NewReader(`{"nickname":"alice"}`), "application/json")
	require.Equal(t, http.StatusCreated, w.Code)
	var resp AccountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, AccountResponse{ID: "usr-001", Nickname: "alice"}, resp)

	w = doRequest(r, http.MethodPost, "/v1/accounts", strings.NewReader(`{"nickname":""}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/v1/accounts/me", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodPut, "/v1/accounts/withdrawal", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "usr-001", withdrawn)
}
