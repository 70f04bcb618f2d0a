package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"startloft-api/internal/config"
	"startloft-api/internal/models"
	"startloft-api/internal/registration"
	"startloft-api/internal/replay"
	"startloft-api/internal/store"
	"startloft-api/internal/tournament"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	openID     = "665f00000000000000000001"
	closedID   = "665f00000000000000000002"
	adminToken = "s3cret"
)

// memStore is an in-memory stand-in for *store.Store.
type memStore struct {
	mu          sync.Mutex
	tournaments map[string]*models.Tournament
	regs        []models.Registration
}

func newMemStore() *memStore {
	open, _ := primitive.ObjectIDFromHex(openID)
	closed, _ := primitive.ObjectIDFromHex(closedID)
	return &memStore{tournaments: map[string]*models.Tournament{
		openID:   {ID: open, Title: "Cup", Slug: "cup", Status: models.StatusPublished, RegistrationOpen: true, Dates: models.TournamentDates{Start: "2026-11-01"}},
		closedID: {ID: closed, Title: "Old Cup", Slug: "old-cup", Status: models.StatusFinished, IsFeatured: true, Dates: models.TournamentDates{Start: "2026-01-01"}},
	}}
}

func (m *memStore) ListTournaments(_ context.Context, status string) ([]models.Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Tournament{}
	for _, t := range m.tournaments {
		if status == "" || t.Status == status {
			out = append(out, *t)
		}
	}
	models.SortTournaments(out)
	return out, nil
}

func (m *memStore) FindTournament(_ context.Context, id string) (*models.Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (m *memStore) InsertTournament(_ context.Context, t *models.Tournament) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = primitive.NewObjectID()
	m.tournaments[t.ID.Hex()] = t
	return t.ID.Hex(), nil
}

func (m *memStore) InsertRegistration(_ context.Context, r *models.Registration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.regs {
		if x.TournamentID == r.TournamentID && x.Phone == r.Phone {
			return "", store.ErrDuplicate
		}
	}
	r.ID = primitive.NewObjectID()
	m.regs = append(m.regs, *r)
	return r.ID.Hex(), nil
}

func (m *memStore) ListPublicParticipants(_ context.Context, tid string) ([]models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Participant{}
	for _, r := range m.regs {
		if r.TournamentID == tid && r.Status != models.RegistrationCancelled {
			out = append(out, models.Participant{Fio: r.Fio, Rank: r.Rank, Category: r.Category, CityCountry: r.CityCountry})
		}
	}
	return out, nil
}

func (m *memStore) ListRegistrations(_ context.Context, tid string, _ int64) ([]models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Registration{}
	for _, r := range m.regs {
		if tid == "" || r.TournamentID == tid {
			out = append(out, r)
		}
	}
	return out, nil
}

func testConfig() config.Config {
	return config.Config{
		AdminToken:             adminToken,
		FrontendURL:            "http://localhost:3000",
		RegistrationsPerMinute: 5,
	}
}

func newTestRouter(t *testing.T, cfg config.Config, deps Deps) (*gin.Engine, *memStore) {
	t.Helper()
	ms := newMemStore()
	if deps.Registrations == nil {
		deps.Registrations = registration.NewService(ms, ms, nil, nil)
	}
	if deps.Tournaments == nil {
		deps.Tournaments = tournament.NewService(ms)
	}
	deps.Club = models.DefaultClubSettings()
	return NewRouter(cfg, deps), ms
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registrationBody(t *testing.T, mutate func(map[string]interface{})) string {
	t.Helper()
	body := map[string]interface{}{
		"tournament_id": openID,
		"fio":           "Ivan Ivanov",
		"birth_date":    "1995-05-20",
		"phone":         "+77718215088",
		"category":      models.CategoryAmateur,
		"rank":          "Не выбрано",
		"city_country":  "Kyzylorda",
		"consent":       true,
	}
	if mutate != nil {
		mutate(body)
	}
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return string(b)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestRoot(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), Deps{})
	w := do(r, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Start Loft API","version":"1.0.0"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), Deps{})
	w := do(r, http.MethodGet, "/", "", map[string]string{"X-Request-ID": "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestSubmitRegistration_Success(t *testing.T) {
	r, ms := newTestRouter(t, testConfig(), Deps{})

	w := do(r, http.MethodPost, "/api/registrations", registrationBody(t, nil), map[string]string{"User-Agent": "jest"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.RegistrationResponse
	decode(t, w, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, registration.MsgAccepted, resp.Message)
	assert.True(t, strings.HasPrefix(resp.WhatsappLink, "https://wa.me/7718215088?text="))
	assert.NotEmpty(t, resp.RegistrationID)

	require.Len(t, ms.regs, 1)
	assert.Equal(t, "jest", ms.regs[0].Meta.UserAgent)
	assert.Equal(t, "192.0.2.1", ms.regs[0].Meta.IP)
}

func TestSubmitRegistration_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		body   func(t *testing.T) string
		status int
		field  string
	}{
		{"malformed json", func(*testing.T) string { return `{"fio":` }, http.StatusUnprocessableEntity, ""},
		{"bad phone", func(t *testing.T) string {
			return registrationBody(t, func(m map[string]interface{}) { m["phone"] = "89991234567" })
		}, http.StatusUnprocessableEntity, "phone"},
		{"honeypot", func(t *testing.T) string {
			return registrationBody(t, func(m map[string]interface{}) { m["honeypot"] = "x" })
		}, http.StatusUnprocessableEntity, "honeypot"},
		{"missing consent", func(t *testing.T) string {
			return registrationBody(t, func(m map[string]interface{}) { delete(m, "consent") })
		}, http.StatusUnprocessableEntity, "consent"},
		{"unknown tournament", func(t *testing.T) string {
			return registrationBody(t, func(m map[string]interface{}) { m["tournament_id"] = "665f0000000000000000ffff" })
		}, http.StatusNotFound, ""},
		{"closed tournament", func(t *testing.T) string {
			return registrationBody(t, func(m map[string]interface{}) { m["tournament_id"] = closedID })
		}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ms := newTestRouter(t, testConfig(), Deps{})
			w := do(r, http.MethodPost, "/api/registrations", tt.body(t), nil)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var body errorBody
			decode(t, w, &body)
			assert.NotEmpty(t, body.Detail)
			assert.Equal(t, tt.field, body.Field)
			assert.Empty(t, ms.regs)
		})
	}
}

func TestSubmitRegistration_DuplicateIsConflict(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), Deps{})

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/registrations", registrationBody(t, nil), nil).Code)
	w := do(r, http.MethodPost, "/api/registrations", registrationBody(t, nil), nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, registration.MsgAlreadyRegistered, body.Detail)
}

func TestSubmitRegistration_RateLimited(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), Deps{})

	for i := 0; i < 5; i++ {
		w := do(r, http.MethodPost, "/api/registrations", `{}`, nil)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, "request %d", i+1)
	}
	w := do(r, http.MethodPost, "/api/registrations", `{}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// other clients keep their own budget
	req := httptest.NewRequest(http.MethodPost, "/api/registrations", strings.NewReader(`{}`))
	req.RemoteAddr = "198.51.100.7:4000"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestIPLimiter(t *testing.T) {
	l := newIPLimiter(2)
	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"))
}

func TestIPLimiter_RollingWindow(t *testing.T) {
	l := newIPLimiter(5)
	t0 := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.True(t, l.allowAt("a", t0))
	}
	for _, d := range []time.Duration{12100 * time.Millisecond, 24100 * time.Millisecond, 36100 * time.Millisecond, 48100 * time.Millisecond, 59 * time.Second} {
		assert.False(t, l.allowAt("a", t0.Add(d)), "at +%s", d)
	}

	// the first five leave the window together
	for i := 0; i < 5; i++ {
		assert.True(t, l.allowAt("a", t0.Add(time.Minute+time.Millisecond)))
	}
	assert.False(t, l.allowAt("a", t0.Add(time.Minute+2*time.Millisecond)))
}

func TestIPLimiter_SpreadRequests(t *testing.T) {
	l := newIPLimiter(2)
	t0 := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	assert.True(t, l.allowAt("a", t0))
	assert.True(t, l.allowAt("a", t0.Add(30*time.Second)))
	assert.False(t, l.allowAt("a", t0.Add(50*time.Second)))
	assert.True(t, l.allowAt("a", t0.Add(61*time.Second)))
	assert.False(t, l.allowAt("a", t0.Add(80*time.Second)))
	assert.True(t, l.allowAt("a", t0.Add(91*time.Second)))
}

func TestListTournaments(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), Deps{})

	w := do(r, http.MethodGet, "/api/tournaments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ts []models.Tournament
	decode(t, w, &ts)
	require.Len(t, ts, 2)
	assert.Equal(t, "Old Cup", ts[0].Title, "featured first")

	w = do(r, http.MethodGet, "/api/tournaments?status=published", "", nil)
	decode(t, w, &ts)
	require.Len(t, ts, 1)
	assert.Equal(t, openID, ts[0].ID.Hex())

	w = do(r, http.MethodGet, "/api/tournaments?status=archived", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetTournament(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), Deps{})

	w := do(r, http.MethodGet, "/api/tournaments/"+openID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"_id":"`+openID+`"`)

	w = do(r, http.MethodGet, "/api/tournaments/zzz", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Турнир не найден"}`, w.Body.String())
}

func TestCreateTournament(t *testing.T) {
	r, ms := newTestRouter(t, testConfig(), Deps{})
	draft := `{
		"title": "Winter Cup",
		"registration_open": true,
		"dates": {"start": "2026-12-01", "end": "2026-12-02"},
		"location": {"city": "Кызылорда", "country": "Казахстан", "venue_name": "Start Loft", "address": "ул. Абая, 123"},
		"fees": {"entry_fee": 5000},
		"prize": {"fund": 100000, "currency": "KZT"},
		"description": "d",
		"format_text": "f",
		"required_fields": ["fio"],
		"contact": {"phone": "+77718215088", "whatsapp_phone": "+77718215088"}
	}`

	w := do(r, http.MethodPost, "/api/tournaments", draft, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/tournaments", draft, map[string]string{"X-Admin-Token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/tournaments", draft, map[string]string{"Authorization": "Bearer " + adminToken})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.TournamentCreated
	decode(t, w, &created)
	assert.Equal(t, "winter-cup", created.Slug)
	assert.Contains(t, ms.tournaments, created.ID)

	w = do(r, http.MethodPost, "/api/tournaments", `{"title":"x"}`, map[string]string{"X-Admin-Token": adminToken})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "registration_open", body.Field)
}

func TestParticipantsHidePhones(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), Deps{})
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/registrations", registrationBody(t, nil), nil).Code)

	w := do(r, http.MethodGet, "/api/tournaments/"+openID+"/registrations", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ivan Ivanov")
	assert.NotContains(t, w.Body.String(), "+7771")
}

func TestExportRegistrations(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), Deps{})
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/registrations", registrationBody(t, nil), nil).Code)

	path := "/api/tournaments/" + openID + "/registrations.csv"
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, path, "", nil).Code)

	w := do(r, http.MethodGet, path, "", map[string]string{"X-Admin-Token": adminToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "registrations_"+openID+".csv")
	assert.Contains(t, w.Body.String(), "+77718215088")
}

func TestClubSettings(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), Deps{})
	w := do(r, http.MethodGet, "/api/club-settings", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var cs models.ClubSettings
	decode(t, w, &cs)
	assert.Equal(t, models.DefaultClubSettings(), cs)
}

func TestCORS(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), Deps{})

	req := httptest.NewRequest(http.MethodOptions, "/api/registrations", nil)
	req.Header.Set("Origin", "https://startloft.kz")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://startloft.kz", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSheetsSync(t *testing.T) {
	cfg := testConfig()
	cfg.AdminSyncToken = "sync-token"

	release := make(chan struct{})
	done := make(chan struct{})
	syncFn := func(context.Context) (replay.Result, error) {
		<-release
		close(done)
		return replay.Result{Total: 1, Processed: 1, Succeeded: 1}, nil
	}
	r, _ := newTestRouter(t, cfg, Deps{Sync: syncFn})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/admin/sheets/sync", "", map[string]string{"X-Admin-Token": adminToken}).Code)

	auth := map[string]string{"X-Admin-Token": "sync-token"}
	w := do(r, http.MethodPost, "/api/admin/sheets/sync", "", auth)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"started"`)

	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/api/admin/sheets/sync", "", auth).Code)

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sync did not run")
	}
}

func TestSheetsSync_DisabledWithoutToken(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), Deps{Sync: func(context.Context) (replay.Result, error) { return replay.Result{}, nil }})
	w := do(r, http.MethodPost, "/api/admin/sheets/sync", "", map[string]string{"X-Admin-Token": adminToken})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	cfg.Host, cfg.Port = "127.0.0.1", 8000
	srv := New(cfg, Deps{Registrations: registration.NewService(newMemStore(), newMemStore(), nil, nil), Tournaments: tournament.NewService(newMemStore())})
	assert.Equal(t, "127.0.0.1:8000", srv.Addr)
	assert.NotNil(t, srv.Handler)
}
