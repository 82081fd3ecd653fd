package server

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	accountsservice "hotelbooking/internal/accounts/service"
	bookingsservice "hotelbooking/internal/bookings/service"
	"hotelbooking/internal/testutil"
	"hotelbooking/pkg/app"
	"hotelbooking/pkg/clock"
	"hotelbooking/pkg/config"
	"hotelbooking/pkg/container"
	"hotelbooking/pkg/db/sqlite"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"

	"golang.org/x/crypto/bcrypt"
)

var (
	today        = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	csrfPattern  = regexp.MustCompile(`name="csrf-token" content="([^"]+)"`)
	testPassword = "harbour-view-1"
)

type harness struct {
	t      *testing.T
	db     *sqlite.DB
	srv    *Server
	base   *url.URL
	client *http.Client
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:             config.EnvProduction,
		Port:               "8080",
		StoreDriver:        config.StoreSQLite,
		SessionStore:       config.SessionStoreMemory,
		SessionCookieName:  "hotel_session",
		SessionHashKey:     "0123456789abcdef0123456789abcdef",
		SessionIdleTimeout: 30 * time.Minute,
		SessionLifetime:    24 * time.Hour,
		LoginRateLimit:     600,
		LoginRateBurst:     100,
		RequestTimeout:     10 * time.Second,
		IdempotencyTTL:     time.Hour,
		MaxRequestSize:     1 << 20,
		ShutdownTimeout:    time.Second,
		BookingLockTTL:     10 * time.Second,
		MaxStayNights:      30,
		Log:                logger.Discard(),
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := testConfig()
	db := testutil.NewSQLite(t)
	srv, err := New(cfg, NewSQLiteBackend(db, cfg.Log), Options{
		Clock:      clock.NewFixed(today),
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("failed to wire server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close(context.Background()) })

	application := app.NewApplication(cfg)
	application.SetApp(srv)
	ts := httptest.NewServer(application.Handler())
	t.Cleanup(ts.Close)

	base, _ := url.Parse(ts.URL)
	return &harness{t: t, db: db, srv: srv, base: base, client: newClient(t)}
}

// newClient keeps cookies and stops at redirects so tests can assert them.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (h *harness) do(req *http.Request) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func (h *harness) get(path string) (*http.Response, string) {
	h.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, h.base.String()+path, nil)
	return h.do(req)
}

// post submits form with a fresh CSRF token.
func (h *harness) post(path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("_token", h.csrfToken())
	return h.postRaw(path, form)
}

func (h *harness) postRaw(path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	req, _ := http.NewRequest(http.MethodPost, h.base.String()+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func (h *harness) csrfToken() string {
	h.t.Helper()
	_, body := h.get("/about")
	m := csrfPattern.FindStringSubmatch(body)
	if m == nil {
		h.t.Fatalf("no CSRF token on page")
	}
	return m[1]
}

func (h *harness) sessionCookie() string {
	for _, c := range h.client.Jar.Cookies(h.base) {
		if c.Name == "hotel_session" {
			return c.Value
		}
	}
	return ""
}

func (h *harness) register(name, email string) {
	h.t.Helper()
	resp, body := h.post("/register", url.Values{
		"name":                  {name},
		"email":                 {email},
		"password":              {testPassword},
		"password_confirmation": {testPassword},
	})
	if resp.StatusCode != http.StatusSeeOther {
		h.t.Fatalf("register: status %d, body %s", resp.StatusCode, body)
	}
}

func (h *harness) seedRoom() int64 {
	h.t.Helper()
	typeID := testutil.InsertRoomType(h.t, h.db, testutil.NewRoomTypeBuilder().Build())
	return testutil.InsertRoom(h.t, h.db, testutil.NewRoomBuilder(typeID).Build())
}

func bookingForm(roomID int64, checkIn, checkOut string) url.Values {
	return url.Values{
		"room_id":     {strconv.FormatInt(roomID, 10)},
		"check_in":    {checkIn},
		"check_out":   {checkOut},
		"guests":      {"2"},
		"guest_name":  {"Ada Lovelace"},
		"guest_email": {"ada@example.com"},
	}
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status = %d, want %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want)
	}
}

func assertRedirect(t *testing.T, resp *http.Response, prefix string) {
	t.Helper()
	assertStatus(t, resp, http.StatusSeeOther)
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, prefix) {
		t.Fatalf("Location = %q, want prefix %q", loc, prefix)
	}
}

func TestPublicPages(t *testing.T) {
	h := newHarness(t)
	h.seedRoom()

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{path: "/", status: http.StatusOK, want: "Harbor View Hotel"},
		{path: "/rooms", status: http.StatusOK, want: "Room 101"},
		{path: "/rooms/search", status: http.StatusOK, want: "Find a room"},
		{path: "/about", status: http.StatusOK, want: "About"},
		{path: "/contact", status: http.StatusOK, want: "Contact us"},
		{path: "/rooms/9999", status: http.StatusNotFound, want: "couldn't find"},
		{path: "/no/such/page", status: http.StatusNotFound, want: "couldn't find"},
		{path: "/health", status: http.StatusOK},
		{path: "/static/css/app.css", status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := h.get(tt.path)
			assertStatus(t, resp, tt.status)
			if tt.want != "" && !strings.Contains(body, tt.want) {
				t.Errorf("body does not contain %q", tt.want)
			}
		})
	}
}

func TestErrorPagesHideDiagnosticsInProduction(t *testing.T) {
	h := newHarness(t)

	_, body := h.get("/rooms/9999")
	if strings.Contains(body, "Diagnostics") {
		t.Error("diagnostics must not be shown outside development")
	}
}

func TestCSRFRequired(t *testing.T) {
	h := newHarness(t)
	h.csrfToken()

	resp, _ := h.postRaw("/contact", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"subject": {"Late arrival"},
		"message": {"We will arrive around midnight."},
	})
	assertStatus(t, resp, http.StatusForbidden)

	resp, _ = h.postRaw("/contact", url.Values{"_token": {"forged"}, "name": {"Ada"}})
	assertStatus(t, resp, http.StatusForbidden)
}

func TestContactForm(t *testing.T) {
	h := newHarness(t)

	resp, body := h.post("/contact", url.Values{"name": {"A"}, "email": {"nope"}})
	assertStatus(t, resp, http.StatusUnprocessableEntity)
	if !strings.Contains(body, "field-error") {
		t.Error("expected field errors on the re-rendered form")
	}

	resp, _ = h.post("/contact", url.Values{
		"name":    {"Ada Lovelace"},
		"email":   {"ada@example.com"},
		"subject": {"Late arrival"},
		"message": {"We will arrive around midnight."},
	})
	assertRedirect(t, resp, "/contact")
}

func TestAuthRedirectsToLoginAndBack(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/dashboard/bookings")
	assertRedirect(t, resp, "/login")

	_, body := h.get("/login")
	if !strings.Contains(body, "Please log in to continue.") {
		t.Error("expected the login prompt flash")
	}

	h.register("Ada Lovelace", "ada@example.com")
	resp, _ = h.get("/logout")
	assertStatus(t, resp, http.StatusNotFound)
	resp, _ = h.post("/logout", nil)
	assertRedirect(t, resp, "/")

	h.get("/dashboard/bookings")
	resp, _ = h.post("/login", url.Values{"login": {"ADA@example.com"}, "password": {testPassword}})
	assertRedirect(t, resp, "/dashboard/bookings")

	resp, body = h.get("/dashboard")
	assertStatus(t, resp, http.StatusOK)
	if !strings.Contains(body, "Ada Lovelace") {
		t.Error("dashboard should greet the user")
	}

	resp, _ = h.get("/login")
	assertRedirect(t, resp, "/dashboard")
}

func TestLoginRotatesSessionID(t *testing.T) {
	h := newHarness(t)
	h.register("Ada Lovelace", "ada@example.com")
	h.post("/logout", nil)

	h.csrfToken()
	before := h.sessionCookie()
	resp, _ := h.post("/login", url.Values{"login": {"ada@example.com"}, "password": {testPassword}})
	assertRedirect(t, resp, "/dashboard")

	if after := h.sessionCookie(); after == "" || after == before {
		t.Error("login must issue a new session id")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	h.register("Ada Lovelace", "ada@example.com")
	h.post("/logout", nil)

	resp, body := h.post("/login", url.Values{"login": {"ada@example.com"}, "password": {"wrong-password-1"}})
	assertStatus(t, resp, http.StatusUnprocessableEntity)
	if !strings.Contains(body, "do not match our records") {
		t.Error("expected the credentials error")
	}
	if strings.Contains(body, "wrong-password-1") {
		t.Error("password must not be echoed back")
	}
}

func TestBookingConflicts(t *testing.T) {
	h := newHarness(t)
	roomID := h.seedRoom()
	h.register("Ada Lovelace", "ada@example.com")

	resp, _ := h.post("/bookings", bookingForm(roomID, "2025-06-01", "2025-06-05"))
	assertRedirect(t, resp, "/bookings/confirmation/")

	resp, body := h.post("/bookings", bookingForm(roomID, "2025-06-04", "2025-06-08"))
	assertStatus(t, resp, http.StatusConflict)
	if !strings.Contains(body, "already booked") || !strings.Contains(body, "2025-06-04") {
		t.Error("conflict should re-render the form with the submitted dates")
	}

	resp, _ = h.post("/bookings", bookingForm(roomID, "2025-06-05", "2025-06-08"))
	assertRedirect(t, resp, "/bookings/confirmation/")
}

func TestBookingConfirmationAndCancel(t *testing.T) {
	h := newHarness(t)
	roomID := h.seedRoom()
	h.register("Ada Lovelace", "ada@example.com")

	resp, _ := h.post("/bookings", bookingForm(roomID, "2025-06-01", "2025-06-05"))
	assertRedirect(t, resp, "/bookings/confirmation/")
	location := resp.Header.Get("Location")
	reference := strings.TrimPrefix(location, "/bookings/confirmation/")

	resp, body := h.get(location)
	assertStatus(t, resp, http.StatusOK)
	if !strings.Contains(body, reference) || !strings.Contains(body, "$600.00") {
		t.Errorf("confirmation should show the reference and the 4-night total")
	}

	other := newClient(t)
	h.client, other = other, h.client
	h.register("Grace Hopper", "grace@example.com")
	resp, _ = h.get(location)
	assertStatus(t, resp, http.StatusNotFound)
	h.client = other

	resp, _ = h.post("/bookings/"+reference+"/cancel", nil)
	assertRedirect(t, resp, "/dashboard/bookings")

	resp, _ = h.post("/bookings", bookingForm(roomID, "2025-06-01", "2025-06-05"))
	assertRedirect(t, resp, "/bookings/confirmation/")
}

func TestBookingIdempotencyKeyReplays(t *testing.T) {
	h := newHarness(t)
	roomID := h.seedRoom()
	h.register("Ada Lovelace", "ada@example.com")

	form := bookingForm(roomID, "2025-06-01", "2025-06-05")
	form.Set("_idempotency_key", "4f1c2a9e-submit-once")

	first, _ := h.post("/bookings", form)
	assertRedirect(t, first, "/bookings/confirmation/")
	second, _ := h.post("/bookings", form)
	assertRedirect(t, second, "/bookings/confirmation/")

	if first.Header.Get("Location") != second.Header.Get("Location") {
		t.Error("a resubmitted form should replay the first response")
	}
	var n int
	if err := h.db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM bookings`).Scan(&n); err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	if n != 1 {
		t.Errorf("bookings = %d, want 1", n)
	}
}

func TestQuoteAPI(t *testing.T) {
	h := newHarness(t)
	roomID := h.seedRoom()

	resp, body := h.get("/api/bookings/quote?room_id=" + strconv.FormatInt(roomID, 10) + "&check_in=2025-06-01&check_out=2025-06-03")
	assertStatus(t, resp, http.StatusOK)
	if !strings.Contains(body, `"total":30000`) {
		t.Errorf("unexpected quote: %s", body)
	}

	resp, _ = h.get("/api/bookings/quote?check_in=2025-06-01")
	assertStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestConcurrentBookingsOneWins(t *testing.T) {
	h := newHarness(t)
	roomID := h.seedRoom()
	userID := testutil.InsertUser(t, h.db, "Ada Lovelace", "ada@example.com")

	bookings, err := container.Resolve[bookingsservice.BookingService](h.srv.Container(), KeyBookingService)
	if err != nil {
		t.Fatalf("resolve booking service: %v", err)
	}

	const racers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := bookings.Create(context.Background(), &model.BookingRequest{
				RoomID:     roomID,
				UserID:     userID,
				CheckIn:    testutil.Date(2025, 7, 10),
				CheckOut:   testutil.Date(2025, 7, 12),
				Guests:     1,
				GuestName:  "Ada Lovelace",
				GuestEmail: "ada@example.com",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case apperrors.HasCode(err, apperrors.CodeConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || conflicts != racers-1 {
		t.Errorf("created = %d, conflicts = %d; want 1 and %d", created, conflicts, racers-1)
	}
}

func ensureAdmin(t *testing.T, h *harness, username, role string) {
	t.Helper()
	accounts, err := container.Resolve[accountsservice.AccountService](h.srv.Container(), KeyAccountService)
	if err != nil {
		t.Fatalf("resolve account service: %v", err)
	}
	_, err = accounts.EnsureAdmin(context.Background(), &model.Admin{
		Username: username,
		Email:    username + "@example.com",
		Name:     "Front Desk",
		Role:     role,
	}, testPassword)
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
}

func TestAdminRoles(t *testing.T) {
	h := newHarness(t)
	h.seedRoom()
	ensureAdmin(t, h, "desk", model.AdminRoleStaff)

	resp, _ := h.get("/admin/rooms")
	assertRedirect(t, resp, "/admin/login")

	resp, _ = h.post("/admin/login", url.Values{"login": {"desk"}, "password": {testPassword}})
	assertRedirect(t, resp, "/admin/rooms")

	resp, body := h.get("/admin")
	assertStatus(t, resp, http.StatusOK)
	if !strings.Contains(body, "Front Desk") {
		t.Error("admin layout should name the signed-in admin")
	}

	resp, _ = h.get("/admin/rooms")
	assertStatus(t, resp, http.StatusOK)
	resp, _ = h.get("/admin/rooms/create")
	assertStatus(t, resp, http.StatusForbidden)
	resp, _ = h.post("/admin/rooms", url.Values{"room_number": {"999"}})
	assertStatus(t, resp, http.StatusForbidden)

	resp, _ = h.get("/dashboard")
	assertRedirect(t, resp, "/login")
}

func TestAdminManagesRoomsAndBookings(t *testing.T) {
	h := newHarness(t)
	roomID := h.seedRoom()
	userID := testutil.InsertUser(t, h.db, "Ada Lovelace", "ada@example.com")
	first := testutil.InsertBooking(t, h.db, roomID, userID, testutil.Date(2025, 6, 1), testutil.Date(2025, 6, 5), model.BookingStatusPending)
	testutil.InsertBooking(t, h.db, roomID, userID, testutil.Date(2025, 6, 10), testutil.Date(2025, 6, 12), model.BookingStatusConfirmed)
	ensureAdmin(t, h, "manager", model.AdminRoleManager)

	resp, _ := h.post("/admin/login", url.Values{"login": {"manager"}, "password": {testPassword}})
	assertRedirect(t, resp, "/admin")

	path := "/admin/bookings/" + strconv.FormatInt(first, 10)
	resp, _ = h.post(path+"/approve", nil)
	assertRedirect(t, resp, path)
	resp, _ = h.post(path+"/approve", nil)
	assertRedirect(t, resp, path)
	_, body := h.get(path)
	if !strings.Contains(body, "Confirmed") {
		t.Error("approved booking should show as confirmed")
	}

	resp, _ = h.post(path+"/dates", url.Values{"_method": {"PUT"}, "check_in": {"2025-06-09"}, "check_out": {"2025-06-11"}})
	assertStatus(t, resp, http.StatusConflict)
	resp, _ = h.post(path+"/dates", url.Values{"_method": {"PUT"}, "check_in": {"2025-06-02"}, "check_out": {"2025-06-06"}})
	assertRedirect(t, resp, path)

	resp, _ = h.post("/admin/rooms/"+strconv.FormatInt(roomID, 10), url.Values{"_method": {"DELETE"}})
	assertRedirect(t, resp, "/admin/rooms")
	_, body = h.get("/admin/rooms")
	if !strings.Contains(body, "Room 101") && !strings.Contains(body, "101") {
		t.Error("a room with bookings must not be deleted")
	}

	resp, _ = h.post("/admin/rooms", url.Values{
		"room_type_id": {"1"},
		"room_number":  {"204"},
		"floor":        {"2"},
		"price":        {"180.00"},
		"status":       {model.RoomStatusAvailable},
		"images":       {"/static/img/204.jpg"},
	})
	assertRedirect(t, resp, "/admin/rooms")
	_, body = h.get("/rooms")
	if !strings.Contains(body, "Room 204") {
		t.Error("new room should be listed")
	}
}

func TestReadyProbesBackend(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/ready")
	assertStatus(t, resp, http.StatusOK)

	_ = h.db.Close()
	resp, _ = h.get("/ready")
	assertStatus(t, resp, http.StatusServiceUnavailable)
}

func TestNewFailsOnBrokenDependency(t *testing.T) {
	cfg := testConfig()
	cfg.SessionStore = config.SessionStoreRedis
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := New(cfg, NewSQLiteBackend(testutil.NewSQLite(t), cfg.Log), Options{BcryptCost: bcrypt.MinCost})
	if err == nil {
		t.Fatal("expected an error for an unreachable Redis")
	}
}
