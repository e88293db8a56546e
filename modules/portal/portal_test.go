package portal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrmsu/libraryid/handler"
	"github.com/jrmsu/libraryid/modules/portal"
	"github.com/jrmsu/libraryid/pkg/envelope"
	"github.com/jrmsu/libraryid/pkg/httpserver"
	"github.com/jrmsu/libraryid/pkg/qrcode"
	"github.com/jrmsu/libraryid/pkg/resetlimit"
	"github.com/jrmsu/libraryid/pkg/session"
	"github.com/jrmsu/libraryid/pkg/totp"
	"github.com/jrmsu/libraryid/pkg/totpremote"
	"github.com/jrmsu/libraryid/svc/auth"
	"github.com/jrmsu/libraryid/svc/identity"
	"github.com/jrmsu/libraryid/svc/reset"
)

const mariaSecret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

type fakeNotifier struct {
	mu        sync.Mutex
	requested int
	decided   []reset.Decision
}

func (f *fakeNotifier) ResetRequested(context.Context, []identity.Record, identity.Record, int, time.Time) error {
	f.mu.Lock()
	f.requested++
	f.mu.Unlock()
	return nil
}

func (f *fakeNotifier) ResetDecided(_ context.Context, _ []identity.Record, _ identity.Record, d reset.Decision) error {
	f.mu.Lock()
	f.decided = append(f.decided, d)
	f.mu.Unlock()
	return nil
}

func (f *fakeNotifier) counts() (requested, decided int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requested, len(f.decided)
}

type fixture struct {
	srv      *httptest.Server
	clock    *clock
	codec    *envelope.Codec
	ids      *identity.MemoryStore
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hash := func(pw string) string {
		h, err := identity.HashPassword(pw, bcrypt.MinCost)
		require.NoError(t, err)
		return h
	}
	ids, err := identity.NewMemoryStore(
		identity.Record{ID: "KCL-00001", Role: envelope.Admin, FullName: "Head Librarian", Email: "head@jrmsu.edu.ph", Position: "Librarian", PasswordHash: hash("admin-pass"), Active: true},
		identity.Record{ID: "KC-24-A-00001", Role: envelope.Student, FullName: "Maria Cruz", Email: "maria@jrmsu.edu.ph", PasswordHash: hash("maria-pass"), TOTPSecret: mariaSecret, SecondFactorEnabled: true, Active: true},
		identity.Record{ID: "KC-23-A-00762", Role: envelope.Student, FullName: "Juan Dela Cruz", Email: "juan@jrmsu.edu.ph", Course: "BSIT", PasswordHash: hash("juan-pass"), Active: true},
	)
	require.NoError(t, err)

	clk := &clock{now: time.Unix(1_700_000_010, 0).UTC()}
	store := session.NewMemoryStore(30*time.Minute, 0)
	t.Cleanup(store.Close)
	sessions := session.NewManager(store, session.WithClock(clk.Now))
	codec := envelope.New(envelope.WithClock(clk.Now))
	authSvc := auth.New(ids, sessions, codec, auth.WithClock(clk.Now))

	limiter, err := resetlimit.New(resetlimit.NewMemoryStore(), resetlimit.DefaultConfig(), resetlimit.WithClock(clk.Now))
	require.NoError(t, err)
	notifier := &fakeNotifier{}
	resetSvc := reset.New(ids, limiter, notifier, reset.WithClock(clk.Now))

	cookies := session.NewCookieTransport(session.DefaultConfig())
	guard := portal.NewGuard(authSvc, cookies, nil)
	router := portal.Router(portal.RouterOptions{
		Auth:     portal.NewAuthService(authSvc, guard, cookies, nil),
		Account:  portal.NewAccountService(authSvc, guard, qrcode.Default, nil),
		Password: portal.NewPasswordService(resetSvc, guard, nil, clk.Now),
		Verify:   totpremote.NewHandler(totpremote.WithClock(clk.Now)),
		Checks:   []httpserver.Check{{Name: "memory", Probe: func(context.Context) error { return nil }}},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, clock: clk, codec: codec, ids: ids, notifier: notifier}
}

// client is a browser-like client with its own cookie jar.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (f *fixture) client(t *testing.T) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: f.srv.URL, http: &http.Client{Jar: jar}}
}

type reply struct {
	status int
	header http.Header
	raw    []byte
	data   json.RawMessage
	err    *handler.ErrorDetail
}

func (c *client) do(method, path string, body any) reply {
	c.t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	r := reply{status: resp.StatusCode, header: resp.Header, raw: raw}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		var env struct {
			Data  json.RawMessage      `json:"data"`
			Error *handler.ErrorDetail `json:"error"`
		}
		if json.Unmarshal(raw, &env) == nil {
			r.data, r.err = env.Data, env.Error
		}
	}
	return r
}

func into[T any](t *testing.T, r reply) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.data, &v), string(r.raw))
	return v
}

func (f *fixture) code(t *testing.T, secret string) string {
	t.Helper()
	c, err := totp.CodeAt(secret, f.clock.Now())
	require.NoError(t, err)
	return c
}

func TestPasswordSignIn_WithoutSecondFactor(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.client(t)

	r := c.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "auth.not_authenticated", r.err.Code)

	r = c.do(http.MethodPost, "/auth/login", portal.LoginRequest{ID: "KC-23-A-00762", Password: "juan-pass", Role: "student"})
	require.Equal(t, http.StatusOK, r.status, string(r.raw))
	view := into[portal.SignInView](t, r)
	assert.Equal(t, auth.Authenticated, view.State)
	require.NotNil(t, view.User)
	assert.Equal(t, "Juan Dela Cruz", view.User.FullName)
	assert.Equal(t, "BSIT", view.User.Course)
	assert.NotContains(t, string(r.raw), "totp")

	r = c.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "KC-23-A-00762", into[portal.UserView](t, r).ID)

	r = c.do(http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, r.status)
	r = c.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, r.status)
}

func TestPasswordSignIn_Rejections(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.client(t)

	tests := []struct {
		name    string
		body    any
		status  int
		code    string
		details []string
	}{
		{name: "wrong password", body: portal.LoginRequest{ID: "KC-23-A-00762", Password: "nope", Role: "student"}, status: http.StatusUnauthorized, code: "auth.authentication_failed"},
		{name: "role mismatch", body: portal.LoginRequest{ID: "KCL-00001", Password: "admin-pass", Role: "student"}, status: http.StatusUnauthorized, code: "auth.authentication_failed"},
		{name: "unknown id", body: portal.LoginRequest{ID: "KC-23-A-99999", Password: "juan-pass", Role: "student"}, status: http.StatusUnauthorized, code: "auth.authentication_failed"},
		{name: "missing fields", body: portal.LoginRequest{Role: "librarian"}, status: http.StatusUnprocessableEntity, code: "validation_error", details: []string{"id", "password", "role"}},
		{name: "unknown field", body: map[string]string{"id": "x", "password": "y", "role": "student", "otp": "1"}, status: http.StatusBadRequest, code: "bad_request"},
	}
	for _, tt := range tests {
		r := c.do(http.MethodPost, "/auth/login", tt.body)
		assert.Equal(t, tt.status, r.status, tt.name)
		require.NotNil(t, r.err, tt.name)
		assert.Equal(t, tt.code, r.err.Code, tt.name)
		for _, field := range tt.details {
			assert.Contains(t, r.err.Details, field, tt.name)
		}
	}
}

func TestPasswordSignIn_SecondFactor(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.client(t)

	r := c.do(http.MethodPost, "/auth/login", portal.LoginRequest{ID: "KC-24-A-00001", Password: "maria-pass", Role: "student"})
	require.Equal(t, http.StatusAccepted, r.status, string(r.raw))
	view := into[portal.SignInView](t, r)
	assert.Equal(t, auth.AwaitingSecondFactor, view.State)
	require.NotEmpty(t, view.AttemptID)
	assert.Nil(t, view.User)

	r = c.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, r.status, "no session before the second factor")

	r = c.do(http.MethodPost, "/auth/2fa", portal.SecondFactorRequest{AttemptID: view.AttemptID, Code: "000000"})
	require.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "auth.invalid_or_expired_code", r.err.Code)

	r = c.do(http.MethodPost, "/auth/2fa", portal.SecondFactorRequest{AttemptID: view.AttemptID, Code: f.code(t, mariaSecret)})
	require.Equal(t, http.StatusOK, r.status, string(r.raw))
	assert.Equal(t, auth.Authenticated, into[portal.SignInView](t, r).State)

	r = c.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.True(t, into[portal.UserView](t, r).SecondFactorEnabled)

	r = c.do(http.MethodPost, "/auth/2fa", portal.SecondFactorRequest{AttemptID: view.AttemptID, Code: f.code(t, mariaSecret)})
	assert.Equal(t, http.StatusNotFound, r.status, "attempt is consumed")
}

func TestSecondFactor_Cancel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.client(t)

	r := c.do(http.MethodPost, "/auth/login", portal.LoginRequest{ID: "KC-24-A-00001", Password: "maria-pass", Role: "student"})
	require.Equal(t, http.StatusAccepted, r.status)
	attempt := into[portal.SignInView](t, r).AttemptID

	r = c.do(http.MethodPost, "/auth/2fa/cancel", portal.CancelRequest{AttemptID: attempt})
	assert.Equal(t, http.StatusNoContent, r.status)

	r = c.do(http.MethodPost, "/auth/2fa", portal.SecondFactorRequest{AttemptID: attempt, Code: f.code(t, mariaSecret)})
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "auth.attempt_not_found", r.err.Code)
}

func TestQRSignIn(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	adminRec, err := f.ids.GetByID(context.Background(), "KCL-00001")
	require.NoError(t, err)
	payload, err := f.codec.Encode(adminRec.EnvelopeIdentity())
	require.NoError(t, err)

	c := f.client(t)
	r := c.do(http.MethodPost, "/auth/qr", portal.QRRequest{Payload: payload})
	require.Equal(t, http.StatusOK, r.status, string(r.raw))
	view := into[portal.SignInView](t, r)
	assert.Equal(t, auth.Authenticated, view.State)
	assert.Equal(t, "admin", view.User.Role)
	assert.Empty(t, view.Warnings)

	tests := []struct {
		name    string
		payload string
		status  int
		code    string
	}{
		{name: "not json", payload: "hello", status: http.StatusBadRequest, code: "qr.malformed"},
		{name: "foreign system", payload: `{"fullName":"X","userId":"KCL-00001","userType":"admin","systemId":"OTHER","systemTag":"JRMSU-KCL","timestamp":1,"authCode":"a","encryptedToken":"b"}`, status: http.StatusBadRequest, code: "qr.unrecognized_system"},
		{name: "blank", payload: "  ", status: http.StatusUnprocessableEntity, code: "validation_error"},
	}
	for _, tt := range tests {
		r := f.client(t).do(http.MethodPost, "/auth/qr", portal.QRRequest{Payload: tt.payload})
		assert.Equal(t, tt.status, r.status, tt.name)
		require.NotNil(t, r.err, tt.name)
		assert.Equal(t, tt.code, r.err.Code, tt.name)
	}
}

func TestAccount_SecondFactorLifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.client(t)

	r := c.do(http.MethodPost, "/account/2fa/setup", nil)
	require.Equal(t, http.StatusUnauthorized, r.status)

	r = c.do(http.MethodPost, "/auth/login", portal.LoginRequest{ID: "KC-23-A-00762", Password: "juan-pass", Role: "student"})
	require.Equal(t, http.StatusOK, r.status)

	r = c.do(http.MethodPost, "/account/2fa/setup", nil)
	require.Equal(t, http.StatusOK, r.status, string(r.raw))
	enr := into[portal.EnrollmentView](t, r)
	assert.Len(t, enr.Secret, 32)
	assert.Contains(t, enr.URI, "otpauth://totp/")
	assert.Contains(t, enr.QRCode, "data:image/png;base64,")

	again := into[portal.EnrollmentView](t, c.do(http.MethodPost, "/account/2fa/setup", nil))
	assert.Equal(t, enr.Secret, again.Secret, "setup reuses the pending secret")

	rotated := into[portal.EnrollmentView](t, c.do(http.MethodPost, "/account/2fa/regenerate", nil))
	assert.NotEqual(t, enr.Secret, rotated.Secret)

	r = c.do(http.MethodPost, "/account/2fa/enable", portal.EnableRequest{Secret: rotated.Secret, Code: "000000"})
	if f.code(t, rotated.Secret) != "000000" {
		require.Equal(t, http.StatusUnauthorized, r.status)
	}

	r = c.do(http.MethodPost, "/account/2fa/enable", portal.EnableRequest{Secret: rotated.Secret, Code: f.code(t, rotated.Secret)})
	require.Equal(t, http.StatusOK, r.status, string(r.raw))
	assert.True(t, into[portal.SecondFactorStatus](t, r).SecondFactorEnabled)

	fresh, err := totp.GenerateSecretKey()
	require.NoError(t, err)
	r = c.do(http.MethodPost, "/account/2fa/enable", portal.EnableRequest{Secret: fresh, Code: f.code(t, fresh)})
	assert.Equal(t, http.StatusConflict, r.status)
	assert.Equal(t, "auth.second_factor_enabled", r.err.Code)

	r = c.do(http.MethodPost, "/account/2fa/regenerate", nil)
	assert.Equal(t, http.StatusConflict, r.status)
	assert.Equal(t, "auth.second_factor_enabled", r.err.Code)

	rec, err := f.ids.GetByID(context.Background(), "KC-23-A-00762")
	require.NoError(t, err)
	assert.True(t, rec.SecondFactorEnabled)
	assert.Equal(t, rotated.Secret, rec.TOTPSecret)

	r = c.do(http.MethodPost, "/account/2fa/disable", nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.False(t, into[portal.SecondFactorStatus](t, r).SecondFactorEnabled)

	r = c.do(http.MethodPost, "/account/2fa/disable", nil)
	assert.Equal(t, http.StatusConflict, r.status)
	assert.Equal(t, "auth.second_factor_not_enabled", r.err.Code)

	r = c.do(http.MethodPost, "/account/2fa/enable", portal.EnableRequest{Secret: "not base32!", Code: "123456"})
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
}

func TestAccount_ProfileQR(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.client(t)

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/account/qr", nil).status)

	r := c.do(http.MethodPost, "/auth/login", portal.LoginRequest{ID: "KCL-00001", Password: "admin-pass", Role: "admin"})
	require.Equal(t, http.StatusOK, r.status)

	r = c.do(http.MethodGet, "/account/qr", nil)
	require.Equal(t, http.StatusOK, r.status, string(r.raw))
	view := into[portal.ProfileQRView](t, r)
	assert.Contains(t, view.QRCode, "data:image/png;base64,")

	res, err := f.codec.Decode(view.Payload)
	require.NoError(t, err)
	assert.Equal(t, "KCL-00001", res.Envelope.UserID)
	assert.Equal(t, envelope.TagAdmin, res.Envelope.SystemTag)

	r = c.do(http.MethodGet, "/account/qr?format=png", nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "image/png", r.header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(r.raw, []byte("\x89PNG")))

	r = c.do(http.MethodGet, "/account/qr?format=svg", nil)
	assert.Equal(t, http.StatusBadRequest, r.status)
}

func TestPasswordReset_RequestAndLockout(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.client(t)

	for i := 1; i <= 5; i++ {
		r := c.do(http.MethodPost, "/password/admin-request", portal.AdminResetRequest{Email: "Juan@JRMSU.edu.ph"})
		require.Equal(t, http.StatusAccepted, r.status, string(r.raw))
		rcpt := into[portal.ResetReceiptView](t, r)
		assert.Equal(t, "KC-23-A-00762", rcpt.RequesterID)
		assert.Equal(t, i, rcpt.Attempts)
		assert.Equal(t, i == 5, rcpt.BlockedUntil != nil)
	}

	r := c.do(http.MethodPost, "/password/admin-request", portal.AdminResetRequest{Email: "juan@jrmsu.edu.ph"})
	require.Equal(t, http.StatusTooManyRequests, r.status)
	assert.Equal(t, "reset.blocked", r.err.Code)
	assert.Equal(t, "300", r.header.Get("Retry-After"))
	requested, _ := f.notifier.counts()
	assert.Equal(t, 5, requested)

	r = c.do(http.MethodPost, "/password/admin-request", portal.AdminResetRequest{Email: "nobody@jrmsu.edu.ph"})
	assert.Equal(t, http.StatusNotFound, r.status)
	r = c.do(http.MethodPost, "/password/admin-request", portal.AdminResetRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
	assert.Equal(t, "reset.missing_requester", r.err.Code)
}

func TestPasswordReset_AdminRespond(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	anon := f.client(t)
	r := anon.do(http.MethodPost, "/password/admin-respond", portal.AdminResetResponse{RequesterID: "KC-23-A-00762", Action: "grant"})
	assert.Equal(t, http.StatusUnauthorized, r.status)

	student := f.client(t)
	require.Equal(t, http.StatusOK, student.do(http.MethodPost, "/auth/login", portal.LoginRequest{ID: "KC-23-A-00762", Password: "juan-pass", Role: "student"}).status)
	r = student.do(http.MethodPost, "/password/admin-respond", portal.AdminResetResponse{RequesterID: "KC-23-A-00762", Action: "grant"})
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "auth.forbidden", r.err.Code)

	admin := f.client(t)
	require.Equal(t, http.StatusOK, admin.do(http.MethodPost, "/auth/login", portal.LoginRequest{ID: "KCL-00001", Password: "admin-pass", Role: "admin"}).status)

	r = admin.do(http.MethodPost, "/password/admin-respond", portal.AdminResetResponse{RequesterID: "KC-23-A-00762", Action: "approve"})
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
	assert.Equal(t, "reset.invalid_action", r.err.Code)

	r = admin.do(http.MethodPost, "/password/admin-respond", portal.AdminResetResponse{RequesterID: "KC-23-A-00762", Action: "grant"})
	require.Equal(t, http.StatusOK, r.status, string(r.raw))
	d := into[portal.DecisionView](t, r)
	assert.Equal(t, "grant", d.Action)
	assert.Equal(t, "KCL-00001", d.AdminID)
	assert.Equal(t, "Password reset request for Juan Dela Cruz (KC-23-A-00762) has been granted.", d.Message)
	_, decided := f.notifier.counts()
	assert.Equal(t, 1, decided)
}

func TestVerifyAndProbes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.client(t)

	r := c.do(http.MethodPost, "/2fa/verify", totpremote.Request{Secret: mariaSecret, Token: f.code(t, mariaSecret), Window: 2})
	require.Equal(t, http.StatusOK, r.status)
	var out totpremote.Response
	require.NoError(t, json.Unmarshal(r.raw, &out))
	assert.True(t, out.Valid)

	r = c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, r.status)
	r = c.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, string(r.raw), "READY")

	r = c.do(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "not_found", r.err.Code)
}
