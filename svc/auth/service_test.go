package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrmsu/libraryid/pkg/envelope"
	"github.com/jrmsu/libraryid/pkg/session"
	"github.com/jrmsu/libraryid/pkg/totp"
	"github.com/jrmsu/libraryid/pkg/totpremote"
	"github.com/jrmsu/libraryid/svc/auth"
	"github.com/jrmsu/libraryid/svc/identity"
)

const studentSecret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

// start is aligned to a 30s step boundary.
var start = time.Unix(1_700_000_010, 0).UTC()

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type env struct {
	svc      *auth.Service
	ids      *identity.MemoryStore
	sessions *session.MemoryStore
	clock    *clock
	codec    *envelope.Codec
}

func hash(t *testing.T, pw string) string {
	t.Helper()
	h, err := identity.HashPassword(pw, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func newEnv(t *testing.T, opts ...auth.Option) *env {
	t.Helper()

	ids, err := identity.NewMemoryStore(
		identity.Record{ID: "KCL-00001", Role: envelope.Admin, FullName: "Lib Admin", Email: "admin@jrmsu.edu.ph", PasswordHash: hash(t, "admin-pass"), Active: true},
		identity.Record{ID: "KC-24-A-00001", Role: envelope.Student, FullName: "Maria Cruz", Email: "maria@jrmsu.edu.ph", PasswordHash: hash(t, "student-pass"), TOTPSecret: studentSecret, SecondFactorEnabled: true, Active: true},
		identity.Record{ID: "KC-24-B-00002", Role: envelope.Student, FullName: "Gone Student", PasswordHash: hash(t, "gone-pass")},
	)
	require.NoError(t, err)

	clk := &clock{now: start}
	store := session.NewMemoryStore(30*time.Minute, 0)
	t.Cleanup(store.Close)
	codec := envelope.New(envelope.WithClock(clk.Now))

	base := []auth.Option{auth.WithClock(clk.Now)}
	svc := auth.New(ids, session.NewManager(store, session.WithClock(clk.Now)), codec, append(base, opts...)...)
	return &env{svc: svc, ids: ids, sessions: store, clock: clk, codec: codec}
}

func code(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	c, err := totp.CodeAt(secret, at)
	require.NoError(t, err)
	return c
}

func TestSubmitPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		id, pass string
		role     envelope.UserType
		want     auth.State
		wantErr  error
	}{
		{"admin without second factor", "KCL-00001", "admin-pass", envelope.Admin, auth.Authenticated, nil},
		{"student with second factor", "KC-24-A-00001", "student-pass", envelope.Student, auth.AwaitingSecondFactor, nil},
		{"wrong password", "KCL-00001", "nope", envelope.Admin, auth.Unauthenticated, auth.ErrAuthenticationFailed},
		{"unknown id", "KCL-04040", "admin-pass", envelope.Admin, auth.Unauthenticated, auth.ErrAuthenticationFailed},
		{"id does not match claimed role", "KCL-00001", "admin-pass", envelope.Student, auth.Unauthenticated, auth.ErrAuthenticationFailed},
		{"malformed admin id", "KCL-0001", "admin-pass", envelope.Admin, auth.Unauthenticated, auth.ErrAuthenticationFailed},
		{"unknown role", "KCL-00001", "admin-pass", "guest", auth.Unauthenticated, auth.ErrAuthenticationFailed},
		{"inactive identity", "KC-24-B-00002", "gone-pass", envelope.Student, auth.Unauthenticated, auth.ErrAuthenticationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEnv(t)

			out, err := e.svc.SubmitPassword(context.Background(), tt.id, tt.pass, tt.role)
			assert.Equal(t, tt.want, out.State)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, e.sessions.Len(), "no session on failure")
				return
			}
			require.NoError(t, err)

			switch tt.want {
			case auth.Authenticated:
				require.NotNil(t, out.Session)
				assert.Equal(t, tt.id, out.Session.Identity.ID)
				assert.Equal(t, string(tt.role), out.Session.Role)
				assert.Equal(t, 1, e.sessions.Len())
			case auth.AwaitingSecondFactor:
				assert.NotEmpty(t, out.AttemptID)
				assert.Nil(t, out.Session)
				assert.Equal(t, 0, e.sessions.Len())
			}
		})
	}
}

func TestSubmitSecondFactor(t *testing.T) {
	t.Parallel()

	t.Run("failed codes never authenticate", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		ctx := context.Background()

		out, err := e.svc.SubmitPassword(ctx, "KC-24-A-00001", "student-pass", envelope.Student)
		require.NoError(t, err)

		wrong := code(t, studentSecret, start.Add(time.Hour))
		for _, c := range []string{wrong, "12ab56", "", "1234567", wrong} {
			got, err := e.svc.SubmitSecondFactor(ctx, out.AttemptID, c)
			assert.ErrorIs(t, err, auth.ErrInvalidSecondFactorCode)
			assert.Equal(t, auth.AwaitingSecondFactor, got.State)
			assert.Equal(t, out.AttemptID, got.AttemptID)
		}
		assert.Equal(t, 0, e.sessions.Len())

		got, err := e.svc.SubmitSecondFactor(ctx, out.AttemptID, code(t, studentSecret, start))
		require.NoError(t, err)
		assert.Equal(t, auth.Authenticated, got.State)
		require.NotNil(t, got.Session)
		assert.True(t, got.Session.SecondFactorEnabled)
		assert.Equal(t, 1, e.sessions.Len())

		_, err = e.svc.SubmitSecondFactor(ctx, out.AttemptID, code(t, studentSecret, start))
		assert.ErrorIs(t, err, auth.ErrAttemptNotFound, "attempts cannot be replayed")
	})

	t.Run("codes with spaces are accepted", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		out, err := e.svc.SubmitPassword(context.Background(), "KC-24-A-00001", "student-pass", envelope.Student)
		require.NoError(t, err)

		c := code(t, studentSecret, start)
		got, err := e.svc.SubmitSecondFactor(context.Background(), out.AttemptID, c[:3]+" "+c[3:])
		require.NoError(t, err)
		assert.Equal(t, auth.Authenticated, got.State)
	})

	t.Run("local window tolerates drift", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name  string
			shift time.Duration
			ok    bool
		}{
			{"five steps behind", -150 * time.Second, true},
			{"five steps ahead", 150 * time.Second, true},
			{"six steps behind", -180 * time.Second, false},
			{"six steps ahead", 180 * time.Second, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				e := newEnv(t)
				out, err := e.svc.SubmitPassword(context.Background(), "KC-24-A-00001", "student-pass", envelope.Student)
				require.NoError(t, err)

				got, err := e.svc.SubmitSecondFactor(context.Background(), out.AttemptID, code(t, studentSecret, start.Add(tt.shift)))
				if tt.ok {
					require.NoError(t, err)
					assert.Equal(t, auth.Authenticated, got.State)
					return
				}
				assert.ErrorIs(t, err, auth.ErrInvalidSecondFactorCode)
			})
		}
	})

	t.Run("attempt expires", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		out, err := e.svc.SubmitPassword(context.Background(), "KC-24-A-00001", "student-pass", envelope.Student)
		require.NoError(t, err)

		e.clock.Advance(11 * time.Minute)
		_, err = e.svc.SubmitSecondFactor(context.Background(), out.AttemptID, code(t, studentSecret, e.clock.Now()))
		assert.ErrorIs(t, err, auth.ErrAttemptNotFound)
	})

	t.Run("cancelled attempt", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		out, err := e.svc.SubmitPassword(context.Background(), "KC-24-A-00001", "student-pass", envelope.Student)
		require.NoError(t, err)

		e.svc.CancelAttempt(context.Background(), out.AttemptID)
		_, err = e.svc.SubmitSecondFactor(context.Background(), out.AttemptID, code(t, studentSecret, start))
		assert.ErrorIs(t, err, auth.ErrAttemptNotFound)
	})

	t.Run("unknown attempt", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		_, err := e.svc.SubmitSecondFactor(context.Background(), "nope", "123456")
		assert.ErrorIs(t, err, auth.ErrAttemptNotFound)
	})
}

type fakeRemote struct {
	calls chan totpremote.Request
	valid bool
	err   error
}

func (f *fakeRemote) Verify(_ context.Context, req totpremote.Request) (bool, error) {
	f.calls <- req
	return f.valid, f.err
}

func TestSubmitSecondFactor_RemoteIsAdvisory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		remote *fakeRemote
	}{
		{"remote unreachable", &fakeRemote{calls: make(chan totpremote.Request, 1), err: errors.New("dial tcp: refused")}},
		{"remote disagrees", &fakeRemote{calls: make(chan totpremote.Request, 1), valid: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEnv(t, auth.WithRemoteVerifier(tt.remote))
			out, err := e.svc.SubmitPassword(context.Background(), "KC-24-A-00001", "student-pass", envelope.Student)
			require.NoError(t, err)

			c := code(t, studentSecret, start)
			got, err := e.svc.SubmitSecondFactor(context.Background(), out.AttemptID, c)
			require.NoError(t, err)
			assert.Equal(t, auth.Authenticated, got.State)

			select {
			case req := <-tt.remote.calls:
				assert.Equal(t, totpremote.Request{Secret: studentSecret, Token: c, Window: 2}, req)
			case <-time.After(time.Second):
				t.Fatal("advisory check was not sent")
			}
		})
	}
}

func TestPresentQR(t *testing.T) {
	t.Parallel()

	encode := func(t *testing.T, e *env, id identity.Record, age time.Duration) string {
		t.Helper()
		codec := envelope.New(envelope.WithClock(func() time.Time { return e.clock.Now().Add(-age) }))
		text, err := codec.Encode(id.EnvelopeIdentity())
		require.NoError(t, err)
		return text
	}
	lookup := func(t *testing.T, e *env, id string) identity.Record {
		t.Helper()
		rec, err := e.ids.GetByID(context.Background(), id)
		require.NoError(t, err)
		return rec
	}

	t.Run("admin envelope signs in", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		out, err := e.svc.PresentQR(context.Background(), encode(t, e, lookup(t, e, "KCL-00001"), 0))
		require.NoError(t, err)
		assert.Equal(t, auth.Authenticated, out.State)
		assert.Empty(t, out.Warnings)
		require.NotNil(t, out.Session)
		assert.Equal(t, "KCL-00001", out.Session.Identity.ID)
	})

	t.Run("stale envelope passes with warning", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		out, err := e.svc.PresentQR(context.Background(), encode(t, e, lookup(t, e, "KCL-00001"), 45*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, auth.Authenticated, out.State)
		require.Len(t, out.Warnings, 1)
		assert.Contains(t, out.Warnings[0], "ago")
	})

	t.Run("second factor still required", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		out, err := e.svc.PresentQR(context.Background(), encode(t, e, lookup(t, e, "KC-24-A-00001"), 0))
		require.NoError(t, err)
		assert.Equal(t, auth.AwaitingSecondFactor, out.State)

		got, err := e.svc.SubmitSecondFactor(context.Background(), out.AttemptID, code(t, studentSecret, start))
		require.NoError(t, err)
		assert.Equal(t, auth.Authenticated, got.State)
	})

	t.Run("tampered tag", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		text := encode(t, e, lookup(t, e, "KC-24-A-00001"), 0)
		text = strings.Replace(text, envelope.TagStudent, envelope.TagAdmin, 1)

		out, err := e.svc.PresentQR(context.Background(), text)
		assert.ErrorIs(t, err, envelope.ErrRoleTagMismatch)
		assert.Equal(t, auth.Unauthenticated, out.State)
		assert.Equal(t, 0, e.sessions.Len())
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		_, err := e.svc.PresentQR(context.Background(), "{not json")
		assert.ErrorIs(t, err, envelope.ErrMalformed)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		ghost := identity.Record{ID: "KCL-09999", Role: envelope.Admin, FullName: "Ghost"}
		_, err := e.svc.PresentQR(context.Background(), encode(t, e, ghost, 0))
		assert.ErrorIs(t, err, auth.ErrAuthenticationFailed)
	})

	t.Run("inactive user", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		_, err := e.svc.PresentQR(context.Background(), encode(t, e, lookup(t, e, "KC-24-B-00002"), 0))
		assert.ErrorIs(t, err, auth.ErrAuthenticationFailed)
	})
}

func TestSignOutAndCurrent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	out, err := e.svc.SubmitPassword(ctx, "KCL-00001", "admin-pass", envelope.Admin)
	require.NoError(t, err)

	cur, err := e.svc.Current(ctx, out.Session.Key)
	require.NoError(t, err)
	assert.Equal(t, "KCL-00001", cur.Identity.ID)

	e.clock.Advance(31 * time.Minute)
	_, err = e.svc.Current(ctx, out.Session.Key)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	assert.ErrorIs(t, err, session.ErrExpired)

	out, err = e.svc.SubmitPassword(ctx, "KCL-00001", "admin-pass", envelope.Admin)
	require.NoError(t, err)
	require.NoError(t, e.svc.SignOut(ctx, out.Session.Key))
	_, err = e.svc.Current(ctx, out.Session.Key)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

type slowStore struct {
	identity.Store
}

func (slowStore) Authenticate(ctx context.Context, _, _ string) (identity.Record, error) {
	<-ctx.Done()
	return identity.Record{}, ctx.Err()
}

func TestSubmitPassword_StoreTimeout(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(time.Minute, 0)
	t.Cleanup(store.Close)
	cfg := auth.DefaultConfig()
	cfg.StoreTimeout = 20 * time.Millisecond
	svc := auth.New(slowStore{}, session.NewManager(store), envelope.New(), auth.WithConfig(cfg))

	_, err := svc.SubmitPassword(context.Background(), "KCL-00001", "x", envelope.Admin)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, auth.ErrAuthenticationFailed)
}
