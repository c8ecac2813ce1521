package httpx

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booksampler/internal/platform/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000", "http://localhost:5173"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	allowed := w.Header().Get("Access-Control-Allow-Headers")
	assert.Contains(t, allowed, "Authorization")
	assert.Contains(t, allowed, "X-Admin-Secret")
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Origin", "http://evil.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSMiddleware_OPTIONSRequest(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/favourites/book/1/toggle", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	testCases := []struct {
		name     string
		hsts     bool
		wantHSTS string
	}{
		{"without hsts", false, ""},
		{"with hsts", true, "max-age=31536000; includeSubDomains"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SecurityHeadersMiddleware(tc.hsts)(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))

			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
			assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
			assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
			assert.Equal(t, tc.wantHSTS, w.Header().Get("Strict-Transport-Security"))
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	testCases := []struct {
		name     string
		limit    int64
		size     int
		wantCode int
	}{
		{"under limit", 1024, 512, http.StatusOK},
		{"over limit", 1024, 2048, http.StatusRequestEntityTooLarge},
		{"small limit", 100, 500, http.StatusRequestEntityTooLarge},
		{"large limit", 10000, 500, http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequestSizeLimitMiddleware(tc.limit)(okHandler())
			req := httptest.NewRequest(http.MethodPost, "/admin/books/import", bytes.NewBuffer(make([]byte, tc.size)))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			if tc.wantCode == http.StatusRequestEntityTooLarge {
				assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r)
	}))

	testCases := []struct {
		name   string
		header string
		keep   bool
	}{
		{"generates an id", "", false},
		{"keeps a well-formed id", "req-42.a_b", true},
		{"replaces an id with spaces", "req 42", false},
		{"replaces an id with a newline", "req\nforged=1", false},
		{"replaces an overlong id", strings.Repeat("a", 65), false},
		{"keeps a 64 character id", strings.Repeat("a", 64), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/books", nil)
			if tc.header != "" {
				req.Header[requestIDHeader] = []string{tc.header}
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get(requestIDHeader))
			if tc.keep {
				assert.Equal(t, tc.header, seen)
			} else {
				assert.NotEqual(t, tc.header, seen)
				assert.Len(t, seen, 36)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	buf := captureLog(t)
	handler := AccessLogMiddleware(RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "panic method=GET path=/books")
	assert.Contains(t, buf.String(), "status=500")
}

func TestRecoveryMiddleware_AfterHeaderWritten(t *testing.T) {
	captureLog(t)
	handler := AccessLogMiddleware(RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestAccessLogMiddleware_RecordsUser(t *testing.T) {
	buf := captureLog(t)
	handler := AccessLogMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(ContextWithUser(r.Context(), 17, "USER"))
		_, _ = w.Write([]byte("hello"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reviews/my", nil))

	line := buf.String()
	assert.Contains(t, line, "path=/reviews/my")
	assert.Contains(t, line, "status=200")
	assert.Contains(t, line, "bytes=5")
	assert.Contains(t, line, "user_id=17")
}

func TestAdminSecretMiddleware(t *testing.T) {
	testCases := []struct {
		name     string
		secret   string
		header   string
		wantCode int
	}{
		{"disabled without secret", "", "anything", http.StatusForbidden},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong header", "s3cret", "guess", http.StatusUnauthorized},
		{"matching header", "s3cret", "s3cret", http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AdminSecretMiddleware(tc.secret)(okHandler())
			req := httptest.NewRequest(http.MethodPost, "/admin/books/import", nil)
			if tc.header != "" {
				req.Header.Set("X-Admin-Secret", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tc.wantCode, w.Code)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimitMiddleware(ctx, 0.001, 2)
	handler := rl.Middleware(okHandler())

	send := func(remote string, userID int64) int {
		req := httptest.NewRequest(http.MethodPost, "/admin/books/import", nil)
		req.RemoteAddr = remote
		if userID > 0 {
			req = req.WithContext(ContextWithUser(req.Context(), userID, "USER"))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("per address, ignoring the port", func(t *testing.T) {
		codes := []int{send("10.0.0.1:1234", 0), send("10.0.0.1:5678", 0), send("10.0.0.1:9999", 0)}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
		assert.Equal(t, http.StatusOK, send("10.0.0.2:1234", 0))
	})

	t.Run("per user, across addresses", func(t *testing.T) {
		codes := []int{send("10.1.0.1:1", 9), send("10.1.0.2:1", 9), send("10.1.0.3:1", 9)}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
		assert.Equal(t, http.StatusOK, send("10.1.0.3:1", 10))
	})
}

func TestRateLimitMiddleware_EvictIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimitMiddleware(ctx, 1, 1)

	rl.allow("ip:a")
	rl.allow("ip:b")
	rl.limiters["ip:a"].lastSeen = time.Now().Add(-time.Hour)

	rl.evictIdle(time.Now(), time.Minute)

	assert.NotContains(t, rl.limiters, "ip:a")
	assert.Contains(t, rl.limiters, "ip:b")
}

func TestRateLimitMiddleware_SweepStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rl := &RateLimitMiddleware{limiters: map[string]*clientLimiter{}}

	done := make(chan struct{})
	go func() {
		rl.sweep(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not return after cancel")
	}
}

func TestClientKey(t *testing.T) {
	testCases := []struct {
		name      string
		remote    string
		forwarded string
		userID    int64
		want      string
	}{
		{"remote host", "192.0.2.1:4000", "", 0, "ip:192.0.2.1"},
		{"ipv6 remote host", "[2001:db8::1]:4000", "", 0, "ip:2001:db8::1"},
		{"first forwarded hop", "10.0.0.1:1", " 203.0.113.5 , 10.0.0.1", 0, "ip:203.0.113.5"},
		{"remote without port", "pipe", "", 0, "ip:pipe"},
		{"authenticated user", "192.0.2.1:4000", "203.0.113.5", 3, "user:3"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.userID > 0 {
				req = req.WithContext(ContextWithUser(req.Context(), tc.userID, "USER"))
			}
			assert.Equal(t, tc.want, ClientKey(req))
		})
	}
}

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f fakeRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "test-secret"
	token, jti, err := crypto.GenerateToken(secret, 5, "USER", time.Hour)
	require.NoError(t, err)
	otherToken, _, err := crypto.GenerateToken("other", 5, "USER", time.Hour)
	require.NoError(t, err)

	testCases := []struct {
		name     string
		header   string
		list     RevocationList
		wantCode int
	}{
		{"valid token", "Bearer " + token, fakeRevocations{}, http.StatusOK},
		{"lowercase scheme", "bearer " + token, fakeRevocations{}, http.StatusOK},
		{"no revocation list", "Bearer " + token, nil, http.StatusOK},
		{"missing header", "", fakeRevocations{}, http.StatusUnauthorized},
		{"basic scheme", "Basic abc", fakeRevocations{}, http.StatusUnauthorized},
		{"foreign signature", "Bearer " + otherToken, fakeRevocations{}, http.StatusUnauthorized},
		{"revoked token", "Bearer " + token, fakeRevocations{revoked: map[string]bool{jti: true}}, http.StatusUnauthorized},
		{"revocation store down", "Bearer " + token, fakeRevocations{err: errors.New("db down")}, http.StatusServiceUnavailable},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotID int64
			var gotRole string
			handler := AuthMiddleware(secret, tc.list)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, gotRole = UserIDFrom(r), RoleFrom(r)
			}))

			req := httptest.NewRequest(http.MethodGet, "/reviews/my", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			if tc.wantCode == http.StatusOK {
				assert.Equal(t, int64(5), gotID)
				assert.Equal(t, "USER", gotRole)
			} else {
				assert.Zero(t, gotID)
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestValidateStruct(t *testing.T) {
	type signup struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Rating   int    `json:"rating" validate:"min=1,max=5"`
	}

	assert.Nil(t, ValidateStruct(signup{Email: "a@b.co", Password: "longenough", Rating: 3}))

	details := ValidateStruct(signup{Email: "nope", Password: "short", Rating: 9})
	assert.ElementsMatch(t, []ErrorDetail{
		{Field: "email", Message: "email must be a valid email address"},
		{Field: "password", Message: "password must be at least 8 characters"},
		{Field: "rating", Message: "rating must be at most 5"},
	}, details)

	details = ValidateStruct(signup{Rating: 1})
	assert.ElementsMatch(t, []ErrorDetail{
		{Field: "email", Message: "email is required"},
		{Field: "password", Message: "password is required"},
	}, details)
}
