package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLimitKey_ClientCookie_Wins(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: ClientCookieName, Value: "client-1"})
	r.Header.Set("X-Forwarded-For", "192.168.1.1")

	if key := limitKey(r); key != "client-1" {
		t.Errorf("limitKey() = %q, want the client cookie", key)
	}
}

func TestLimitKey_XForwardedFor_FirstIPOnly(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1, 172.16.0.1")

	if key := limitKey(r); key != "192.168.1.1" {
		t.Errorf("limitKey() = %q, want %q (first IP only)", key, "192.168.1.1")
	}
}

func TestLimitKey_XRealIP_Trimmed(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Real-IP", "  192.168.1.1  ")

	if key := limitKey(r); key != "192.168.1.1" {
		t.Errorf("limitKey() = %q, want %q", key, "192.168.1.1")
	}
}

func TestLimitKey_FallbackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:12345"

	if key := limitKey(r); key != "127.0.0.1:12345" {
		t.Errorf("limitKey() = %q, want the remote address", key)
	}
}

func TestLimit_WithinBurst_Allows(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	next, _ := okHandler()
	handler := rl.Limit(next)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, w.Code)
		}
	}
}

func TestLimit_BurstExceeded_TooManyRequests(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	next, _ := okHandler()
	handler := rl.Limit(next)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

func TestLimit_SeparateClients_SeparateBudgets(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	next, _ := okHandler()
	handler := rl.Limit(next)

	a := httptest.NewRequest("GET", "/", nil)
	a.AddCookie(&http.Cookie{Name: ClientCookieName, Value: "client-a"})
	handler.ServeHTTP(httptest.NewRecorder(), a)

	b := httptest.NewRequest("GET", "/", nil)
	b.AddCookie(&http.Cookie{Name: ClientCookieName, Value: "client-b"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, b)

	if w.Code != http.StatusOK {
		t.Errorf("client-b status = %d, want 200 (own budget)", w.Code)
	}
}
