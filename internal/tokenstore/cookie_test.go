package tokenstore

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCookieLocation_Read_NoCookie_ReturnsEmpty(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	loc := NewCookieLocation(w, r, false)

	token, err := loc.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if token != "" {
		t.Errorf("Read() = %q, want empty", token)
	}
}

func TestCookieLocation_Read_ExistingCookie_ReturnsValue(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "tok-1"})
	loc := NewCookieLocation(httptest.NewRecorder(), r, false)

	token, _ := loc.Read()
	if token != "tok-1" {
		t.Errorf("Read() = %q, want %q", token, "tok-1")
	}
}

func TestCookieLocation_Write_SetsCookieAttributes(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	loc := NewCookieLocation(w, r, false)

	if err := loc.Write("tok-1"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName || c.Value != "tok-1" {
		t.Errorf("cookie = %s=%s, want %s=tok-1", c.Name, c.Value, CookieName)
	}
	if c.Path != "/" {
		t.Errorf("cookie path = %q, want /", c.Path)
	}
	if c.MaxAge != TokenMaxAge {
		t.Errorf("cookie max age = %d, want %d", c.MaxAge, TokenMaxAge)
	}
	if !c.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie SameSite = %v, want Lax", c.SameSite)
	}
}

func TestCookieLocation_Write_VisibleToSameRequestRead(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	loc := NewCookieLocation(httptest.NewRecorder(), r, false)

	loc.Write("fresh")

	token, _ := loc.Read()
	if token != "fresh" {
		t.Errorf("Read() after same-request Write() = %q, want %q", token, "fresh")
	}
}

func TestCookieLocation_Clear_ExpiresCookie(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "tok-1"})
	w := httptest.NewRecorder()
	loc := NewCookieLocation(w, r, false)

	if err := loc.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	if cookies[0].MaxAge != -1 {
		t.Errorf("cookie max age = %d, want -1", cookies[0].MaxAge)
	}

	token, _ := loc.Read()
	if token != "" {
		t.Errorf("Read() after Clear() = %q, want empty", token)
	}
}
