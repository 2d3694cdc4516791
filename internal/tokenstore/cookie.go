package tokenstore

import (
	"net/http"
)

// CookieLocation is the primary token tier: the access_token cookie on the
// current request/response pair. Writes during a request are visible to
// subsequent reads on the same request.
type CookieLocation struct {
	r      *http.Request
	w      http.ResponseWriter
	secure bool

	// pending mirrors what was written on this response, since the request
	// headers are immutable.
	pending *string
}

// NewCookieLocation binds a cookie location to one request/response pair.
func NewCookieLocation(w http.ResponseWriter, r *http.Request, secure bool) *CookieLocation {
	return &CookieLocation{r: r, w: w, secure: secure}
}

// Read returns the token from the cookie, preferring a value written
// earlier in the same request.
func (c *CookieLocation) Read() (string, error) {
	if c.pending != nil {
		return *c.pending, nil
	}
	cookie, err := c.r.Cookie(CookieName)
	if err != nil {
		// No cookie is an absent token, not a failure.
		return "", nil
	}
	return cookie.Value, nil
}

// Write sets the access_token cookie with a 7-day lifetime, site-wide path.
func (c *CookieLocation) Write(token string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   TokenMaxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.pending = &token
	return nil
}

// Clear expires the access_token cookie.
func (c *CookieLocation) Clear() error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	empty := ""
	c.pending = &empty
	return nil
}
