package cookie

import (
	"net/http"
	"time"
)

// Cookie names.
const (
	SessionName     = "sid"
	DeviceTrustName = "device_trust"
)

// Writer sets and clears the auth cookies with consistent attributes.
// Secure is on in production; everything else is fixed.
type Writer struct {
	Secure bool
}

// SetSession writes the session cookie. MaxAge mirrors the session's idle
// expiry so browser and server forget the session at the same time; it is
// reissued whenever the idle expiry moves.
func (c *Writer) SetSession(w http.ResponseWriter, sessionID string, idleExpiresAt int64) {
	maxAge := int(time.Until(time.Unix(idleExpiresAt, 0)).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Writer) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetDeviceTrust writes the device-trust cookie with its own expiry,
// independent of the session cookie.
func (c *Writer) SetDeviceTrust(w http.ResponseWriter, rawToken string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     DeviceTrustName,
		Value:    rawToken,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Writer) ClearDeviceTrust(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     DeviceTrustName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionID returns the session cookie value, "" if absent.
func SessionID(r *http.Request) string {
	if c, err := r.Cookie(SessionName); err == nil {
		return c.Value
	}
	return ""
}

// DeviceTrust returns the device-trust cookie value, "" if absent.
func DeviceTrust(r *http.Request) string {
	if c, err := r.Cookie(DeviceTrustName); err == nil {
		return c.Value
	}
	return ""
}
