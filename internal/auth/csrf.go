package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// CSRFCookieName is the name of the CSRF cookie.
	CSRFCookieName = "gw_csrf"
	// CSRFFormField is the form field name for the CSRF token.
	CSRFFormField = "csrf_token"

	csrfTokenLength = 32
	csrfTTL         = 1 * time.Hour
)

// CSRFService protects the login form with a signed double-submit token.
type CSRFService struct {
	secret       []byte
	cookieSecure bool
	cookieDomain string
}

// NewCSRFService creates a new CSRFService.
func NewCSRFService(secret string, cookieSecure bool, cookieDomain string) *CSRFService {
	return &CSRFService{
		secret:       []byte(secret),
		cookieSecure: cookieSecure,
		cookieDomain: cookieDomain,
	}
}

// GenerateToken generates a signed CSRF token and sets it as a cookie.
func (s *CSRFService) GenerateToken(w http.ResponseWriter) (string, error) {
	tokenBytes := make([]byte, csrfTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate CSRF token: %w", err)
	}

	data := fmt.Sprintf("%d:%s", time.Now().Unix(), base64.RawURLEncoding.EncodeToString(tokenBytes))
	token := data + "." + s.sign(data)

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		Domain:   s.cookieDomain,
		MaxAge:   int(csrfTTL.Seconds()),
		HttpOnly: false,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	return token, nil
}

// ValidateToken validates the form token against the cookie and signature.
func (s *CSRFService) ValidateToken(r *http.Request) error {
	formToken := r.FormValue(CSRFFormField)
	if formToken == "" {
		formToken = r.Header.Get("X-CSRF-Token")
	}
	if formToken == "" {
		return fmt.Errorf("missing CSRF token")
	}

	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return fmt.Errorf("missing CSRF cookie")
	}
	if formToken != cookie.Value {
		return fmt.Errorf("CSRF token mismatch")
	}

	idx := strings.LastIndexByte(formToken, '.')
	if idx <= 0 || idx == len(formToken)-1 {
		return fmt.Errorf("invalid CSRF token format")
	}
	data, signature := formToken[:idx], formToken[idx+1:]

	if !hmac.Equal([]byte(signature), []byte(s.sign(data))) {
		return fmt.Errorf("invalid CSRF token signature")
	}

	var issued int64
	if _, err := fmt.Sscanf(data, "%d:", &issued); err != nil {
		return fmt.Errorf("invalid CSRF token timestamp")
	}
	if time.Since(time.Unix(issued, 0)) > csrfTTL {
		return fmt.Errorf("CSRF token expired")
	}

	return nil
}

// ClearToken clears the CSRF cookie.
func (s *CSRFService) ClearToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.cookieDomain,
		MaxAge:   -1,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *CSRFService) sign(data string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
