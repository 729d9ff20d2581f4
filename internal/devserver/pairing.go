package devserver

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/arko-chat/pwashell/internal/credentials"
)

const (
	cookieName    = "pwashell_pair"
	cookieKeyName = "devserver_cookie_key"
	pairingMaxAge = 12 * time.Hour
)

// Pairing gates the bridge socket. A device pairs once by presenting the
// code shown on the index page and from then on carries a signed cookie.
type Pairing struct {
	code   string
	cookie *securecookie.SecureCookie
}

// NewPairing signs cookies with a key kept in the OS keyring, so paired
// devices survive a restart. Without a usable keyring the key is ephemeral.
func NewPairing(logger *slog.Logger) (*Pairing, error) {
	key, err := cookieKey(logger)
	if err != nil {
		return nil, err
	}
	code, err := newCode()
	if err != nil {
		return nil, err
	}
	sc := securecookie.New(key, nil)
	sc.MaxAge(int(pairingMaxAge.Seconds()))
	return &Pairing{code: code, cookie: sc}, nil
}

func cookieKey(logger *slog.Logger) ([]byte, error) {
	if stored, err := credentials.LoadAppSecret(cookieKeyName); err == nil {
		if key, err := base64.StdEncoding.DecodeString(stored); err == nil && len(key) == 32 {
			return key, nil
		}
	}

	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return nil, errors.New("devserver: cannot generate cookie key")
	}
	if err := credentials.StoreAppSecret(cookieKeyName, base64.StdEncoding.EncodeToString(key)); err != nil {
		logger.Warn("keyring unavailable, pairing will not survive restart", "err", err)
	}
	return key, nil
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (p *Pairing) Code() string {
	return p.code
}

func (p *Pairing) CheckCode(code string) bool {
	return subtle.ConstantTimeCompare([]byte(code), []byte(p.code)) == 1
}

// Issue sets the pairing cookie for device.
func (p *Pairing) Issue(w http.ResponseWriter, device string) error {
	encoded, err := p.cookie.Encode(cookieName, device)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(pairingMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Device returns the paired device id carried by r, if any.
func (p *Pairing) Device(r *http.Request) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	var device string
	if err := p.cookie.Decode(cookieName, c.Value, &device); err != nil || device == "" {
		return "", false
	}
	return device, true
}

// Authorized accepts a valid cookie or a correct ?code= query parameter.
func (p *Pairing) Authorized(r *http.Request) bool {
	if _, ok := p.Device(r); ok {
		return true
	}
	return p.CheckCode(r.URL.Query().Get("code"))
}
