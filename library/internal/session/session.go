package session

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type Config struct {
	Secret     string        `envconfig:"SESSION_SECRET" required:"true"`
	CookieName string        `envconfig:"SESSION_COOKIE" default:"library_session"`
	TTL        time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	// IdleTimeout logs out users inactive for longer than this.
	IdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"1h"`
	Secure      bool          `envconfig:"SESSION_SECURE" default:"false"`
}

var ErrNoSession = errors.New("no session")

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Manager struct {
	cfg Config
	key []byte
	now func() time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "library_session"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Manager{cfg: cfg, key: []byte(cfg.Secret), now: time.Now}
}

// Issue signs a token for the user and sets it as an HttpOnly cookie.
func (m *Manager) Issue(c echo.Context, userID int64, email string) error {
	now := m.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return errors.Wrap(err, "sign session")
	}
	c.SetCookie(m.cookie(token, now.Add(m.cfg.TTL)))
	return nil
}

// UserID returns the user of a valid session cookie.
func (m *Manager) UserID(c echo.Context) (int64, error) {
	cookie, err := c.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return 0, ErrNoSession
	}
	claims := new(Claims)
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return 0, errors.Wrap(ErrNoSession, err.Error())
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNoSession
	}
	return id, nil
}

func (m *Manager) Clear(c echo.Context) {
	cookie := m.cookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	c.SetCookie(cookie)
}

func (m *Manager) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
