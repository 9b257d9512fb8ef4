package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusubmit-api/internal/service"
	"github.com/noah-isme/edusubmit-api/internal/utils"
)

// Locals keys set by the session middleware.
const (
	LocalSessionID = "session_id"
	LocalUserRole  = "user_role"
)

// SessionConfig configures the signed session cookie.
type SessionConfig struct {
	Secret string
	Cookie string
	TTL    time.Duration
	Secure bool
}

// Session resolves the page session from the signed cookie, starting a
// guest session when the cookie is missing, tampered with or expired. The
// cookie is reissued on every request so its lifetime slides with use.
func Session(cfg SessionConfig, sessions service.SessionService, logger zerolog.Logger) fiber.Handler {
	if cfg.Cookie == "" {
		cfg.Cookie = "edusubmit_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	log := logger.With().Str("component", "session_middleware").Logger()

	return func(c *fiber.Ctx) error {
		id := ""
		if raw := strings.TrimSpace(c.Cookies(cfg.Cookie)); raw != "" {
			parsed, err := ParseSessionToken(raw, cfg.Secret)
			if err != nil {
				log.Debug().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("discarding session cookie")
			}
			id = parsed
		}

		session, err := sessions.Open(c.UserContext(), id)
		if err != nil {
			log.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("failed to open session")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}

		now := time.Now()
		token, err := IssueSessionToken(session.ID, cfg.Secret, now, cfg.TTL)
		if err != nil {
			log.Error().Err(err).Msg("failed to sign session cookie")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
		c.Cookie(&fiber.Cookie{
			Name:     cfg.Cookie,
			Value:    token,
			Path:     "/",
			Expires:  now.Add(cfg.TTL),
			HTTPOnly: true,
			Secure:   cfg.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		c.Locals(LocalSessionID, session.ID)
		c.Locals(LocalUserRole, string(session.Role))
		return c.Next()
	}
}

// IssueSessionToken signs a token whose jti is the session id.
func IssueSessionToken(sessionID, secret string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSessionToken verifies the token and returns its session id.
func ParseSessionToken(tokenString, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if !token.Valid || strings.TrimSpace(claims.ID) == "" {
		return "", fmt.Errorf("invalid session token")
	}

	return claims.ID, nil
}

// SessionID returns the session id bound to the request.
func SessionID(c *fiber.Ctx) string {
	if v, ok := c.Locals(LocalSessionID).(string); ok {
		return v
	}
	return ""
}
