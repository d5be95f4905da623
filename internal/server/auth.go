package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is the one hard auth failure: endpoints that write to a
// person's private log refuse to fall back to the shared demo identity.
var ErrUnauthorized = errors.New("unauthorized")

const identityKey = "identity"

// Identity is the resolved caller for one request. Authenticated is false
// when the caller was mapped to the demo fallback.
type Identity struct {
	UserID        string
	Authenticated bool
}

// NewToken mints an HS256 bearer token whose subject is the user id.
func NewToken(secret, userID string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    "fokusd",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(secret, raw string, now func() time.Time) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(now))
	if err != nil {
		return "", ErrUnauthorized
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}

// identityMiddleware resolves every request to an Identity. A valid bearer
// token wins; anything else becomes the demo identity so the private
// endpoints can reject it themselves. With no secret configured the server
// runs in trusted single-user mode and the demo identity counts as real.
func identityMiddleware(secret, demoUserID string, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			c.Locals(identityKey, Identity{UserID: demoUserID, Authenticated: true})
			return c.Next()
		}

		header := c.Get("Authorization")
		raw := strings.TrimPrefix(header, "Bearer ")
		if header != "" && raw != header && raw != "" {
			if sub, err := parseToken(secret, raw, now); err == nil {
				c.Locals(identityKey, Identity{UserID: sub, Authenticated: true})
				return c.Next()
			}
		}
		c.Locals(identityKey, Identity{UserID: demoUserID})
		return c.Next()
	}
}

func identityFrom(c *fiber.Ctx) Identity {
	id, _ := c.Locals(identityKey).(Identity)
	return id
}

// requireAuth guards the endpoints that never accept the demo fallback.
func requireAuth(c *fiber.Ctx) error {
	if !identityFrom(c).Authenticated {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": ErrUnauthorized.Error(),
		})
	}
	return c.Next()
}
