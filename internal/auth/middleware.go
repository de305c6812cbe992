package auth

import (
	"strings"

	"backend-peakjournal/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTMiddleware validates bearer tokens and stores user_id and role in
// locals. Requests without a token are rejected.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		return authenticate(c, token, secretBytes)
	}
}

// OptionalJWTMiddleware lets anonymous requests through untouched but
// still rejects requests carrying an invalid token: a bad credential
// must never silently downgrade to the anonymous view.
func OptionalJWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return c.Next()
		}
		return authenticate(c, token, secretBytes)
	}
}

var parseMiddlewareClaimsFn = jwt.ParseWithClaims

func authenticate(c *fiber.Ctx, token string, secret []byte) error {
	parsed, err := parseMiddlewareClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return fiber.NewError(fiber.StatusUnauthorized, "token invalid")
	}

	role, err := policy.ParseRole(claims.Role)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "token role invalid")
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", string(role))
	return c.Next()
}

// ActorFromCtx rebuilds the policy actor set by the middleware. Nil
// means the request is anonymous.
func ActorFromCtx(c *fiber.Ctx) *policy.Actor {
	userID, _ := c.Locals("user_id").(string)
	roleRaw, _ := c.Locals("role").(string)
	if userID == "" {
		return nil
	}
	role, err := policy.ParseRole(roleRaw)
	if err != nil {
		return nil
	}
	return &policy.Actor{ID: userID, Role: role}
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
