package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-peakjournal/internal/policy"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T, middleware fiber.Handler) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/protected", middleware, func(c *fiber.Ctx) error {
		actor := ActorFromCtx(c)
		if actor == nil {
			return c.JSON(fiber.Map{"anonymous": true})
		}
		return c.JSON(fiber.Map{"user_id": actor.ID, "role": string(actor.Role)})
	})
	return app
}

func signedToken(t *testing.T, secret, userID string, role policy.Role) string {
	t.Helper()
	token, err := NewService(secret, nil).signToken(userID, role, time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestJWTMiddlewareRejectsMissingToken(t *testing.T) {
	app := newTestApp(t, JWTMiddleware("secret"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestJWTMiddlewareAcceptsToken(t *testing.T) {
	app := newTestApp(t, JWTMiddleware("secret"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "secret", "user-1", policy.RoleEditor))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestJWTMiddlewareRejectsBadSignature(t *testing.T) {
	app := newTestApp(t, JWTMiddleware("secret"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "other", "user-1", policy.RoleEditor))
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestJWTMiddlewareRejectsUnknownRole(t *testing.T) {
	app := newTestApp(t, JWTMiddleware("secret"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "secret", "user-1", policy.Role("root")))
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestOptionalJWTMiddlewareAllowsAnonymous(t *testing.T) {
	app := newTestApp(t, OptionalJWTMiddleware("secret"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("anonymous must pass, got %d", resp.StatusCode)
	}
}

func TestOptionalJWTMiddlewareRejectsInvalidToken(t *testing.T) {
	app := newTestApp(t, OptionalJWTMiddleware("secret"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("invalid token must not downgrade to anonymous, got %d", resp.StatusCode)
	}
}

func TestBearerFromHeader(t *testing.T) {
	if bearerFromHeader("") != "" {
		t.Fatalf("empty header")
	}
	if bearerFromHeader("Basic abc") != "" {
		t.Fatalf("non-bearer scheme")
	}
	if bearerFromHeader("Bearer abc") != "abc" {
		t.Fatalf("bearer value")
	}
	if bearerFromHeader("bearer abc") != "abc" {
		t.Fatalf("scheme must be case-insensitive")
	}
}
