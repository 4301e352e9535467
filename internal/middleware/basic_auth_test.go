package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/paisapay/paisapay/internal/identity"
	"github.com/paisapay/paisapay/internal/ledger"
)

func newAuthApp(t *testing.T) (*fiber.App, *identity.Service) {
	t.Helper()
	svc := identity.NewService(identity.NewMemoryRepository(), ledger.NewMemory())

	app := fiber.New()
	app.Use(BasicAuth(svc))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"account_id": c.Locals("account_id"),
			"username":   c.Locals("username"),
		})
	})
	return app, svc
}

func basicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestBasicAuthAllowsValidCredentials(t *testing.T) {
	app, svc := newAuthApp(t)
	if _, err := svc.Register(context.Background(), identity.Credentials{Username: "alice", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, basicHeader("alice", "secret1"))

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestBasicAuthRejections(t *testing.T) {
	app, svc := newAuthApp(t)
	if _, err := svc.Register(context.Background(), identity.Credentials{Username: "alice", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not basic", header: "Bearer token"},
		{name: "bad base64", header: "Basic !!!"},
		{name: "no colon", header: "Basic " + base64.StdEncoding.EncodeToString([]byte("alicesecret1"))},
		{name: "wrong password", header: basicHeader("alice", "wrong1")},
		{name: "unknown user", header: basicHeader("ghost", "secret1")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}
