package middleware

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/paisapay/paisapay/internal/logging"
)

func newIdempotencyApp(t *testing.T) (*fiber.App, *atomic.Int64) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	var hits atomic.Int64
	app := fiber.New()
	app.Use(Idempotency(client, time.Minute, logging.Discard()))
	app.Post("/fund", func(c *fiber.Ctx) error {
		n := hits.Add(1)
		return c.Status(http.StatusOK).SendString(fmt.Sprintf("call-%d", n))
	})
	return app, &hits
}

func TestIdempotencyPassthroughWithoutKey(t *testing.T) {
	app, hits := newIdempotencyApp(t)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/fund", nil), -1)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("expected handler to run twice without a key, ran %d times", hits.Load())
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, hits := newIdempotencyApp(t)

	var bodies []string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/fund", nil)
		req.Header.Set("Idempotency-Key", "retry-abc")
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
		bodies = append(bodies, string(body))
	}

	if hits.Load() != 1 {
		t.Fatalf("expected handler to run once, ran %d times", hits.Load())
	}
	if bodies[0] != bodies[1] {
		t.Fatalf("replayed body differs: %q vs %q", bodies[0], bodies[1])
	}
}

func TestIdempotencyDistinctKeysAreIndependent(t *testing.T) {
	app, hits := newIdempotencyApp(t)

	for _, key := range []string{"key-one", "key-two"} {
		req := httptest.NewRequest(http.MethodPost, "/fund", nil)
		req.Header.Set("Idempotency-Key", key)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("request %s: %v", key, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %s: expected 200, got %d", key, resp.StatusCode)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("expected handler to run for each key, ran %d times", hits.Load())
	}
}

func TestIdempotencyIgnoresGet(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	var hits atomic.Int64
	app := fiber.New()
	app.Use(Idempotency(client, time.Minute, logging.Discard()))
	app.Get("/balance", func(c *fiber.Ctx) error {
		hits.Add(1)
		return c.SendStatus(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/balance", nil)
		req.Header.Set("Idempotency-Key", "get-key")
		if _, err := app.Test(req, -1); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("expected GET to bypass idempotency, handler ran %d times", hits.Load())
	}
}
