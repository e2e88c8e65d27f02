package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/mosefak/medchat/internal/config"
	"github.com/mosefak/medchat/internal/models"
	"github.com/sirupsen/logrus"
)

func newTestCache(t *testing.T, ttl time.Duration) Service {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = ttl
	cfg.Cache.MaxSize = 1000

	return NewCache(cfg, logger)
}

func TestCacheRoundTrip(t *testing.T) {
	c := newTestCache(t, time.Minute)
	ctx := context.Background()

	id := models.Identity{UserID: "7", Role: models.RolePatient}
	rows := [][]any{{"Dr. Ali", "Cardiology"}}

	if _, found := c.Get(ctx, "SELECT 1", nil, id); found {
		t.Fatal("unexpected hit on empty cache")
	}

	if err := c.Set(ctx, "SELECT 1", nil, id, rows); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, found := c.Get(ctx, "SELECT 1", nil, id)
	if !found {
		t.Fatal("expected hit after Set")
	}
	if len(got) != 1 || got[0][0] != "Dr. Ali" {
		t.Fatalf("unexpected cached rows: %v", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := newTestCache(t, 50*time.Millisecond)
	ctx := context.Background()

	id := models.Identity{UserID: "7", Role: models.RolePatient}
	if err := c.Set(ctx, "SELECT 1", nil, id, [][]any{{1}}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	if _, found := c.Get(ctx, "SELECT 1", nil, id); found {
		t.Fatal("expired entry must never be returned")
	}
}

func TestCacheIdentitySensitivity(t *testing.T) {
	c := newTestCache(t, time.Minute)
	ctx := context.Background()

	patient := models.Identity{UserID: "7", Role: models.RolePatient}
	doctor := models.Identity{UserID: "7", Role: models.RoleDoctor}

	if err := c.Set(ctx, "SELECT 1", nil, patient, [][]any{{1}}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, found := c.Get(ctx, "SELECT 1", nil, doctor); found {
		t.Fatal("entries must not be shared across identities")
	}
	if _, found := c.Get(ctx, "SELECT 1", nil, models.Identity{UserID: "8", Role: models.RolePatient}); found {
		t.Fatal("entries must not be shared across user ids")
	}
}

func TestCacheDisabled(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{}
	cfg.Cache.Enabled = false

	c := NewCache(cfg, logger)
	ctx := context.Background()
	id := models.Identity{UserID: "1", Role: models.RoleAdmin}

	if err := c.Set(ctx, "SELECT 1", nil, id, [][]any{{1}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, found := c.Get(ctx, "SELECT 1", nil, id); found {
		t.Fatal("disabled cache must always miss")
	}
}

func TestKeyNormalizesWhitespace(t *testing.T) {
	id := models.Identity{UserID: "1", Role: models.RoleAdmin}

	a := Key("SELECT  *   FROM Doctors", nil, id)
	b := Key("SELECT * FROM Doctors", nil, id)
	if a != b {
		t.Fatal("whitespace differences must not change the key")
	}

	c := Key("SELECT * FROM Doctors", map[string]string{"city": "Cairo"}, id)
	if a == c {
		t.Fatal("parameters must change the key")
	}

	d := Key("SELECT * FROM Doctors", map[string]string{"city": "Cairo", "status": "Open"}, id)
	e := Key("SELECT * FROM Doctors", map[string]string{"status": "Open", "city": "Cairo"}, id)
	if d != e {
		t.Fatal("parameter order must not change the key")
	}
}
