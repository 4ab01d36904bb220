package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirinyoku/park-go/internal/service/query"
)

func sqliteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "park.db"))
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("CHECKIN_MODE", "")
	t.Setenv("SWEEP_INTERVAL", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestZoneSeedAndList(t *testing.T) {
	sqliteEnv(t)

	out, err := run(t, "zone", "seed", "--name", "Downtown", "--parts", "3")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, `"Downtown" capacity 3`) {
		t.Fatalf("seed output = %q", out)
	}

	out, err = run(t, "zone", "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var zones []query.ZoneOverview
	if err := json.Unmarshal([]byte(out), &zones); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(zones) != 1 {
		t.Fatalf("zones = %d, want 1", len(zones))
	}
	if zones[0].Summary.Available != 3 || len(zones[0].Slots) != 3 {
		t.Fatalf("overview = %+v", zones[0])
	}
}

func TestZoneSeedRequiresName(t *testing.T) {
	sqliteEnv(t)

	if _, err := run(t, "zone", "seed"); err == nil {
		t.Fatal("seed without --name succeeded")
	}
}

func TestSweepOnce(t *testing.T) {
	sqliteEnv(t)

	out, err := run(t, "sweep", "--once", "--json")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, `"expired": 0`) {
		t.Fatalf("sweep output = %q", out)
	}
}

func TestMigrateSQLiteIsNoop(t *testing.T) {
	sqliteEnv(t)

	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "No migrations") {
		t.Fatalf("migrate output = %q", out)
	}
}

func TestWatchNeedsRedis(t *testing.T) {
	sqliteEnv(t)

	if _, err := run(t, "watch"); err == nil {
		t.Fatal("watch without redis succeeded")
	}
}
