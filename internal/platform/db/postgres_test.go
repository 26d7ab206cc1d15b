package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestConnectRequiresDSN(t *testing.T) {
	if _, err := ConnectWithOptions(context.Background(), "", Options{}, nil); err == nil {
		t.Fatalf("expected empty dsn to fail")
	}
}

func TestOptionsWithDefaultsKeepsOverrides(t *testing.T) {
	got := Options{MaxOpenConns: 50, PingTimeout: time.Second}.withDefaults()
	want := Options{
		MaxOpenConns:    50,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     time.Second,
		SlowQuery:       500 * time.Millisecond,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseNilIsSafe(t *testing.T) {
	var pg *Postgres
	if err := pg.Close(); err != nil {
		t.Fatalf("close nil: %v", err)
	}
}
