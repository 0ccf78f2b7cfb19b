package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPAddr != ":8080" || cfg.StoreDriver != "memory" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Weights != DefaultWeights() {
		t.Fatalf("weights = %+v", cfg.Weights)
	}
	if cfg.Depths.Expert <= cfg.Depths.Beginner {
		t.Fatalf("depths = %+v", cfg.Depths)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("AI_DEPTH_EXPERT", "7")
	t.Setenv("IDLE_TIMEOUT", "90s")
	t.Setenv("RNG_SEED", "12345")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("W_WIN", "500")
	t.Setenv("W_BLOCK", "not-a-number")

	cfg := Load()
	if cfg.HTTPAddr != ":9999" || cfg.StoreDriver != "sqlite" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Depths.Expert != 7 || cfg.IdleTimeout != 90*time.Second || cfg.Seed != 12345 || !cfg.LogDev {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Weights.WWin != 500 || cfg.Weights.WBlock != DefaultWeights().WBlock {
		t.Fatalf("weights = %+v", cfg.Weights)
	}
}

func TestLiveWeightsRejectsBadValues(t *testing.T) {
	lw := NewLiveWeights(DefaultWeights())
	w := DefaultWeights()
	w.WThreat = 999
	if err := lw.Set(w); err != nil {
		t.Fatal(err)
	}
	bad := w
	bad.WBuild = -1
	if err := lw.Set(bad); err == nil {
		t.Fatal("negative weight accepted")
	}
	bad = w
	bad.BoardSize = 3
	if err := lw.Set(bad); err == nil {
		t.Fatal("tiny board accepted")
	}
	if got := lw.Get(); got != w {
		t.Fatalf("weights = %+v", got)
	}
}
