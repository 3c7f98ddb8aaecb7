package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/pflag"
)

func TestDefaultProgramIDIsValid(t *testing.T) {
	if _, err := solana.PublicKeyFromBase58(DefaultProgramID); err != nil {
		t.Fatalf("default program id: %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "amm.yaml")
	content := "journal: /from/file.jsonl\nlog-level: warn\npool:\n  - A\n  - B\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AMM_LOG_LEVEL", "debug")
	t.Setenv("AMM_PG_DSN", "postgres://env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("journal", "", "")
	flags.String("window", "", "")
	if err := flags.Parse([]string{"--window=15m"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadStats(cfgFile, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Journal != "/from/file.jsonl" {
		t.Fatalf("journal = %q", cfg.Journal)
	}
	if cfg.LogLevel != "debug" || cfg.PGDSN != "postgres://env" {
		t.Fatalf("env not applied: %+v", cfg.Config)
	}
	if cfg.Window != "15m" {
		t.Fatalf("window = %q", cfg.Window)
	}
	if len(cfg.Pools) != 2 || cfg.Pools[0] != "A" {
		t.Fatalf("pools = %v", cfg.Pools)
	}
	if cfg.StateDB != "./data/state.db" || cfg.ProgramID != DefaultProgramID {
		t.Fatalf("defaults not applied: %+v", cfg.Config)
	}
}

func TestLoadReplayDefaults(t *testing.T) {
	cfg, err := LoadReplay(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err == nil {
		t.Fatalf("expected error for missing explicit config file, got %+v", cfg)
	}

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "amm.yaml")
	if err := os.WriteFile(cfgFile, []byte("strict: true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = LoadReplay(cfgFile, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Strict || cfg.BatchSize != 500 || !cfg.CheckpointEnabled || cfg.MaxRetries != 5 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestSplitAndClean(t *testing.T) {
	got := splitAndClean(" a, ,b ,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := map[string]uint64{
		"":                     0,
		"1700000000":           1_700_000_000,
		"2023-11-14T22:13:20Z": 1_700_000_000,
	}
	for input, want := range cases {
		got, err := ParseTimestamp(input)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseTimestamp(%q) = %d, want %d", input, got, want)
		}
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}
