package config

import (
	"os"
	"testing"
)

func withCleanArgs(t *testing.T) {
	t.Helper()
	original := os.Args
	os.Args = []string{original[0]}
	t.Cleanup(func() { os.Args = original })
}

func TestParseAppliesDefaults(t *testing.T) {
	withCleanArgs(t)
	t.Setenv("MNEMONIC", "test test test test test test test test test test test junk")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.IndexerSelectionLimit != defaultSelectionLimit {
		t.Errorf("IndexerSelectionLimit = %d, want %d", cfg.IndexerSelectionLimit, defaultSelectionLimit)
	}
	if cfg.QueryBudget != defaultQueryBudget {
		t.Errorf("QueryBudget = %q, want %q", cfg.QueryBudget, defaultQueryBudget)
	}
	if cfg.Port == cfg.MetricsPort {
		t.Errorf("Port and MetricsPort must differ by default, both = %d", cfg.Port)
	}
}

func TestParseRejectsEqualPorts(t *testing.T) {
	withCleanArgs(t)
	t.Setenv("MNEMONIC", "test test test test test test test test test test test junk")
	t.Setenv("PORT", "9000")
	t.Setenv("METRICS_PORT", "9000")

	if _, err := Parse(); err == nil {
		t.Fatal("expected an error when PORT equals METRICS_PORT")
	}
}
