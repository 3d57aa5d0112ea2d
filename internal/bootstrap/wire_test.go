package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"mikecheck/internal/domain"
)

func TestBuildSuccess(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MIKECHECK_ENV_FILE", filepath.Join(home, "none.env"))
	t.Setenv("DEEPGRAM_API_KEY", "test-key")
	t.Setenv("MIKECHECK_LANGUAGE", "es")
	t.Setenv("MIKECHECK_TIP_JOURNAL", filepath.Join(home, "tips.json"))

	services, err := Build(noopEventSink{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer services.Close()

	if services.Controller == nil {
		t.Fatalf("expected controller")
	}
	snap := services.Controller.Snapshot()
	if snap.State != domain.StateIdle || snap.Language != domain.LanguageSpanish {
		t.Fatalf("unexpected initial snapshot: %s/%s", snap.State, snap.Language)
	}
}

func TestBuildFailsOnInvalidRules(t *testing.T) {
	home := t.TempDir()
	rules := filepath.Join(home, "bad.rules")
	if err := os.WriteFile(rules, []byte("not a valid rule\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("HOME", home)
	t.Setenv("MIKECHECK_ENV_FILE", filepath.Join(home, "none.env"))
	t.Setenv("MIKECHECK_RULES_FILE", rules)

	if _, err := Build(noopEventSink{}); err == nil {
		t.Fatalf("expected build error due to invalid rules")
	}
}

func TestBuildFailsOnUnwritableLogFile(t *testing.T) {
	home := t.TempDir()
	blocker := filepath.Join(home, "blocker")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("HOME", home)
	t.Setenv("MIKECHECK_ENV_FILE", filepath.Join(home, "none.env"))
	t.Setenv("MIKECHECK_LOG_FILE", filepath.Join(blocker, "app.log"))

	if _, err := Build(noopEventSink{}); err == nil {
		t.Fatalf("expected build error for a log path under a file")
	}
}

type noopEventSink struct{}

func (noopEventSink) SessionChanged(_ domain.Snapshot)    {}
func (noopEventSink) Notice(_ domain.ErrorCode, _ string) {}
