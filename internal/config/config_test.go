package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Metrics.Default != "delivery" {
		t.Fatalf("default template = %q, want delivery", cfg.Metrics.Default)
	}
	if cfg.Team.HoursPerDay != 6 || cfg.Team.WorkingDays != 20 {
		t.Fatalf("team defaults = %d/%d, want 6/20", cfg.Team.HoursPerDay, cfg.Team.WorkingDays)
	}
	if got := cfg.UnbalancedTemplates(); len(got) != 0 {
		t.Fatalf("default templates unbalanced: %v", got)
	}
}

func TestTemplateMetricsStartAtTarget(t *testing.T) {
	cfg := Default()
	tpl := cfg.Metrics.Templates["delivery"]
	metrics := tpl.Metrics()
	if len(metrics) != 4 {
		t.Fatalf("len(metrics) = %d, want 4", len(metrics))
	}
	if metrics[0].ID != "deliveryRate" {
		t.Fatalf("first metric = %q, want deliveryRate (template order)", metrics[0].ID)
	}
	for _, m := range metrics {
		if m.Value != m.Target {
			t.Fatalf("metric %s value = %v, want target %v", m.ID, m.Value, m.Target)
		}
		if m.Trend != "stable" {
			t.Fatalf("metric %s trend = %q, want stable", m.ID, m.Trend)
		}
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Metrics.Default != "delivery" {
		t.Fatalf("expected built-in default, got %q", cfg.Metrics.Default)
	}
}

func TestLoadReadsWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	data := `metrics:
  default: mini
  templates:
    mini:
      - id: velocity
        name: Velocity
        target: 85
        weight: 1.0
team:
  developers: 5
  hours_per_day: 6
  working_days: 20
`
	if err := os.WriteFile(filepath.Join(dir, "pulseboard.yml"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Metrics.Default != "mini" {
		t.Fatalf("default = %q, want mini", cfg.Metrics.Default)
	}
	if cfg.Team.Developers != 5 {
		t.Fatalf("developers = %d, want 5", cfg.Team.Developers)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"no templates", "metrics:\n  default: x\n"},
		{"unknown default", "metrics:\n  default: nope\n  templates:\n    mini:\n      - id: a\n        name: A\n        target: 50\n        weight: 1\nteam:\n  hours_per_day: 6\n  working_days: 20\n"},
		{"duplicate metric id", "metrics:\n  default: mini\n  templates:\n    mini:\n      - id: a\n        name: A\n        target: 50\n        weight: 0.5\n      - id: a\n        name: A2\n        target: 50\n        weight: 0.5\nteam:\n  hours_per_day: 6\n  working_days: 20\n"},
		{"weight out of range", "metrics:\n  default: mini\n  templates:\n    mini:\n      - id: a\n        name: A\n        target: 50\n        weight: 1.5\nteam:\n  hours_per_day: 6\n  working_days: 20\n"},
		{"hours per day out of range", "metrics:\n  default: mini\n  templates:\n    mini:\n      - id: a\n        name: A\n        target: 50\n        weight: 1\nteam:\n  hours_per_day: 9\n  working_days: 20\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromYAML([]byte(tc.yaml)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestUnbalancedTemplatesAdvisory(t *testing.T) {
	data := `metrics:
  default: lopsided
  templates:
    lopsided:
      - id: a
        name: A
        target: 50
        weight: 0.9
      - id: b
        name: B
        target: 50
        weight: 0.9
team:
  hours_per_day: 6
  working_days: 20
`
	cfg, err := FromYAML([]byte(data))
	if err != nil {
		t.Fatalf("unbalanced weights should validate: %v", err)
	}
	got := cfg.UnbalancedTemplates()
	if len(got) != 1 || got[0] != "lopsided" {
		t.Fatalf("UnbalancedTemplates = %v, want [lopsided]", got)
	}
}
