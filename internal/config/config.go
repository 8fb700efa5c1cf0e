package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"pulseboard/internal/domain"
)

// Config models pulseboard.yml.
type Config struct {
	Metrics struct {
		// Templates are named metric schemas a new project can start
		// from. Order within a template is rendering order.
		Templates map[string]Template `yaml:"templates"`
		// Default names the template applied when a create request
		// carries no explicit metrics.
		Default string `yaml:"default"`
	} `yaml:"metrics"`
	Team struct {
		Developers  int `yaml:"developers"`
		HoursPerDay int `yaml:"hours_per_day"`
		WorkingDays int `yaml:"working_days"`
	} `yaml:"team"`
}

// Template is an ordered list of metric definitions.
type Template []TemplateMetric

type TemplateMetric struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Target float64 `yaml:"target"`
	Weight float64 `yaml:"weight"`
}

// Metrics instantiates the template: every metric starts at its target
// value with a stable trend, matching the new-project flow.
func (t Template) Metrics() []domain.Metric {
	res := make([]domain.Metric, 0, len(t))
	for _, m := range t {
		res = append(res, domain.Metric{
			ID:     m.ID,
			Name:   m.Name,
			Value:  m.Target,
			Target: m.Target,
			Trend:  domain.TrendStable,
			Weight: m.Weight,
		})
	}
	return res
}

// Validate ensures the config meets required structure. Weight sums are
// deliberately not enforced here; they are advisory (see score.WeightsBalanced).
func (c *Config) Validate() error {
	if len(c.Metrics.Templates) == 0 {
		return fmt.Errorf("config.metrics.templates is required")
	}
	for name, tpl := range c.Metrics.Templates {
		if len(tpl) == 0 {
			return fmt.Errorf("template %s has no metrics", name)
		}
		seen := map[string]bool{}
		for _, m := range tpl {
			if m.ID == "" {
				return fmt.Errorf("template %s has a metric with empty id", name)
			}
			if seen[m.ID] {
				return fmt.Errorf("template %s repeats metric id %s", name, m.ID)
			}
			seen[m.ID] = true
			if m.Weight < 0 || m.Weight > 1 {
				return fmt.Errorf("template %s metric %s weight %v out of [0,1]", name, m.ID, m.Weight)
			}
			if m.Target < 0 || m.Target > 100 {
				return fmt.Errorf("template %s metric %s target %v out of [0,100]", name, m.ID, m.Target)
			}
		}
	}
	if c.Metrics.Default == "" {
		return fmt.Errorf("config.metrics.default is required")
	}
	if _, ok := c.Metrics.Templates[c.Metrics.Default]; !ok {
		return fmt.Errorf("default template %s not defined", c.Metrics.Default)
	}
	if c.Team.Developers < 0 {
		return fmt.Errorf("config.team.developers must be >= 0")
	}
	if c.Team.HoursPerDay < 1 || c.Team.HoursPerDay > 8 {
		return fmt.Errorf("config.team.hours_per_day must be in [1,8]")
	}
	if c.Team.WorkingDays < 1 || c.Team.WorkingDays > 23 {
		return fmt.Errorf("config.team.working_days must be in [1,23]")
	}
	return nil
}

// UnbalancedTemplates returns the names of templates whose weights do
// not sum to 1.0. Advisory only.
func (c *Config) UnbalancedTemplates() []string {
	var names []string
	for name, tpl := range c.Metrics.Templates {
		var total float64
		for _, m := range tpl {
			total += m.Weight
		}
		if math.Abs(total-1.0) > 0.001 {
			names = append(names, name)
		}
	}
	return names
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "pulseboard.yml")
}

// Load reads and validates config from the workspace, falling back to
// defaults when the file does not exist.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// GenerateDefault returns the default config YAML for `pb config init`.
func GenerateDefault() string {
	return defaultTemplate
}

// Two metric schemas shipped by default: the delivery-oriented set and
// the older velocity/quality/engagement set. Rework rate is stored
// pre-inverted (higher is better) since the aggregator never inverts.
const defaultTemplate = `metrics:
  default: delivery

  templates:
    delivery:
      - id: deliveryRate
        name: Delivery Rate
        target: 90
        weight: 0.3
      - id: reworkRate
        name: Rework Rate (inverted)
        target: 90
        weight: 0.25
      - id: estimateAccuracy
        name: Estimate Accuracy
        target: 85
        weight: 0.25
      - id: nps
        name: NPS Score
        target: 75
        weight: 0.2

    classic:
      - id: velocity
        name: Velocity
        target: 85
        weight: 0.4
      - id: quality
        name: Quality
        target: 80
        weight: 0.3
      - id: engagement
        name: Engagement
        target: 80
        weight: 0.3

team:
  developers: 0
  hours_per_day: 6
  working_days: 20
`
