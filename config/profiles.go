package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"backtestLab/internal/domain"
)

var validate = domain.NewValidator()

// Profile is a named strategy evaluated on every refresh.
type Profile struct {
	Name     string                `yaml:"name" validate:"required"`
	Strategy domain.StrategyConfig `yaml:"strategy"`
}

// ProfilesFile is the optional YAML document holding strategy profiles and risk limits.
//
//	symbols: [BTCUSDT, ETHUSDT]
//	thresholds:
//	  drawdown_pct: 30
//	profiles:
//	  - name: weekly-dca
//	    strategy:
//	      interval: weekly
//	      amount_per_buy: 100
//	      total_budget: 5200
type ProfilesFile struct {
	Symbols    []string              `yaml:"symbols"`
	Thresholds domain.RiskThresholds `yaml:"thresholds"`
	Profiles   []Profile             `yaml:"profiles" validate:"required,min=1,dive"`
}

// LoadProfiles reads, defaults and validates a profiles file.
func LoadProfiles(path string) (*ProfilesFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var f ProfilesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if err := defaults.Set(&f); err != nil {
		return nil, fmt.Errorf("default profiles: %w", err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("validate profiles: %s", describe(err))
	}

	seen := make(map[string]bool, len(f.Profiles))
	for _, p := range f.Profiles {
		if seen[p.Name] {
			return nil, fmt.Errorf("validate profiles: duplicate profile name %q", p.Name)
		}
		seen[p.Name] = true
	}
	return &f, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return strings.Join(msgs, "; ")
}
