package app

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TransformationPath string // .hcl file or directory

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	// BufferSize overrides the capacity of every hop buffer when positive.
	BufferSize int
	// Overrides are step settings in the form step.KEY=value. A setting
	// without '=' resets the key to its default.
	Overrides []string
}

// Override is one parsed step setting.
type Override struct {
	Step  string
	Key   string
	Value string
	Null  bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.TransformationPath == "" {
		return nil, errors.New("TransformationPath is a required configuration field and cannot be empty")
	}
	if cfg.BufferSize < 0 {
		return nil, errors.New("BufferSize must not be negative")
	}
	if _, err := ParseOverrides(cfg.Overrides); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseOverrides parses step.KEY=value settings.
func ParseOverrides(settings []string) ([]Override, error) {
	out := make([]Override, 0, len(settings))
	for _, s := range settings {
		target, value, hasValue := strings.Cut(s, "=")
		stepName, key, ok := strings.Cut(target, ".")
		if !ok || stepName == "" || key == "" {
			return nil, fmt.Errorf("invalid setting %q: expected step.KEY=value", s)
		}
		out = append(out, Override{Step: stepName, Key: key, Value: value, Null: !hasValue})
	}
	return out, nil
}
