package service

import (
	"fmt"
	"os"

	leadsdomain "leadflow_backend/internal/leads/domain"

	"gopkg.in/yaml.v3"
)

type funnelConfigFile struct {
	Order []string `yaml:"order"`
}

// LoadFunnelOrder reads the funnel label order from a YAML file. An empty
// path or an empty order list falls back to the built-in lifecycle order.
func LoadFunnelOrder(path string) ([]string, error) {
	if path == "" {
		return leadsdomain.DefaultFunnelOrder, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read funnel config: %w", err)
	}

	var cfg funnelConfigFile
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse funnel config: %w", err)
	}
	if len(cfg.Order) == 0 {
		return leadsdomain.DefaultFunnelOrder, nil
	}
	return cfg.Order, nil
}
