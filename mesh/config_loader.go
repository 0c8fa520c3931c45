package mesh

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var validMethods = map[string]bool{
	"approx":    true,
	"symmetric": true,
	"bounded":   true,
	"naive":     true,
}

// LoadConfig loads the service configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if len(config.Pairs) == 0 {
		return nil, fmt.Errorf("at least one mesh pair must be defined")
	}
	for i, pc := range config.Pairs {
		if pc.Name == "" {
			return nil, fmt.Errorf("pairs[%d].name is required", i)
		}
		if pc.MeshA == "" || pc.MeshB == "" {
			return nil, fmt.Errorf("pairs[%d] (%s): both meshA and meshB are required", i, pc.Name)
		}
		if pc.Method != "" && !validMethods[pc.Method] {
			return nil, fmt.Errorf("pairs[%d] (%s): unknown method %q", i, pc.Name, pc.Method)
		}
		if (pc.Method == "bounded" || pc.Method == "naive") && pc.ErrorBound != nil && *pc.ErrorBound <= 0 {
			return nil, fmt.Errorf("pairs[%d] (%s): errorBound must be positive", i, pc.Name)
		}
	}

	return &config, nil
}

// SaveConfig writes the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
