package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TrainConfig holds training configuration
type TrainConfig struct {
	Model        string  `yaml:"model"`
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	Samples      int     `yaml:"samples"`
	Seed         int64   `yaml:"seed"`
	WeightsFile  string  `yaml:"weights_file,omitempty"`
}

// DefaultTrainConfig returns a config suitable for a quick demo run
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Model:        "lenet5",
		Epochs:       5,
		LearningRate: 0.01,
		Samples:      100,
		Seed:         42,
	}
}

// Save writes the config as YAML
func (c *TrainConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadTrainConfig reads a YAML training config
func LoadTrainConfig(path string) (*TrainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var c TrainConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &c, nil
}

// ValidateTrainConfig validates training configuration against the set of
// known model names
func ValidateTrainConfig(c *TrainConfig, knownModels []string) error {
	found := false
	for _, name := range knownModels {
		if name == c.Model {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown model %q (known: %v)", c.Model, knownModels)
	}

	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive")
	}

	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive")
	}

	if c.Samples <= 0 {
		return fmt.Errorf("samples must be positive")
	}

	return nil
}
