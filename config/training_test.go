package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTrainingConfigDefaults(t *testing.T) {
	cfg := DefaultTrainingConfig()
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}
	if cfg.TrainFraction != 0.7 || cfg.ValFraction != 0.15 || cfg.TestFraction != 0.15 {
		t.Errorf("split = %v/%v/%v, want 0.7/0.15/0.15", cfg.TrainFraction, cfg.ValFraction, cfg.TestFraction)
	}
	if len(cfg.Families) != 4 {
		t.Errorf("Families = %v, want all four", cfg.Families)
	}
	if cfg.WeightMethod != "grid" {
		t.Errorf("WeightMethod = %q, want grid", cfg.WeightMethod)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestTrainingConfigDefaultsKeepExplicit(t *testing.T) {
	cfg := &TrainingConfig{
		Seed:          7,
		TrainFraction: 0.8,
		ValFraction:   0.1,
		TestFraction:  0.1,
		Families:      []string{"forest"},
		WeightMethod:  "equal",
	}
	cfg.ApplyDefaults()
	if cfg.Seed != 7 || cfg.TrainFraction != 0.8 || len(cfg.Families) != 1 || cfg.WeightMethod != "equal" {
		t.Errorf("ApplyDefaults overwrote explicit values: %+v", cfg)
	}
}

func TestTrainingConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TrainingConfig)
		wantErr bool
	}{
		{
			name:   "valid defaults",
			mutate: func(c *TrainingConfig) {},
		},
		{
			name: "fractions not summing to one",
			mutate: func(c *TrainingConfig) {
				c.TrainFraction, c.ValFraction, c.TestFraction = 0.5, 0.2, 0.2
			},
			wantErr: true,
		},
		{
			name: "zero train fraction",
			mutate: func(c *TrainingConfig) {
				c.TrainFraction, c.ValFraction, c.TestFraction = 0, 0.5, 0.5
			},
			wantErr: true,
		},
		{
			name: "unknown family",
			mutate: func(c *TrainingConfig) {
				c.Families = []string{"forest", "linear"}
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTrainingConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadTrainingConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "training.yaml")
	yamlData := `
seed: 7
families: [forest, gbrt]
weight_method: equal
artifact_dir: out/models
forest:
  num_trees: 50
  max_depth: 6
gbrt:
  rounds: 80
  learning_rate: 0.1
`
	if err := os.WriteFile(path, []byte(yamlData), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadTrainingConfig(path)
	if err != nil {
		t.Fatalf("LoadTrainingConfig() error = %v", err)
	}
	if cfg.Seed != 7 {
		t.Errorf("Seed = %d, want 7", cfg.Seed)
	}
	// 未显式配置的切分比例回落到默认值
	if cfg.TrainFraction != 0.7 {
		t.Errorf("TrainFraction = %v, want default 0.7", cfg.TrainFraction)
	}
	if len(cfg.Families) != 2 || cfg.Families[0] != "forest" || cfg.Families[1] != "gbrt" {
		t.Errorf("Families = %v", cfg.Families)
	}
	if cfg.Forest.NumTrees != 50 || cfg.GBRT.Rounds != 80 {
		t.Errorf("hyperparams = forest %+v gbrt %+v", cfg.Forest, cfg.GBRT)
	}
	if cfg.ArtifactDir != "out/models" {
		t.Errorf("ArtifactDir = %q", cfg.ArtifactDir)
	}
}

func TestLoadTrainingConfigErrors(t *testing.T) {
	if _, err := LoadTrainingConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file should error")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("families: [forest, linear]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTrainingConfig(path); err == nil {
		t.Error("unknown family should fail validation")
	}
}
