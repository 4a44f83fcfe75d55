package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TrainingConfig 描述一次训练运行：数据切分、各回归器超参、
// ensemble 权重方法、工件输出位置。零值字段由 ApplyDefaults 填默认值。
type TrainingConfig struct {
	// Seed 控制切分与采样的随机性，同种子同数据可复现
	Seed int64 `yaml:"seed"`

	// 切分比例，三者之和应为 1
	TrainFraction float64 `yaml:"train_fraction"`
	ValFraction   float64 `yaml:"val_fraction"`
	TestFraction  float64 `yaml:"test_fraction"`

	// Families 是参训的回归器家族（forest/gbrt/xgrt/histgb），空则全部参训
	Families []string `yaml:"families"`

	// WeightMethod: equal / grid
	WeightMethod string `yaml:"weight_method"`

	// ArtifactDir 是训练产物的落盘目录
	ArtifactDir string `yaml:"artifact_dir"`

	Forest ForestConfig `yaml:"forest"`
	GBRT   BoostConfig  `yaml:"gbrt"`
	XGRT   XGRTConfig   `yaml:"xgrt"`
	HistGB HistGBConfig `yaml:"histgb"`
}

type ForestConfig struct {
	NumTrees int `yaml:"num_trees"`
	MaxDepth int `yaml:"max_depth"`
	MinLeaf  int `yaml:"min_leaf"`
}

type BoostConfig struct {
	Rounds       int     `yaml:"rounds"`
	LearningRate float64 `yaml:"learning_rate"`
	MaxDepth     int     `yaml:"max_depth"`
	MinLeaf      int     `yaml:"min_leaf"`
	Subsample    float64 `yaml:"subsample"`
}

type XGRTConfig struct {
	Rounds         int     `yaml:"rounds"`
	LearningRate   float64 `yaml:"learning_rate"`
	MaxDepth       int     `yaml:"max_depth"`
	Lambda         float64 `yaml:"lambda"`
	Gamma          float64 `yaml:"gamma"`
	MinChildWeight float64 `yaml:"min_child_weight"`
}

type HistGBConfig struct {
	Rounds       int     `yaml:"rounds"`
	LearningRate float64 `yaml:"learning_rate"`
	MaxDepth     int     `yaml:"max_depth"`
	NumBins      int     `yaml:"num_bins"`
	MinLeaf      int     `yaml:"min_leaf"`
}

// DefaultTrainingConfig 返回带默认值的训练配置。
func DefaultTrainingConfig() *TrainingConfig {
	cfg := &TrainingConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults 给零值字段填默认值。
func (c *TrainingConfig) ApplyDefaults() {
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.TrainFraction == 0 && c.ValFraction == 0 && c.TestFraction == 0 {
		c.TrainFraction, c.ValFraction, c.TestFraction = 0.7, 0.15, 0.15
	}
	if len(c.Families) == 0 {
		c.Families = []string{"forest", "gbrt", "xgrt", "histgb"}
	}
	if c.WeightMethod == "" {
		c.WeightMethod = "grid"
	}
	if c.ArtifactDir == "" {
		c.ArtifactDir = "artifacts/revenue"
	}
}

// Validate 校验切分比例与家族名。
func (c *TrainingConfig) Validate() error {
	sum := c.TrainFraction + c.ValFraction + c.TestFraction
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("split fractions must sum to 1, got %.3f", sum)
	}
	if c.TrainFraction <= 0 {
		return fmt.Errorf("train fraction must be positive")
	}
	known := map[string]bool{"forest": true, "gbrt": true, "xgrt": true, "histgb": true}
	for _, f := range c.Families {
		if !known[f] {
			return fmt.Errorf("unknown regressor family %q", f)
		}
	}
	return nil
}

// LoadTrainingConfig 从 YAML 文件加载训练配置并填默认值。
func LoadTrainingConfig(path string) (*TrainingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var cfg TrainingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
