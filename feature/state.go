package feature

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rushteam/revkit/core"
)

// StateVersion 是 State 序列化格式的当前版本号。
const StateVersion = 1

// State 是 FeatureEngineer fit 之后的全部统计量，fit 结束后不可变。
//
// 不变式：一次 fit 设定 FeatureNames 与以下所有统计量之后，
// transform 绝不重算它们；任何进入 transform 的行，经派生/填充/编码后
// 必须恰好落到这组列上，否则返回 core.ErrSchemaMismatch。
type State struct {
	Version int `json:"version"`

	// Medians 连续量级列的 fit 期中位数（serving 期原样 replay）
	Medians map[string]float64 `json:"medians"`

	// Freqs 每个类别列的 fit 期占比表（unseen → 0，不做平滑）
	Freqs map[string]map[string]float64 `json:"freqs"`

	// Vocab 每个类别列的 label 词表（恒包含 Unknown；unseen → -1 哨兵）
	Vocab map[string]map[string]int `json:"vocab"`

	// ScalerCenter / ScalerScale robust scaler 的每列中位数与 IQR
	ScalerCenter map[string]float64 `json:"scaler_center"`
	ScalerScale  map[string]float64 `json:"scaler_scale"`

	// FeatureNames fit 期确定的最终特征列（有序，目标列不含在内）
	FeatureNames []string `json:"feature_names"`
}

// Validate 检查 State 是否完整自洽；不完整的 State 视为工件损坏。
func (s *State) Validate() error {
	if s == nil {
		return core.ErrArtifactLoad
	}
	if s.Version != StateVersion {
		return fmt.Errorf("unsupported state version %d: %w", s.Version, core.ErrArtifactLoad)
	}
	if len(s.FeatureNames) == 0 {
		return fmt.Errorf("empty feature names: %w", core.ErrArtifactLoad)
	}
	if s.Medians == nil || s.Freqs == nil || s.Vocab == nil || s.ScalerCenter == nil || s.ScalerScale == nil {
		return fmt.Errorf("partial state: %w", core.ErrArtifactLoad)
	}
	for _, col := range core.CategoricalAttrs() {
		vocab, ok := s.Vocab[col]
		if !ok {
			return fmt.Errorf("vocab missing column %s: %w", col, core.ErrArtifactLoad)
		}
		if _, ok := vocab[core.UnknownCategory]; !ok {
			return fmt.Errorf("vocab for %s lacks reserved bucket: %w", col, core.ErrArtifactLoad)
		}
	}
	return nil
}

// Save 把 State 原子化写入单个 JSON 文件（临时文件 + rename）。
func (s *State) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// LoadState 从 JSON 文件读回 State 并校验完整性。
// 文件缺失或内容损坏统一归并为 core.ErrArtifactLoad。
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", path, core.ErrArtifactLoad)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, core.ErrArtifactLoad)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
