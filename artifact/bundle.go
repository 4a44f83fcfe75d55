// Package artifact 实现训练产物的显式版本化持久化。
//
// 与"整个对象图一个黑盒 blob"的做法不同，bundle 拆成多条独立记录：
// 特征统计量一条、每个已训练回归器一条、ensemble 权重一条，
// 由带校验和的 manifest 绑定成一个原子单元——任何记录缺失、
// 多余或校验不符都视为整个 bundle 损坏（core.ErrArtifactLoad），
// 部分加载永远不可观察。
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rushteam/revkit/core"
	"github.com/rushteam/revkit/feature"
	"github.com/rushteam/revkit/model"
)

// BundleVersion 是 bundle 格式的当前版本号。
const BundleVersion = 1

// 记录名约定
const (
	recordFeatureState = "feature_state"
	recordEnsemble     = "ensemble"
	manifestFile       = "manifest.json"
)

// Bundle 是一次训练运行的完整产物：特征统计量 + 已训练回归器 + ensemble 权重。
// 训练运行创建一次，之后只读。
type Bundle struct {
	State    *feature.State
	Ensemble *model.Ensemble
}

// manifest 绑定全部记录：版本、创建时间、每条记录的 SHA-256。
type manifest struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Checksums map[string]string `json:"checksums"`
}

// wrapperRecord 是单个回归器的持久化形态：家族名 + 该家族的参数负载。
type wrapperRecord struct {
	Family  string          `json:"family"`
	Payload json.RawMessage `json:"payload"`
}

// ensembleRecord 是 ensemble 的持久化形态：有序家族名 + 等长权重。
type ensembleRecord struct {
	Families []string  `json:"families"`
	Weights  []float64 `json:"weights"`
}

// regressorFactories 把家族名映射到空实例构造器，加载时按名复原具体类型。
var regressorFactories = map[string]func() model.Regressor{
	"forest": func() model.Regressor { return &model.Forest{} },
	"gbrt":   func() model.Regressor { return &model.GBRT{} },
	"xgrt":   func() model.Regressor { return &model.XGRT{} },
	"histgb": func() model.Regressor { return &model.HistGB{} },
}

// encode 把 bundle 展开成记录名 → JSON 内容。
func (b *Bundle) encode() (map[string][]byte, error) {
	if b.State == nil || b.Ensemble == nil {
		return nil, core.ErrArtifactLoad
	}
	records := make(map[string][]byte)

	stateData, err := json.Marshal(b.State)
	if err != nil {
		return nil, fmt.Errorf("marshal feature state: %w", err)
	}
	records[recordFeatureState] = stateData

	members := b.Ensemble.Members()
	families := make([]string, len(members))
	for i, m := range members {
		families[i] = m.Name()
		payload, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("marshal wrapper %s: %w", m.Name(), err)
		}
		data, err := json.Marshal(wrapperRecord{Family: m.Name(), Payload: payload})
		if err != nil {
			return nil, fmt.Errorf("marshal wrapper record %s: %w", m.Name(), err)
		}
		records[wrapperRecordName(i)] = data
	}

	ensData, err := json.Marshal(ensembleRecord{Families: families, Weights: b.Ensemble.Weights()})
	if err != nil {
		return nil, fmt.Errorf("marshal ensemble record: %w", err)
	}
	records[recordEnsemble] = ensData
	return records, nil
}

// decode 从记录集复原 bundle；任何缺失/损坏都归并为 core.ErrArtifactLoad。
func decode(records map[string][]byte) (*Bundle, error) {
	stateData, ok := records[recordFeatureState]
	if !ok {
		return nil, fmt.Errorf("missing record %s: %w", recordFeatureState, core.ErrArtifactLoad)
	}
	var st feature.State
	if err := json.Unmarshal(stateData, &st); err != nil {
		return nil, fmt.Errorf("parse feature state: %w", core.ErrArtifactLoad)
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}

	ensData, ok := records[recordEnsemble]
	if !ok {
		return nil, fmt.Errorf("missing record %s: %w", recordEnsemble, core.ErrArtifactLoad)
	}
	var ens ensembleRecord
	if err := json.Unmarshal(ensData, &ens); err != nil {
		return nil, fmt.Errorf("parse ensemble record: %w", core.ErrArtifactLoad)
	}
	if len(ens.Families) == 0 || len(ens.Families) != len(ens.Weights) {
		return nil, fmt.Errorf("malformed ensemble record: %w", core.ErrArtifactLoad)
	}

	members := make([]model.Regressor, len(ens.Families))
	for i := range ens.Families {
		data, ok := records[wrapperRecordName(i)]
		if !ok {
			return nil, fmt.Errorf("missing record %s: %w", wrapperRecordName(i), core.ErrArtifactLoad)
		}
		var rec wrapperRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("parse wrapper record %d: %w", i, core.ErrArtifactLoad)
		}
		factory, ok := regressorFactories[rec.Family]
		if !ok || rec.Family != ens.Families[i] {
			return nil, fmt.Errorf("unknown wrapper family %q: %w", rec.Family, core.ErrArtifactLoad)
		}
		reg := factory()
		if err := json.Unmarshal(rec.Payload, reg); err != nil {
			return nil, fmt.Errorf("parse wrapper payload %s: %w", rec.Family, core.ErrArtifactLoad)
		}
		members[i] = reg
	}

	ensemble, err := model.NewEnsembleWithWeights(members, ens.Weights)
	if err != nil {
		return nil, fmt.Errorf("rebuild ensemble: %w", core.ErrArtifactLoad)
	}
	return &Bundle{State: &st, Ensemble: ensemble}, nil
}

// Save 把 bundle 原子化写入目录：先写临时目录，全部记录与 manifest 落盘后
// 一次 rename 替换，写一半的 bundle 不会出现在目标路径上。
func (b *Bundle) Save(dir string) error {
	records, err := b.encode()
	if err != nil {
		return err
	}

	m := manifest{
		Version:   BundleVersion,
		CreatedAt: time.Now().UTC(),
		Checksums: make(map[string]string, len(records)),
	}
	for name, data := range records {
		m.Checksums[name] = checksum(data)
	}

	tmp := dir + ".tmp"
	if err := os.RemoveAll(tmp); err != nil {
		return fmt.Errorf("clean tmp dir: %w", err)
	}
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return fmt.Errorf("mkdir tmp: %w", err)
	}
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(tmp, name+".json"), records[name], 0o644); err != nil {
			return fmt.Errorf("write record %s: %w", name, err)
		}
	}
	manifestData, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, manifestFile), manifestData, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	// 旧 bundle 先挪到唯一命名的侧位再换入新目录，
	// 目标路径上不存在"既无旧也无新"的空窗
	old := fmt.Sprintf("%s.old.%d", dir, time.Now().UnixNano())
	if err := os.Rename(dir, old); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("move old bundle aside: %w", err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("rename bundle: %w", err)
	}
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("remove old bundle: %w", err)
	}
	return nil
}

// Load 从目录读回 bundle：manifest 与每条记录都要在场且校验和一致。
func Load(dir string) (*Bundle, error) {
	manifestData, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", dir, core.ErrArtifactLoad)
	}
	var m manifest
	if err := json.Unmarshal(manifestData, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", core.ErrArtifactLoad)
	}
	if m.Version != BundleVersion {
		return nil, fmt.Errorf("unsupported bundle version %d: %w", m.Version, core.ErrArtifactLoad)
	}

	records := make(map[string][]byte, len(m.Checksums))
	for name, want := range m.Checksums {
		data, err := os.ReadFile(filepath.Join(dir, name+".json"))
		if err != nil {
			return nil, fmt.Errorf("read record %s: %w", name, core.ErrArtifactLoad)
		}
		if checksum(data) != want {
			return nil, fmt.Errorf("checksum mismatch on record %s: %w", name, core.ErrArtifactLoad)
		}
		records[name] = data
	}
	return decode(records)
}

func wrapperRecordName(i int) string {
	return fmt.Sprintf("wrapper_%d", i)
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
