package artifact

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/revkit/core"
	"github.com/rushteam/revkit/feature"
	"github.com/rushteam/revkit/model"
	"github.com/rushteam/revkit/store"
)

// trainedBundle 拟合一个小规模但真实的 bundle 供持久化测试使用。
func trainedBundle(t *testing.T) *Bundle {
	t.Helper()

	rows := make([]*core.Company, 0, 20)
	for i := 0; i < 20; i++ {
		c := core.NewCompany("c" + string(rune('a'+i)))
		c.Attrs["employee_count"] = float64(10 + i*37)
		c.Attrs["total_funding_usd"] = float64(i) * 1e6
		c.Attrs["industry"] = []string{"Software", "Retail"}[i%2]
		c.Attrs["annual_revenue_usd"] = float64(10+i*37) * 1e5
		rows = append(rows, c)
	}

	eng := feature.NewEngineer()
	matrix, err := eng.FitTransform(rows, core.TargetAnnualRevenue)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	p := matrix.NumCols() - 1
	X := make([][]float64, matrix.NumRows())
	y := make([]float64, matrix.NumRows())
	for i, row := range matrix.Data {
		X[i] = row[:p]
		y[i] = row[p]
	}

	forest := model.NewForest()
	forest.NumTrees = 5
	gbrt := model.NewGBRT()
	gbrt.Rounds = 10
	for _, reg := range []model.Regressor{forest, gbrt} {
		if err := reg.Fit(X, y); err != nil {
			t.Fatalf("Fit(%s) error = %v", reg.Name(), err)
		}
	}

	ens, err := model.NewEnsembleWithWeights([]model.Regressor{forest, gbrt}, []float64{0.7, 0.3})
	if err != nil {
		t.Fatalf("NewEnsembleWithWeights() error = %v", err)
	}
	return &Bundle{State: eng.State(), Ensemble: ens}
}

func TestBundleSaveLoadRoundTrip(t *testing.T) {
	bundle := trainedBundle(t)
	dir := filepath.Join(t.TempDir(), "bundle")

	if err := bundle.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// 权重与成员顺序原样复原
	wantW := bundle.Ensemble.Weights()
	gotW := loaded.Ensemble.Weights()
	for i := range wantW {
		if wantW[i] != gotW[i] {
			t.Errorf("weight[%d] = %v, want %v", i, gotW[i], wantW[i])
		}
	}
	for i, m := range loaded.Ensemble.Members() {
		if m.Name() != bundle.Ensemble.Members()[i].Name() {
			t.Errorf("member[%d] = %s, want %s", i, m.Name(), bundle.Ensemble.Members()[i].Name())
		}
	}

	// 复原后的 ensemble 预测必须与原始逐位一致
	probe := [][]float64{make([]float64, len(bundle.State.FeatureNames))}
	want, err := bundle.Ensemble.Predict(probe)
	if err != nil {
		t.Fatalf("original Predict() error = %v", err)
	}
	got, err := loaded.Ensemble.Predict(probe)
	if err != nil {
		t.Fatalf("loaded Predict() error = %v", err)
	}
	if want[0] != got[0] {
		t.Errorf("loaded prediction = %v, want %v", got[0], want[0])
	}

	if len(loaded.State.FeatureNames) != len(bundle.State.FeatureNames) {
		t.Errorf("feature names = %d, want %d", len(loaded.State.FeatureNames), len(bundle.State.FeatureNames))
	}
}

func TestBundleSaveReplacesExisting(t *testing.T) {
	bundle := trainedBundle(t)
	dir := filepath.Join(t.TempDir(), "bundle")

	if err := bundle.Save(dir); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	// 在目录里放一个多余文件，重写后不得残留
	if err := os.WriteFile(filepath.Join(dir, "stale.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := bundle.Save(dir); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "stale.json")); !os.IsNotExist(err) {
		t.Error("stale record survived bundle replacement")
	}
	if _, err := Load(dir); err != nil {
		t.Errorf("Load() after replace error = %v", err)
	}

	// 换入侧位的临时目录与旧目录不得残留
	entries, err := os.ReadDir(filepath.Dir(dir))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != filepath.Base(dir) {
			t.Errorf("leftover entry %s after bundle replacement", e.Name())
		}
	}
}

func TestBundleLoadRejectsCorruption(t *testing.T) {
	bundle := trainedBundle(t)

	tests := []struct {
		name    string
		corrupt func(t *testing.T, dir string)
	}{
		{
			name: "missing directory",
			corrupt: func(t *testing.T, dir string) {
				os.RemoveAll(dir)
			},
		},
		{
			name: "missing manifest",
			corrupt: func(t *testing.T, dir string) {
				os.Remove(filepath.Join(dir, "manifest.json"))
			},
		},
		{
			name: "missing record",
			corrupt: func(t *testing.T, dir string) {
				os.Remove(filepath.Join(dir, "feature_state.json"))
			},
		},
		{
			name: "tampered record",
			corrupt: func(t *testing.T, dir string) {
				path := filepath.Join(dir, "ensemble.json")
				if err := os.WriteFile(path, []byte(`{"families":["forest"],"weights":[1]}`), 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "unsupported version",
			corrupt: func(t *testing.T, dir string) {
				path := filepath.Join(dir, "manifest.json")
				data, err := os.ReadFile(path)
				if err != nil {
					t.Fatal(err)
				}
				var m map[string]any
				if err := json.Unmarshal(data, &m); err != nil {
					t.Fatal(err)
				}
				m["version"] = 99
				out, _ := json.Marshal(m)
				if err := os.WriteFile(path, out, 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "bundle")
			if err := bundle.Save(dir); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			tt.corrupt(t, dir)
			if _, err := Load(dir); !core.IsArtifactLoad(err) {
				t.Errorf("Load() error = %v, want artifact load", err)
			}
		})
	}
}

func TestBundleStoreRoundTrip(t *testing.T) {
	bundle := trainedBundle(t)
	kv := store.NewMemoryStore()
	defer kv.Close()
	ctx := context.Background()

	if err := bundle.SaveToStore(ctx, kv, "revkit:bundle:prod"); err != nil {
		t.Fatalf("SaveToStore() error = %v", err)
	}

	loaded, err := LoadFromStore(ctx, kv, "revkit:bundle:prod")
	if err != nil {
		t.Fatalf("LoadFromStore() error = %v", err)
	}
	if len(loaded.Ensemble.Members()) != 2 {
		t.Errorf("members = %d, want 2", len(loaded.Ensemble.Members()))
	}

	if _, err := LoadFromStore(ctx, kv, "revkit:bundle:absent"); !core.IsArtifactLoad(err) {
		t.Errorf("absent key error = %v, want artifact load", err)
	}
}
