package feature

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/rushteam/revkit/core"
)

func newTestCompany(id string, attrs map[string]any) *core.Company {
	c := core.NewCompany(id)
	for k, v := range attrs {
		c.Attrs[k] = v
	}
	return c
}

func trainingRows() []*core.Company {
	return []*core.Company{
		newTestCompany("a", map[string]any{
			"employee_count":     100.0,
			"total_funding_usd":  1000000.0,
			"num_funding_rounds": 4.0,
			"company_age_years":  3.0,
			"industry":           "Software",
			"country":            "United States",
			"annual_revenue_usd": 5000000.0,
		}),
		newTestCompany("b", map[string]any{
			"employee_count":     2000.0,
			"valuation_usd":      5e8,
			"company_age_years":  25.0,
			"industry":           "Retail",
			"country":            "Brazil",
			"annual_revenue_usd": 2e8,
		}),
		newTestCompany("c", map[string]any{
			"employee_count":     15.0,
			"funding_stage":      1.0,
			"industry":           "Software",
			"annual_revenue_usd": 400000.0,
		}),
		newTestCompany("d", map[string]any{
			"total_funding_usd":  3e7,
			"num_funding_rounds": 2.0,
			"country":            "India",
			"annual_revenue_usd": 1.2e7,
		}),
		newTestCompany("e", map[string]any{
			"annual_revenue_usd": 100000.0,
		}),
	}
}

func TestEngineerFitTransform(t *testing.T) {
	eng := NewEngineer()
	matrix, err := eng.FitTransform(trainingRows(), core.TargetAnnualRevenue)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	wantCols := len(assembleFeatureNames()) + 1
	if matrix.NumCols() != wantCols {
		t.Errorf("NumCols() = %d, want %d", matrix.NumCols(), wantCols)
	}
	if matrix.NumRows() != 5 {
		t.Errorf("NumRows() = %d, want 5", matrix.NumRows())
	}
	if matrix.Columns[matrix.NumCols()-1] != core.TargetAnnualRevenue {
		t.Errorf("last column = %q, want target", matrix.Columns[matrix.NumCols()-1])
	}

	// 目标列保持原始量纲
	targets := matrix.Column(core.TargetAnnualRevenue)
	if targets[0] != 5000000.0 {
		t.Errorf("target[0] = %v, want 5000000", targets[0])
	}

	if !eng.Fitted() {
		t.Error("Fitted() = false after fit")
	}
	if got := len(eng.State().FeatureNames); got != wantCols-1 {
		t.Errorf("state has %d feature names, want %d", got, wantCols-1)
	}
}

func TestEngineerFitTransformInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		rows []*core.Company
	}{
		{name: "empty row set", rows: nil},
		{
			name: "row lacks target",
			rows: []*core.Company{
				newTestCompany("x", map[string]any{"employee_count": 10.0}),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngineer().FitTransform(tt.rows, core.TargetAnnualRevenue)
			if err == nil {
				t.Fatal("FitTransform() error = nil, want invalid input error")
			}
			de := core.GetDomainError(err)
			if de == nil || de.Code != core.ErrorCodeInvalidInput {
				t.Errorf("error code = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestTransformBeforeFit(t *testing.T) {
	_, err := NewEngineer().Transform(trainingRows())
	if !core.IsNotFitted(err) {
		t.Errorf("Transform() error = %v, want not fitted", err)
	}
}

func TestTransformReplaysFitOutput(t *testing.T) {
	rows := trainingRows()
	eng := NewEngineer()
	fitted, err := eng.FitTransform(rows, core.TargetAnnualRevenue)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	replayed, err := eng.Transform(rows)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	// replay 输出 = fit 输出去掉目标列
	if replayed.NumCols() != fitted.NumCols()-1 {
		t.Fatalf("replay cols = %d, want %d", replayed.NumCols(), fitted.NumCols()-1)
	}
	for i := range replayed.Data {
		for j, v := range replayed.Data[i] {
			if math.Abs(v-fitted.Data[i][j]) > 1e-12 {
				t.Fatalf("row %d col %d: replay %v != fit %v", i, j, v, fitted.Data[i][j])
			}
		}
	}
}

func TestTransformUnseenCategory(t *testing.T) {
	eng := NewEngineer()
	if _, err := eng.FitTransform(trainingRows(), core.TargetAnnualRevenue); err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	// fit 期从未出现过的行业：不报错，freq=0，label=-1
	unseen := newTestCompany("z", map[string]any{
		"employee_count": 50.0,
		"industry":       "Quantum Mining",
	})
	matrix, err := eng.Transform([]*core.Company{unseen})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	rawFreq := (&FrequencyEncoder{Frequencies: eng.State().Freqs}).EncodeWithKey(core.AttrIndustry, "Quantum Mining")
	if rawFreq != 0 {
		t.Errorf("unseen frequency code = %v, want 0", rawFreq)
	}
	rawLabel := (&LabelEncoder{Vocab: eng.State().Vocab}).EncodeWithKey(core.AttrIndustry, "Quantum Mining")
	if rawLabel != core.UnseenLabelCode {
		t.Errorf("unseen label code = %v, want %v", rawLabel, core.UnseenLabelCode)
	}
	if matrix.NumRows() != 1 {
		t.Errorf("NumRows() = %d, want 1", matrix.NumRows())
	}
}

func TestTransformSchemaMismatch(t *testing.T) {
	eng := NewEngineer()
	if _, err := eng.FitTransform(trainingRows(), core.TargetAnnualRevenue); err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	// 模拟旧目录版本的持久化 state：少一列
	st := eng.State()
	stale := *st
	stale.FeatureNames = st.FeatureNames[:len(st.FeatureNames)-1]
	replayEng := &Engineer{state: &stale}

	_, err := replayEng.Transform(trainingRows())
	if !core.IsSchemaMismatch(err) {
		t.Errorf("Transform() error = %v, want schema mismatch", err)
	}
}

func TestAllMissingRowProducesFullWidth(t *testing.T) {
	eng := NewEngineer()
	if _, err := eng.FitTransform(trainingRows(), core.TargetAnnualRevenue); err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	// 空行：全部数值缺失、全部类别缺失，仍产出全宽特征行
	matrix, err := eng.Transform([]*core.Company{core.NewCompany("empty")})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if matrix.NumCols() != len(eng.State().FeatureNames) {
		t.Errorf("NumCols() = %d, want %d", matrix.NumCols(), len(eng.State().FeatureNames))
	}
	for j, v := range matrix.Data[0] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("col %d = %v, want finite", j, v)
		}
	}
}

func TestEngineerDeterminism(t *testing.T) {
	rows := trainingRows()
	eng1 := NewEngineer()
	m1, err := eng1.FitTransform(rows, core.TargetAnnualRevenue)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	eng2 := NewEngineer()
	m2, err := eng2.FitTransform(rows, core.TargetAnnualRevenue)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	for i := range m1.Data {
		for j := range m1.Data[i] {
			if m1.Data[i][j] != m2.Data[i][j] {
				t.Fatalf("row %d col %d diverged: %v vs %v", i, j, m1.Data[i][j], m2.Data[i][j])
			}
		}
	}
	for j, name := range eng1.State().FeatureNames {
		if eng2.State().FeatureNames[j] != name {
			t.Fatalf("feature name order diverged at %d", j)
		}
	}
}

func TestEngineerSaveLoad(t *testing.T) {
	rows := trainingRows()
	eng := NewEngineer()
	if _, err := eng.FitTransform(rows, core.TargetAnnualRevenue); err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "feature_state.json")
	if err := eng.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadEngineer(path)
	if err != nil {
		t.Fatalf("LoadEngineer() error = %v", err)
	}

	want, err := eng.Transform(rows)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	got, err := loaded.Transform(rows)
	if err != nil {
		t.Fatalf("loaded Transform() error = %v", err)
	}
	for i := range want.Data {
		for j := range want.Data[i] {
			if want.Data[i][j] != got.Data[i][j] {
				t.Fatalf("row %d col %d: loaded %v != original %v", i, j, got.Data[i][j], want.Data[i][j])
			}
		}
	}
}

func TestLoadEngineerMissingFile(t *testing.T) {
	_, err := LoadEngineer(filepath.Join(t.TempDir(), "nope.json"))
	if !core.IsArtifactLoad(err) {
		t.Errorf("LoadEngineer() error = %v, want artifact load", err)
	}
}
