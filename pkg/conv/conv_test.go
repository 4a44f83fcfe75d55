package conv

import (
	"reflect"
	"testing"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"float64", 3.5, 3.5, true},
		{"float32", float32(2), 2, true},
		{"int", 7, 7, true},
		{"int64", int64(-4), -4, true},
		{"bool true", true, 1, true},
		{"bool false", false, 0, true},
		{"string rejected", "3.5", 0, false},
		{"nil rejected", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat64(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ToFloat64(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMapToFloat64(t *testing.T) {
	got := MapToFloat64(map[string]any{
		"a": 1,
		"b": 2.5,
		"c": "skip",
	})
	want := map[string]float64{"a": 1, "b": 2.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MapToFloat64() = %v, want %v", got, want)
	}
	if MapToFloat64(nil) != nil {
		t.Error("nil map should stay nil")
	}
}

func TestSliceAnyToString(t *testing.T) {
	got := SliceAnyToString([]any{"x", 3.0, 7, true, struct{}{}})
	want := []string{"x", "3", "7", "1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SliceAnyToString() = %v, want %v", got, want)
	}
	if SliceAnyToString("not a slice") != nil {
		t.Error("non-slice input should return nil")
	}
}

func TestConfigGet(t *testing.T) {
	m := map[string]any{
		"expr":    "completeness > 0.5",
		"ttl":     600,
		"ratio":   0.25,
		"enabled": true,
	}
	if got := ConfigGet(m, "expr", ""); got != "completeness > 0.5" {
		t.Errorf("ConfigGet(expr) = %q", got)
	}
	if got := ConfigGet(m, "missing", "fallback"); got != "fallback" {
		t.Errorf("ConfigGet(missing) = %q, want fallback", got)
	}
	// 类型不符回落默认值
	if got := ConfigGet(m, "ttl", "default"); got != "default" {
		t.Errorf("ConfigGet(ttl as string) = %q, want default", got)
	}
	if got := ConfigGet(m, "enabled", false); got != true {
		t.Error("ConfigGet(enabled) = false, want true")
	}
}

func TestConfigGetNumeric(t *testing.T) {
	m := map[string]any{
		"int":   42,
		"i64":   int64(43),
		"float": 44.0,
	}
	// YAML 解析常给出 int，JSON 常给出 float64，两条路径都要通
	if got := ConfigGetInt64(m, "int", 0); got != 42 {
		t.Errorf("ConfigGetInt64(int) = %d", got)
	}
	if got := ConfigGetInt64(m, "float", 0); got != 44 {
		t.Errorf("ConfigGetInt64(float) = %d", got)
	}
	if got := ConfigGetInt64(m, "missing", 9); got != 9 {
		t.Errorf("ConfigGetInt64(missing) = %d, want 9", got)
	}
	if got := ConfigGetFloat64(m, "int", 0); got != 42 {
		t.Errorf("ConfigGetFloat64(int) = %v", got)
	}
	if got := ConfigGetFloat64(nil, "x", 1.5); got != 1.5 {
		t.Errorf("ConfigGetFloat64(nil map) = %v, want 1.5", got)
	}
}
