package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "empty existing yields incoming",
			existing: Label{},
			incoming: Label{Value: "hit", Source: SourceCache},
			want:     Label{Value: "hit", Source: SourceCache},
		},
		{
			name:     "empty incoming keeps existing",
			existing: Label{Value: "hit", Source: SourceCache},
			incoming: Label{},
			want:     Label{Value: "hit", Source: SourceCache},
		},
		{
			name:     "values accumulate with pipe and sources with comma",
			existing: Label{Value: "cache_miss", Source: SourceCache},
			incoming: Label{Value: "predicted", Source: SourcePredict},
			want:     Label{Value: "cache_miss|predicted", Source: "cache,predict"},
		},
		{
			name:     "missing existing source adopts incoming",
			existing: Label{Value: "a"},
			incoming: Label{Value: "b", Source: SourceTrain},
			want:     Label{Value: "a|b", Source: SourceTrain},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeLabel(tt.existing, tt.incoming); got != tt.want {
				t.Errorf("MergeLabel() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
