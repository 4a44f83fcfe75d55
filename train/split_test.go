package train

import (
	"reflect"
	"sort"
	"testing"
)

func TestSplitIndicesProportions(t *testing.T) {
	s := SplitIndices(100, 0.7, 0.15, 0.15, 42)
	if len(s.Train) != 70 || len(s.Val) != 15 || len(s.Test) != 15 {
		t.Errorf("split sizes = %d/%d/%d, want 70/15/15", len(s.Train), len(s.Val), len(s.Test))
	}
}

func TestSplitIndicesRemainderGoesToTrain(t *testing.T) {
	// 10*0.15 = 1.5 向下取整为 1，余出的两行归 train
	s := SplitIndices(10, 0.7, 0.15, 0.15, 1)
	if len(s.Val) != 1 || len(s.Test) != 1 || len(s.Train) != 8 {
		t.Errorf("split sizes = %d/%d/%d, want 8/1/1", len(s.Train), len(s.Val), len(s.Test))
	}
}

func TestSplitIndicesPartition(t *testing.T) {
	n := 37
	s := SplitIndices(n, 0.6, 0.2, 0.2, 99)
	all := make([]int, 0, n)
	all = append(all, s.Train...)
	all = append(all, s.Val...)
	all = append(all, s.Test...)
	if len(all) != n {
		t.Fatalf("total rows = %d, want %d", len(all), n)
	}
	sort.Ints(all)
	for i, idx := range all {
		if idx != i {
			t.Fatalf("indices are not a partition of 0..%d: position %d holds %d", n-1, i, idx)
		}
	}
}

func TestSplitIndicesDeterministic(t *testing.T) {
	a := SplitIndices(50, 0.7, 0.15, 0.15, 42)
	b := SplitIndices(50, 0.7, 0.15, 0.15, 42)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed should produce identical splits")
	}

	c := SplitIndices(50, 0.7, 0.15, 0.15, 43)
	if reflect.DeepEqual(a.Train, c.Train) {
		t.Error("different seeds should shuffle differently")
	}
}
