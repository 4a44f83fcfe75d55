package train

import (
	"math/rand"
)

// Split 持有一次三方切分的行下标。
type Split struct {
	Train []int
	Val   []int
	Test  []int
}

// SplitIndices 按比例做确定性随机切分：同种子同 n 得到同一切分。
// val/test 至少分到各自的向下取整份额，余量全部归 train。
func SplitIndices(n int, trainFrac, valFrac, testFrac float64, seed int64) *Split {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	nVal := int(float64(n) * valFrac)
	nTest := int(float64(n) * testFrac)
	nTrain := n - nVal - nTest

	return &Split{
		Train: indices[:nTrain],
		Val:   indices[nTrain : nTrain+nVal],
		Test:  indices[nTrain+nVal:],
	}
}
