package feature

import (
	"sort"

	"github.com/rushteam/revkit/core"
)

// 类别编码器：frequency 编码与 label 编码。
// 两者的表都在 fit 期一次性建好，serving 期只查表——
// 未见类别不会报错：frequency → 0，label → -1 哨兵。

// FrequencyEncoder 频率编码
// 用类别在 fit 期人群中的占比编码
type FrequencyEncoder struct {
	Frequencies map[string]map[string]float64 // 每个列名对应的类别到占比的映射
}

// FitFrequencyEncoder 在填充后的类别行上统计每列的类别占比。
// rows 的每个元素是一行的 列名 → 类别值（缺失已填充为 Unknown）。
func FitFrequencyEncoder(columns []string, rows []map[string]string) *FrequencyEncoder {
	freqs := make(map[string]map[string]float64, len(columns))
	n := float64(len(rows))
	for _, col := range columns {
		counts := make(map[string]float64)
		for _, row := range rows {
			counts[row[col]]++
		}
		table := make(map[string]float64, len(counts))
		if n > 0 {
			for cat, cnt := range counts {
				table[cat] = cnt / n
			}
		}
		freqs[col] = table
	}
	return &FrequencyEncoder{Frequencies: freqs}
}

// EncodeWithKey 编码单个值（指定列名）。
// fit 期未见过的类别编码为 0，不做平滑。
func (e *FrequencyEncoder) EncodeWithKey(key, value string) float64 {
	table, ok := e.Frequencies[key]
	if !ok {
		return 0
	}
	return table[value]
}

// LabelEncoder Label 编码
// 将类别映射为 fit 期词表中的整数；词表恒包含 Unknown 保留桶
type LabelEncoder struct {
	Vocab map[string]map[string]int // 每个列名对应的类别到整数的映射
}

// FitLabelEncoder 为每列建立 label 词表。
// 词表总是包含 Unknown；类别按字典序分配编码，保证 fit 的确定性。
func FitLabelEncoder(columns []string, rows []map[string]string) *LabelEncoder {
	vocab := make(map[string]map[string]int, len(columns))
	for _, col := range columns {
		seen := map[string]bool{core.UnknownCategory: true}
		for _, row := range rows {
			seen[row[col]] = true
		}
		cats := make([]string, 0, len(seen))
		for cat := range seen {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		table := make(map[string]int, len(cats))
		for i, cat := range cats {
			table[cat] = i
		}
		vocab[col] = table
	}
	return &LabelEncoder{Vocab: vocab}
}

// EncodeWithKey 编码单个值（指定列名）。
// fit 期未见过的类别编码为 -1 哨兵，而不是报错。
func (e *LabelEncoder) EncodeWithKey(key, value string) float64 {
	table, ok := e.Vocab[key]
	if !ok {
		return core.UnseenLabelCode
	}
	code, ok := table[value]
	if !ok {
		return core.UnseenLabelCode
	}
	return float64(code)
}
