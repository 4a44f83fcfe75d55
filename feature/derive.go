package feature

import (
	"math"

	"github.com/rushteam/revkit/core"
)

// 派生特征目录（固定，fit 与 serving 共用同一份代码路径）。
//
// 每个派生特征都是规范行形状上的全函数：基列缺失时取显式哨兵 0，
// 而不是省略该列。输出列集因此与输入行的"形状"无关。

// 派生特征列名（顺序即 derivedNames 的顺序）
const (
	FeatLogEmployees       = "log_employees"
	FeatLogFunding         = "log_funding"
	FeatLogValuation       = "log_valuation"
	FeatLogInvestors       = "log_investors"
	FeatAvgFundingPerRound = "avg_funding_per_round"
	FeatValuationPerEmp    = "valuation_per_employee"
	FeatValuationGrowth    = "valuation_growth_rate"
	FeatAgeSquared         = "age_squared"
	FeatEmployeesSquared   = "employees_squared"
	FeatIsYoung            = "is_young"
	FeatIsMature           = "is_mature"
	FeatIsGrowthStage      = "is_growth_stage"
	FeatIsEarlyStage       = "is_early_stage"
	FeatIsTopCountry       = "is_top_country"
	FeatIsTechIndustry     = "is_tech_industry"
	FeatEmployeeAvg        = "employee_count_avg"
	FeatEmployeeSpread     = "employee_count_spread"
	FeatEmpXStage          = "employees_x_stage"
)

// 阈值型派生特征的固定边界
const (
	youngAgeMax    = 5.0  // 成立 ≤5 年为 young
	matureAgeMin   = 20.0 // 成立 ≥20 年为 mature
	growthStageMin = 3.0  // B 轮及以后为 growth
	earlyStageMax  = 1.0  // 种子及以前为 early
)

// topCountries 是头部国家白名单（成员标记特征）。
var topCountries = map[string]bool{
	"United States":  true,
	"China":          true,
	"United Kingdom": true,
	"Germany":        true,
	"India":          true,
	"France":         true,
	"Canada":         true,
	"Israel":         true,
}

// techIndustries 是科技类行业白名单（成员标记特征）。
var techIndustries = map[string]bool{
	"Software":               true,
	"Internet Services":      true,
	"Information Technology": true,
	"Artificial Intelligence": true,
	"Fintech":                true,
	"Biotechnology":          true,
	"Hardware":               true,
}

// derivedNames 返回派生特征列名（固定顺序）。
func derivedNames() []string {
	return []string{
		FeatLogEmployees,
		FeatLogFunding,
		FeatLogValuation,
		FeatLogInvestors,
		FeatAvgFundingPerRound,
		FeatValuationPerEmp,
		FeatValuationGrowth,
		FeatAgeSquared,
		FeatEmployeesSquared,
		FeatIsYoung,
		FeatIsMature,
		FeatIsGrowthStage,
		FeatIsEarlyStage,
		FeatIsTopCountry,
		FeatIsTechIndustry,
		FeatEmployeeAvg,
		FeatEmployeeSpread,
		FeatEmpXStage,
	}
}

// derive 在归一化行上计算全部派生特征。
// 约定：基列缺失时派生值为 0（显式哨兵），比值类分母统一 +1 防零除。
func derive(r *normRow) map[string]float64 {
	out := make(map[string]float64, len(derivedNames()))

	out[FeatLogEmployees] = log1pIfPresent(r, core.AttrEmployeeCount)
	out[FeatLogFunding] = log1pIfPresent(r, core.AttrTotalFunding)
	out[FeatLogValuation] = log1pIfPresent(r, core.AttrValuation)
	out[FeatLogInvestors] = log1pIfPresent(r, core.AttrNumInvestors)

	// 比值类：avg_funding_per_round = funding / (rounds + 1)
	out[FeatAvgFundingPerRound] = 0
	if funding, ok := r.val(core.AttrTotalFunding); ok {
		rounds, _ := r.val(core.AttrNumFundingRounds)
		out[FeatAvgFundingPerRound] = funding / (rounds + 1)
	}
	out[FeatValuationPerEmp] = 0
	if valuation, ok := r.val(core.AttrValuation); ok {
		emp, _ := r.val(core.AttrEmployeeCount)
		out[FeatValuationPerEmp] = valuation / (emp + 1)
	}
	out[FeatValuationGrowth] = 0
	if valuation, ok := r.val(core.AttrValuation); ok {
		funding, _ := r.val(core.AttrTotalFunding)
		out[FeatValuationGrowth] = valuation / (funding + 1)
	}

	// 多项式项
	out[FeatAgeSquared] = squareIfPresent(r, core.AttrCompanyAge)
	out[FeatEmployeesSquared] = squareIfPresent(r, core.AttrEmployeeCount)

	// 阈值标记
	out[FeatIsYoung] = 0
	out[FeatIsMature] = 0
	if age, ok := r.val(core.AttrCompanyAge); ok {
		out[FeatIsYoung] = boolFeat(age <= youngAgeMax)
		out[FeatIsMature] = boolFeat(age >= matureAgeMin)
	}
	out[FeatIsGrowthStage] = 0
	out[FeatIsEarlyStage] = 0
	if stage, ok := r.val(core.AttrFundingStage); ok {
		out[FeatIsGrowthStage] = boolFeat(stage >= growthStageMin)
		out[FeatIsEarlyStage] = boolFeat(stage <= earlyStageMax)
	}

	// 白名单成员标记（类别缺失时为 0）
	out[FeatIsTopCountry] = boolFeat(topCountries[r.cat[core.AttrCountry]])
	out[FeatIsTechIndustry] = boolFeat(techIndustries[r.cat[core.AttrIndustry]])

	// 多来源员工数：对在场来源求均值与极差，一个来源都没有时为 0
	avg, spread := employeeSourceStats(r)
	out[FeatEmployeeAvg] = avg
	out[FeatEmployeeSpread] = spread

	// 交互项：员工数 × 融资阶段
	out[FeatEmpXStage] = 0
	if emp, ok := r.val(core.AttrEmployeeCount); ok {
		stage, _ := r.val(core.AttrFundingStage)
		out[FeatEmpXStage] = emp * stage
	}

	return out
}

func log1pIfPresent(r *normRow, attr string) float64 {
	v, ok := r.val(attr)
	if !ok || v < 0 {
		return 0
	}
	return math.Log1p(v)
}

func squareIfPresent(r *normRow, attr string) float64 {
	v, ok := r.val(attr)
	if !ok {
		return 0
	}
	return v * v
}

func boolFeat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// employeeSourceStats 汇总多来源员工数：返回在场来源的均值与极差（max-min）。
func employeeSourceStats(r *normRow) (avg, spread float64) {
	sources := []string{core.AttrEmployeeCount, core.AttrEmployeeLinkedin, core.AttrEmployeeWeb}
	var present []float64
	for _, s := range sources {
		if v, ok := r.val(s); ok {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return 0, 0
	}
	minV, maxV, sum := present[0], present[0], 0.0
	for _, v := range present {
		sum += v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return sum / float64(len(present)), maxV - minV
}
