package core

// 本文件定义公司属性的规范 Schema（封闭目录）。
//
// 设计要点：任何原始行在进入特征流水线前，先被归一化到这个固定属性集合
// （缺失字段显式标记为缺失），之后的派生特征全部是这个规范形状上的全函数。
// 因此输出列集只取决于 Schema，不取决于某一行恰好带了哪些字段——
// fit 期与 serving 期的列集不可能静默分叉。

// 目标列名：公司年营收（美元，原始量纲）。
const TargetAnnualRevenue = "annual_revenue_usd"

// 数值属性（规范名）
const (
	AttrValuation         = "valuation_usd"
	AttrEmployeeCount     = "employee_count"
	AttrEmployeeLinkedin  = "employee_count_linkedin" // 第二来源的员工数
	AttrEmployeeWeb       = "employee_count_web"      // 第三来源的员工数
	AttrTotalFunding      = "total_funding_usd"
	AttrNumFundingRounds  = "num_funding_rounds"
	AttrLastFundingAmount = "last_funding_amount_usd"
	AttrFundingStage      = "funding_stage" // 0=未融资 1=种子 2=A 3=B 4=C 5=C+
	AttrCompanyAge        = "company_age_years"
	AttrNumInvestors      = "num_investors"
)

// 类别属性（规范名）
const (
	AttrIndustry        = "industry"
	AttrIndustryGroup   = "industry_group"
	AttrCountry         = "country"
	AttrRegion          = "region"
	AttrCity            = "city"
	AttrLastFundingType = "last_funding_type"
	AttrRevenueRange    = "revenue_range"
	AttrSizeBucket      = "size_bucket"
)

// UnknownCategory 是类别属性的保留桶：缺失或 fit 期未见过的值都归入此桶。
const UnknownCategory = "Unknown"

// UnseenLabelCode 是 label 编码对 fit 期未见类别的哨兵值（不报错，编码为 -1）。
const UnseenLabelCode = -1.0

// NumericAttrs 返回规范数值属性列表（顺序固定）。
func NumericAttrs() []string {
	return []string{
		AttrValuation,
		AttrEmployeeCount,
		AttrEmployeeLinkedin,
		AttrEmployeeWeb,
		AttrTotalFunding,
		AttrNumFundingRounds,
		AttrLastFundingAmount,
		AttrFundingStage,
		AttrCompanyAge,
		AttrNumInvestors,
	}
}

// CategoricalAttrs 返回规范类别属性列表（顺序固定）。
func CategoricalAttrs() []string {
	return []string{
		AttrIndustry,
		AttrIndustryGroup,
		AttrCountry,
		AttrRegion,
		AttrCity,
		AttrLastFundingType,
		AttrRevenueRange,
		AttrSizeBucket,
	}
}

// ZeroFillAttrs 返回"缺失即未发生"的计数/金额列：缺失以 0 填充。
func ZeroFillAttrs() []string {
	return []string{
		AttrTotalFunding,
		AttrNumFundingRounds,
		AttrLastFundingAmount,
		AttrFundingStage,
		AttrNumInvestors,
	}
}

// MedianFillAttrs 返回连续量级列：缺失以 fit 期中位数填充（serving 期原样 replay，绝不重算）。
func MedianFillAttrs() []string {
	return []string{
		AttrValuation,
		AttrEmployeeCount,
		AttrEmployeeLinkedin,
		AttrEmployeeWeb,
		AttrCompanyAge,
	}
}

// AllAttrs 返回全部规范属性（数值在前，类别在后），用于完整度计算与行归一化。
func AllAttrs() []string {
	nums := NumericAttrs()
	cats := CategoricalAttrs()
	all := make([]string, 0, len(nums)+len(cats))
	all = append(all, nums...)
	all = append(all, cats...)
	return all
}
