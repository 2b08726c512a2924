package application

import "github.com/shopspring/decimal"

// PricingResultDTO 单个合约的定价结果
type PricingResultDTO struct {
	Symbol               string          `json:"symbol"`
	OptionType           string          `json:"option_type"`
	ExerciseStyle        string          `json:"exercise_style"`
	PricingModel         string          `json:"pricing_model"`
	Price                decimal.Decimal `json:"price"`
	EuropeanPrice        decimal.Decimal `json:"european_price"`
	EarlyExercisePremium decimal.Decimal `json:"early_exercise_premium"`
	BlackScholesPrice    decimal.Decimal `json:"black_scholes_price"`
	StdError             float64         `json:"std_error,omitempty"`
	Steps                int             `json:"steps"`
	Paths                int             `json:"paths,omitempty"`
	Seed                 *uint64         `json:"seed,omitempty"`
	Cached               bool            `json:"cached"`
	CalculatedAt         int64           `json:"calculated_at"`
	DurationMs           float64         `json:"duration_ms"`
}

// BatchFailure 批量定价中失败的合约
type BatchFailure struct {
	Index  int    `json:"index"`
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// BatchPricingResult 批量定价结果，Results 按输入顺序排列
type BatchPricingResult struct {
	BatchID      string              `json:"batch_id"`
	Results      []*PricingResultDTO `json:"results"`
	Failures     []BatchFailure      `json:"failures"`
	SuccessCount int                 `json:"success_count"`
	FailureCount int                 `json:"failure_count"`
	AverageTime  float64             `json:"average_time_ms"`
}

// ModelComparisonDTO 模型对比结果
type ModelComparisonDTO struct {
	Symbol            string            `json:"symbol"`
	Binomial          *PricingResultDTO `json:"binomial"`
	LongstaffSchwartz *PricingResultDTO `json:"longstaff_schwartz"`
	BlackScholesPrice decimal.Decimal   `json:"black_scholes_price"`
	// LSM 减去二叉树
	Difference         decimal.Decimal `json:"difference"`
	RelativeDifference float64         `json:"relative_difference"`
	// |Difference| / LSM 标准误，标准误为 0 时为 0
	StdErrors float64 `json:"std_errors"`
}
