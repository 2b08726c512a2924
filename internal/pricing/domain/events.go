package domain

import "time"

const (
	OptionPricedEventType          = "OptionPriced"
	BatchPricingCompletedEventType = "BatchPricingCompleted"
)

// OptionPricedEvent 期权定价完成事件
type OptionPricedEvent struct {
	Symbol          string        `json:"symbol"`
	OptionType      OptionType    `json:"option_type"`
	ExerciseStyle   ExerciseStyle `json:"exercise_style"`
	StrikePrice     float64       `json:"strike_price"`
	Maturity        float64       `json:"maturity"`
	UnderlyingPrice float64       `json:"underlying_price"`
	Volatility      float64       `json:"volatility"`
	RiskFreeRate    float64       `json:"risk_free_rate"`
	PricingModel    PricingModel  `json:"pricing_model"`
	OptionPrice     float64       `json:"option_price"`
	StdError        float64       `json:"std_error,omitempty"`
	Steps           int           `json:"steps"`
	Paths           int           `json:"paths,omitempty"`
	CalculatedAt    int64         `json:"calculated_at"`
	OccurredOn      time.Time     `json:"occurred_on"`
}

// BatchPricingCompletedEvent 批量定价完成事件
type BatchPricingCompletedEvent struct {
	BatchID        string    `json:"batch_id"`
	Symbols        []string  `json:"symbols"`
	TotalContracts int       `json:"total_contracts"`
	SuccessCount   int       `json:"success_count"`
	FailureCount   int       `json:"failure_count"`
	AverageTime    float64   `json:"average_time"`
	CompletedAt    int64     `json:"completed_at"`
	OccurredOn     time.Time `json:"occurred_on"`
}
