package application

// PriceOptionCommand 期权定价命令
// Steps/Paths/Degree 为 0 时取配置默认值；Seed 为空时随机生成并在结果中返回。
type PriceOptionCommand struct {
	Symbol          string
	OptionType      string
	ExerciseStyle   string
	UnderlyingPrice float64
	StrikePrice     float64
	Maturity        float64 // 年
	RiskFreeRate    float64
	Volatility      float64
	PricingModel    string
	Steps           int
	Paths           int
	Degree          int
	Seed            *uint64
}

// BatchPriceOptionsCommand 批量定价命令
type BatchPriceOptionsCommand struct {
	BatchID   string
	Contracts []PriceOptionCommand
}

// CompareModelsCommand 模型对比命令，同一合约分别用二叉树与 LSM 定价
type CompareModelsCommand struct {
	Symbol          string
	OptionType      string
	ExerciseStyle   string
	UnderlyingPrice float64
	StrikePrice     float64
	Maturity        float64
	RiskFreeRate    float64
	Volatility      float64
	LatticeSteps    int
	SimulationSteps int
	Paths           int
	Degree          int
	Seed            *uint64
}

func (c CompareModelsCommand) priceCommand(model string, steps int) PriceOptionCommand {
	return PriceOptionCommand{
		Symbol:          c.Symbol,
		OptionType:      c.OptionType,
		ExerciseStyle:   c.ExerciseStyle,
		UnderlyingPrice: c.UnderlyingPrice,
		StrikePrice:     c.StrikePrice,
		Maturity:        c.Maturity,
		RiskFreeRate:    c.RiskFreeRate,
		Volatility:      c.Volatility,
		PricingModel:    model,
		Steps:           steps,
		Paths:           c.Paths,
		Degree:          c.Degree,
		Seed:            c.Seed,
	}
}
