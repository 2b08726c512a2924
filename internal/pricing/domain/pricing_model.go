package domain

import (
	"fmt"
	"strings"
)

// PricingModel 定价模型
type PricingModel string

const (
	PricingModelBinomial          PricingModel = "Binomial"
	PricingModelLongstaffSchwartz PricingModel = "LongstaffSchwartz"
)

// ParsePricingModel 解析定价模型名称，接受常见别名
func ParsePricingModel(s string) (PricingModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binomial", "crr", "lattice":
		return PricingModelBinomial, nil
	case "longstaffschwartz", "lsm", "montecarlo", "simulation":
		return PricingModelLongstaffSchwartz, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPricingModel, s)
	}
}
