// Package application 定价服务的应用层：参数解析、缓存、事件发布与指标
package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/config"
)

// MetricsRecorder 定价指标记录
type MetricsRecorder interface {
	RecordPricing(model, outcome string, seconds float64, paths int)
	RecordCacheLookup(hit bool)
}

const (
	outcomeSuccess = "success"
	outcomeCached  = "cached"
	outcomeInvalid = "invalid_argument"
	outcomeError   = "error"
)

var (
	ErrStepsLimit    = fmt.Errorf("%w: steps exceed configured maximum", domain.ErrInvalidArgument)
	ErrPathsLimit    = fmt.Errorf("%w: paths exceed configured maximum", domain.ErrInvalidArgument)
	ErrEmptyBatch    = fmt.Errorf("%w: batch has no contracts", domain.ErrInvalidArgument)
	ErrBatchTooLarge = fmt.Errorf("%w: batch exceeds configured maximum size", domain.ErrInvalidArgument)
)

// PricingService 定价门面服务
// cache、publisher、recorder 均可为 nil。
type PricingService struct {
	cfg          config.PricingConfig
	defaultModel domain.PricingModel
	cache        domain.PricingCache
	publisher    domain.EventPublisher
	recorder     MetricsRecorder
	now          func() time.Time
}

// NewPricingService 构造函数
func NewPricingService(cfg config.PricingConfig, cache domain.PricingCache, publisher domain.EventPublisher, recorder MetricsRecorder) (*PricingService, error) {
	model, err := domain.ParsePricingModel(cfg.DefaultModel)
	if err != nil {
		return nil, err
	}
	return &PricingService{
		cfg:          cfg,
		defaultModel: model,
		cache:        cache,
		publisher:    publisher,
		recorder:     recorder,
		now:          time.Now,
	}, nil
}

func (s *PricingService) record(model domain.PricingModel, outcome string, elapsed time.Duration, paths int) {
	if s.recorder == nil {
		return
	}
	label := string(model)
	if label == "" {
		label = "unknown"
	}
	s.recorder.RecordPricing(label, outcome, elapsed.Seconds(), paths)
}

func (s *PricingService) round(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(s.cfg.PriceScale)
}

func classify(err error) string {
	if errors.Is(err, domain.ErrInvalidArgument) {
		return outcomeInvalid
	}
	return outcomeError
}
