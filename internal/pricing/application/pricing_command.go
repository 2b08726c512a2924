package application

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// pricingRequest 解析并补全默认值后的定价请求
type pricingRequest struct {
	symbol   string
	contract domain.OptionContract
	style    domain.ExerciseStyle
	model    domain.PricingModel
	steps    int
	paths    int
	degree   int
	seed     uint64
	seeded   bool
}

func (s *PricingService) resolve(cmd PriceOptionCommand) (pricingRequest, error) {
	req := pricingRequest{symbol: cmd.Symbol, model: s.defaultModel}

	var err error
	if cmd.PricingModel != "" {
		if req.model, err = domain.ParsePricingModel(cmd.PricingModel); err != nil {
			return req, err
		}
	}
	optionType, err := domain.ParseOptionType(cmd.OptionType)
	if err != nil {
		return req, err
	}
	if req.style, err = domain.ParseExerciseStyle(cmd.ExerciseStyle); err != nil {
		return req, err
	}
	req.contract, err = domain.NewOptionContract(optionType,
		cmd.UnderlyingPrice, cmd.StrikePrice, cmd.Maturity, cmd.RiskFreeRate, cmd.Volatility)
	if err != nil {
		return req, err
	}

	req.steps = cmd.Steps
	if req.steps == 0 {
		req.steps = s.cfg.LatticeSteps
		if req.model == domain.PricingModelLongstaffSchwartz {
			req.steps = s.cfg.SimulationSteps
		}
	}
	if req.steps < 1 {
		return req, fmt.Errorf("%w: got %d", domain.ErrInvalidSteps, req.steps)
	}
	if req.steps > s.cfg.MaxSteps {
		return req, fmt.Errorf("%w: %d > %d", ErrStepsLimit, req.steps, s.cfg.MaxSteps)
	}

	if req.model != domain.PricingModelLongstaffSchwartz {
		return req, nil
	}

	req.paths = cmd.Paths
	if req.paths == 0 {
		req.paths = s.cfg.Paths
	}
	if req.paths < 1 {
		return req, fmt.Errorf("%w: got %d", domain.ErrInvalidPaths, req.paths)
	}
	if req.paths > s.cfg.MaxPaths {
		return req, fmt.Errorf("%w: %d > %d", ErrPathsLimit, req.paths, s.cfg.MaxPaths)
	}
	// 路径矩阵按 paths*(steps+1) 一次性分配
	if cells := req.paths * (req.steps + 1); cells > s.cfg.MaxPathCells {
		return req, fmt.Errorf("%w: %d paths x %d steps needs %d cells > %d", ErrPathsLimit, req.paths, req.steps, cells, s.cfg.MaxPathCells)
	}
	req.degree = cmd.Degree
	if req.degree == 0 {
		req.degree = s.cfg.RegressionDegree
	}
	if req.degree < 1 {
		return req, fmt.Errorf("%w: got %d", domain.ErrInvalidDegree, req.degree)
	}
	if cmd.Seed != nil {
		req.seed, req.seeded = *cmd.Seed, true
	} else {
		req.seed = rand.Uint64()
	}
	return req, nil
}

// cacheable 只有可复现的结果才能缓存
func (r pricingRequest) cacheable() bool {
	return r.model == domain.PricingModelBinomial || r.seeded
}

func (r pricingRequest) cacheKey() string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	parts := []string{
		string(r.model), string(r.style), string(r.contract.Type),
		f(r.contract.S0), f(r.contract.K), f(r.contract.T), f(r.contract.R), f(r.contract.Sigma),
		strconv.Itoa(r.steps),
	}
	if r.model == domain.PricingModelLongstaffSchwartz {
		parts = append(parts, strconv.Itoa(r.paths), strconv.Itoa(r.degree), strconv.FormatUint(r.seed, 10))
	}
	return strings.Join(parts, ":")
}

// PriceOption 期权定价
func (s *PricingService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*PricingResultDTO, error) {
	start := s.now()

	req, err := s.resolve(cmd)
	if err != nil {
		s.record(req.model, outcomeInvalid, time.Since(start), 0)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cached := s.lookup(ctx, req); cached != nil {
		s.record(req.model, outcomeCached, time.Since(start), 0)
		dto := s.toDTO(req, cached, start)
		dto.Cached = true
		return dto, nil
	}

	result, err := s.compute(req)
	elapsed := time.Since(start)
	if err != nil {
		s.record(req.model, classify(err), elapsed, 0)
		logger.Warn(ctx, "option pricing failed", "symbol", req.symbol, "model", req.model, "error", err)
		return nil, err
	}
	s.record(req.model, outcomeSuccess, elapsed, req.paths)

	if req.cacheable() && s.cache != nil && s.cfg.CacheTTL > 0 {
		ttl := time.Duration(s.cfg.CacheTTL) * time.Second
		if err := s.cache.Set(ctx, req.cacheKey(), result, ttl); err != nil {
			logger.Warn(ctx, "failed to cache pricing result", "symbol", req.symbol, "error", err)
		}
	}

	dto := s.toDTO(req, result, start)
	logger.Info(ctx, "option priced",
		"symbol", req.symbol,
		"model", req.model,
		"style", req.style,
		"price", result.Price,
		"std_error", result.StdError,
		"steps", req.steps,
		"paths", req.paths,
		"duration", elapsed,
	)
	s.publishPriced(ctx, req, result, dto.CalculatedAt)
	return dto, nil
}

func (s *PricingService) lookup(ctx context.Context, req pricingRequest) *domain.CachedPrice {
	if s.cache == nil || !req.cacheable() {
		return nil
	}
	cached, ok, err := s.cache.Get(ctx, req.cacheKey())
	if err != nil {
		logger.Warn(ctx, "pricing cache lookup failed", "symbol", req.symbol, "error", err)
		ok = false
	}
	if s.recorder != nil {
		s.recorder.RecordCacheLookup(ok)
	}
	if !ok {
		return nil
	}
	return cached
}

// compute 美式合约同时计算欧式参考价，LSM 两次估计共用同一组路径
func (s *PricingService) compute(req pricingRequest) (*domain.CachedPrice, error) {
	if req.model == domain.PricingModelBinomial {
		price, err := domain.NewBinomialPricer(req.style).Price(req.contract, req.steps)
		if err != nil {
			return nil, err
		}
		european := price
		if req.style == domain.ExerciseAmerican {
			if european, err = domain.NewBinomialPricer(domain.ExerciseEuropean).Price(req.contract, req.steps); err != nil {
				return nil, err
			}
		}
		return &domain.CachedPrice{Price: price, EuropeanPrice: european, Steps: req.steps}, nil
	}

	lsm := func(style domain.ExerciseStyle) (domain.Estimate, error) {
		return domain.NewLSMPricer(
			domain.WithDegree(req.degree),
			domain.WithSeed(req.seed),
			domain.WithWorkers(s.cfg.Workers),
			domain.WithExerciseStyle(style),
		).Estimate(req.contract, req.steps, req.paths)
	}
	est, err := lsm(req.style)
	if err != nil {
		return nil, err
	}
	european := est.Price
	if req.style == domain.ExerciseAmerican {
		eu, err := lsm(domain.ExerciseEuropean)
		if err != nil {
			return nil, err
		}
		european = eu.Price
	}
	return &domain.CachedPrice{
		Price:         est.Price,
		EuropeanPrice: european,
		StdError:      est.StdError,
		Steps:         req.steps,
		Paths:         req.paths,
	}, nil
}

func (s *PricingService) toDTO(req pricingRequest, result *domain.CachedPrice, start time.Time) *PricingResultDTO {
	dto := &PricingResultDTO{
		Symbol:               req.symbol,
		OptionType:           string(req.contract.Type),
		ExerciseStyle:        string(req.style),
		PricingModel:         string(req.model),
		Price:                s.round(result.Price),
		EuropeanPrice:        s.round(result.EuropeanPrice),
		EarlyExercisePremium: s.round(result.Price - result.EuropeanPrice),
		BlackScholesPrice:    s.round(domain.BlackScholesPrice(req.contract)),
		StdError:             result.StdError,
		Steps:                result.Steps,
		Paths:                result.Paths,
		CalculatedAt:         s.now().Unix(),
		DurationMs:           float64(time.Since(start).Microseconds()) / 1000,
	}
	if req.model == domain.PricingModelLongstaffSchwartz {
		seed := req.seed
		dto.Seed = &seed
	}
	return dto
}

func (s *PricingService) publishPriced(ctx context.Context, req pricingRequest, result *domain.CachedPrice, calculatedAt int64) {
	if s.publisher == nil {
		return
	}
	event := domain.OptionPricedEvent{
		Symbol:          req.symbol,
		OptionType:      req.contract.Type,
		ExerciseStyle:   req.style,
		StrikePrice:     req.contract.K,
		Maturity:        req.contract.T,
		UnderlyingPrice: req.contract.S0,
		Volatility:      req.contract.Sigma,
		RiskFreeRate:    req.contract.R,
		PricingModel:    req.model,
		OptionPrice:     result.Price,
		StdError:        result.StdError,
		Steps:           result.Steps,
		Paths:           result.Paths,
		CalculatedAt:    calculatedAt,
		OccurredOn:      s.now(),
	}
	if err := s.publisher.PublishOptionPriced(ctx, event); err != nil {
		logger.Warn(ctx, "failed to publish option priced event", "symbol", req.symbol, "error", err)
	}
}

// BatchPriceOptions 批量定价
// 单个合约失败不影响其它合约，只有 ctx 取消时整体返回错误。
func (s *PricingService) BatchPriceOptions(ctx context.Context, cmd BatchPriceOptionsCommand) (*BatchPricingResult, error) {
	if len(cmd.Contracts) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(cmd.Contracts) > s.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(cmd.Contracts), s.cfg.MaxBatchSize)
	}
	batchID := cmd.BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	defer logger.LogDuration(ctx, "batch pricing finished", "batch_id", batchID, "contracts", len(cmd.Contracts))()

	results := make([]*PricingResultDTO, len(cmd.Contracts))
	errs := make([]error, len(cmd.Contracts))
	var mu sync.Mutex
	var totalTime time.Duration

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, contract := range cmd.Contracts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			results[i], errs[i] = s.PriceOption(gctx, contract)

			mu.Lock()
			totalTime += time.Since(start)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &BatchPricingResult{
		BatchID:  batchID,
		Results:  make([]*PricingResultDTO, 0, len(cmd.Contracts)),
		Failures: []BatchFailure{},
	}
	for i, err := range errs {
		if err != nil {
			out.Failures = append(out.Failures, BatchFailure{Index: i, Symbol: cmd.Contracts[i].Symbol, Error: err.Error()})
			continue
		}
		out.Results = append(out.Results, results[i])
	}
	out.SuccessCount = len(out.Results)
	out.FailureCount = len(out.Failures)
	out.AverageTime = float64(totalTime.Microseconds()) / 1000 / float64(len(cmd.Contracts))

	if s.publisher != nil {
		event := domain.BatchPricingCompletedEvent{
			BatchID:        batchID,
			Symbols:        extractSymbols(cmd.Contracts),
			TotalContracts: len(cmd.Contracts),
			SuccessCount:   out.SuccessCount,
			FailureCount:   out.FailureCount,
			AverageTime:    out.AverageTime,
			CompletedAt:    s.now().Unix(),
			OccurredOn:     s.now(),
		}
		if err := s.publisher.PublishBatchPricingCompleted(ctx, event); err != nil {
			logger.Warn(ctx, "failed to publish batch pricing event", "batch_id", batchID, "error", err)
		}
	}
	return out, nil
}

// 辅助函数：提取合约符号，去重并保持顺序
func extractSymbols(contracts []PriceOptionCommand) []string {
	symbols := make([]string, 0, len(contracts))
	seen := make(map[string]bool)

	for _, contract := range contracts {
		if contract.Symbol != "" && !seen[contract.Symbol] {
			symbols = append(symbols, contract.Symbol)
			seen[contract.Symbol] = true
		}
	}
	return symbols
}
