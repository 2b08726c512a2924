package application

import (
	"context"
	"math"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"golang.org/x/sync/errgroup"
)

// CompareModels 同一合约分别用二叉树与 LSM 定价，并给出 Black-Scholes 欧式参考价
func (s *PricingService) CompareModels(ctx context.Context, cmd CompareModelsCommand) (*ModelComparisonDTO, error) {
	var lattice, lsm *PricingResultDTO

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lattice, err = s.PriceOption(gctx, cmd.priceCommand(string(domain.PricingModelBinomial), cmd.LatticeSteps))
		return err
	})
	g.Go(func() error {
		var err error
		lsm, err = s.PriceOption(gctx, cmd.priceCommand(string(domain.PricingModelLongstaffSchwartz), cmd.SimulationSteps))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	diff := lsm.Price.Sub(lattice.Price)
	out := &ModelComparisonDTO{
		Symbol:            cmd.Symbol,
		Binomial:          lattice,
		LongstaffSchwartz: lsm,
		BlackScholesPrice: lattice.BlackScholesPrice,
		Difference:        diff,
	}
	d := diff.InexactFloat64()
	if base := lattice.Price.InexactFloat64(); base != 0 {
		out.RelativeDifference = d / base
	}
	if lsm.StdError > 0 {
		out.StdErrors = math.Abs(d) / lsm.StdError
	}
	return out, nil
}
