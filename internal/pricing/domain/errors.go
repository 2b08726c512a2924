package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument 参数非法，所有入参校验错误都包装该错误
	ErrInvalidArgument = errors.New("invalid argument")

	ErrInvalidOptionType   = fmt.Errorf("%w: option type must be CALL or PUT", ErrInvalidArgument)
	ErrInvalidExercise     = fmt.Errorf("%w: exercise style must be AMERICAN or EUROPEAN", ErrInvalidArgument)
	ErrInvalidPricingModel = fmt.Errorf("%w: unknown pricing model", ErrInvalidArgument)
	ErrInvalidContract     = fmt.Errorf("%w: invalid option contract", ErrInvalidArgument)
	ErrInvalidSteps        = fmt.Errorf("%w: steps must be positive", ErrInvalidArgument)
	ErrInvalidPaths        = fmt.Errorf("%w: paths must be positive", ErrInvalidArgument)
	ErrInvalidDegree       = fmt.Errorf("%w: regression degree must be positive", ErrInvalidArgument)

	// ErrArbitrage 风险中性概率落在 (0,1) 之外，输入参数存在套利或不一致
	ErrArbitrage = fmt.Errorf("%w: risk-neutral probability outside (0,1)", ErrInvalidArgument)

	// ErrNumericalDegeneracy 回归矩阵无法分解，属于局部可恢复错误
	ErrNumericalDegeneracy = errors.New("numerical degeneracy in least-squares fit")
)
