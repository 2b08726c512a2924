package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/response"
)

// HTTP 处理器
// 负责处理与定价相关的 HTTP 请求
type PricingHandler struct {
	service *application.PricingService
}

// 创建 HTTP 处理器实例
func NewPricingHandler(service *application.PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

// 注册路由
// 将处理器方法绑定到 Gin 路由引擎
func (h *PricingHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.Health)

	api := router.Group("/api/v1/pricing")
	{
		api.POST("/option/price", h.PriceOption)
		api.POST("/option/batch", h.BatchPriceOptions)
		api.POST("/option/compare", h.CompareModels)
	}
}

// ContractRequest 期权合约参数
// maturity（年）优先，未给出时由 expiry_date 推算。
type ContractRequest struct {
	Symbol          string     `json:"symbol"`
	OptionType      string     `json:"option_type" binding:"required"`
	ExerciseStyle   string     `json:"exercise_style"`
	UnderlyingPrice float64    `json:"underlying_price" binding:"required,gt=0"`
	StrikePrice     float64    `json:"strike_price" binding:"required,gt=0"`
	Maturity        float64    `json:"maturity" binding:"omitempty,gt=0"`
	ExpiryDate      *time.Time `json:"expiry_date"`
	RiskFreeRate    float64    `json:"risk_free_rate"`
	Volatility      float64    `json:"volatility" binding:"gte=0"`
}

func (r ContractRequest) maturity(now time.Time) float64 {
	if r.Maturity > 0 || r.ExpiryDate == nil {
		return r.Maturity
	}
	return r.ExpiryDate.Sub(now).Hours() / 24 / 365
}

// PricingRequest 定价请求
type PricingRequest struct {
	ContractRequest
	PricingModel string  `json:"pricing_model"`
	Steps        int     `json:"steps" binding:"gte=0"`
	Paths        int     `json:"paths" binding:"gte=0"`
	Degree       int     `json:"degree" binding:"gte=0"`
	Seed         *uint64 `json:"seed"`
}

func (r PricingRequest) command(now time.Time) application.PriceOptionCommand {
	return application.PriceOptionCommand{
		Symbol:          r.Symbol,
		OptionType:      r.OptionType,
		ExerciseStyle:   r.ExerciseStyle,
		UnderlyingPrice: r.UnderlyingPrice,
		StrikePrice:     r.StrikePrice,
		Maturity:        r.maturity(now),
		RiskFreeRate:    r.RiskFreeRate,
		Volatility:      r.Volatility,
		PricingModel:    r.PricingModel,
		Steps:           r.Steps,
		Paths:           r.Paths,
		Degree:          r.Degree,
		Seed:            r.Seed,
	}
}

// BatchPricingRequest 批量定价请求
type BatchPricingRequest struct {
	BatchID   string           `json:"batch_id"`
	Contracts []PricingRequest `json:"contracts" binding:"required,min=1,dive"`
}

// CompareRequest 模型对比请求
type CompareRequest struct {
	ContractRequest
	LatticeSteps    int     `json:"lattice_steps" binding:"gte=0"`
	SimulationSteps int     `json:"simulation_steps" binding:"gte=0"`
	Paths           int     `json:"paths" binding:"gte=0"`
	Degree          int     `json:"degree" binding:"gte=0"`
	Seed            *uint64 `json:"seed"`
}

// Health 健康检查
func (h *PricingHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// PriceOption 期权定价
func (h *PricingHandler) PriceOption(c *gin.Context) {
	var req PricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := h.service.PriceOption(c.Request.Context(), req.command(time.Now()))
	if err != nil {
		h.fail(c, "Failed to calculate option price", err)
		return
	}
	response.Success(c, result)
}

// BatchPriceOptions 批量定价
func (h *PricingHandler) BatchPriceOptions(c *gin.Context) {
	var req BatchPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	now := time.Now()
	cmd := application.BatchPriceOptionsCommand{
		BatchID:   req.BatchID,
		Contracts: make([]application.PriceOptionCommand, len(req.Contracts)),
	}
	for i, contract := range req.Contracts {
		cmd.Contracts[i] = contract.command(now)
	}

	result, err := h.service.BatchPriceOptions(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "Failed to price batch", err)
		return
	}
	response.Success(c, result)
}

// CompareModels 模型对比
func (h *PricingHandler) CompareModels(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := h.service.CompareModels(c.Request.Context(), application.CompareModelsCommand{
		Symbol:          req.Symbol,
		OptionType:      req.OptionType,
		ExerciseStyle:   req.ExerciseStyle,
		UnderlyingPrice: req.UnderlyingPrice,
		StrikePrice:     req.StrikePrice,
		Maturity:        req.maturity(time.Now()),
		RiskFreeRate:    req.RiskFreeRate,
		Volatility:      req.Volatility,
		LatticeSteps:    req.LatticeSteps,
		SimulationSteps: req.SimulationSteps,
		Paths:           req.Paths,
		Degree:          req.Degree,
		Seed:            req.Seed,
	})
	if err != nil {
		h.fail(c, "Failed to compare pricing models", err)
		return
	}
	response.Success(c, result)
}

func (h *PricingHandler) fail(c *gin.Context, msg string, err error) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid argument", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Warn(ctx, msg, "error", err)
		response.ErrorWithStatus(c, http.StatusServiceUnavailable, "request cancelled", err.Error())
	default:
		logger.Error(ctx, msg, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "internal error", err.Error())
	}
}
