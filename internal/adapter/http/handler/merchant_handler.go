package handler

import (
	"merchant-ledger/internal/adapter/http/dto"
	"merchant-ledger/internal/core/ports"
	"merchant-ledger/pkg/apperror"
	"merchant-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MerchantHandler handles merchant and balance endpoints.
type MerchantHandler struct {
	merchantSvc ports.MerchantService
	balanceSvc  ports.BalanceService
}

// NewMerchantHandler creates a new merchant handler.
func NewMerchantHandler(merchantSvc ports.MerchantService, balanceSvc ports.BalanceService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc, balanceSvc: balanceSvc}
}

// CreateMerchant handles POST /api/v1/merchants.
func (h *MerchantHandler) CreateMerchant(c *gin.Context) {
	var req dto.CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	fee, err := dto.ParseMoney(req.PercentFee)
	if err != nil {
		response.Error(c, apperror.Validation("percent_fee must be a decimal number"))
		return
	}

	merchant, err := h.merchantSvc.CreateMerchant(c.Request.Context(), ports.CreateMerchantRequest{
		Name:       req.Name,
		PercentFee: fee,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewMerchantResponse(merchant))
}

// CreateBalance handles POST /api/v1/merchants/balance.
func (h *MerchantHandler) CreateBalance(c *gin.Context) {
	var req dto.CreateBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		response.Error(c, apperror.Validation("merchant_id must be a valid UUID"))
		return
	}
	amount, err := dto.ParseMoney(req.InitialAmount)
	if err != nil {
		response.Error(c, apperror.Validation("initial_amount must be a decimal number"))
		return
	}

	balance, err := h.balanceSvc.CreateBalance(c.Request.Context(), ports.CreateBalanceRequest{
		MerchantID:    merchantID,
		Currency:      req.Currency,
		InitialAmount: amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewBalanceResponse(balance))
}

// GetBalances handles GET /api/v1/merchants/:name/balances.
func (h *MerchantHandler) GetBalances(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		response.Error(c, apperror.Validation("merchant name is required"))
		return
	}

	balances, err := h.balanceSvc.GetBalances(c.Request.Context(), name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewBalanceResponses(balances))
}
