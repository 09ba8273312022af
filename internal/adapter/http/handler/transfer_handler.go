package handler

import (
	"merchant-ledger/internal/adapter/http/dto"
	"merchant-ledger/internal/core/ports"
	"merchant-ledger/pkg/apperror"
	"merchant-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client-chosen retry token.
const HeaderIdempotencyKey = "Idempotency-Key"

// TransferHandler handles transfer endpoints.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// CreateTransfer handles POST /api/v1/transfers. A replayed Idempotency-Key
// returns the original transfer with the same status code.
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	idempotencyKey := c.GetHeader(HeaderIdempotencyKey)
	if idempotencyKey == "" {
		response.Error(c, apperror.Validation("Idempotency-Key header is required"))
		return
	}

	var req dto.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := dto.ParseMoney(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("amount must be a decimal number"))
		return
	}

	transfer, err := h.transferSvc.CreateTransfer(c.Request.Context(), ports.CreateTransferRequest{
		FromMerchant:   req.FromMerchant,
		ToMerchant:     req.ToMerchant,
		Amount:         amount,
		Currency:       req.Currency,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewTransferResponse(transfer))
}

// ListTransfers handles GET /api/v1/transfers with optional from_merchant,
// to_merchant, and currency query filters.
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	transfers, err := h.transferSvc.ListTransfers(
		c.Request.Context(),
		c.Query("from_merchant"),
		c.Query("to_merchant"),
		c.Query("currency"),
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewTransferResponses(transfers))
}
