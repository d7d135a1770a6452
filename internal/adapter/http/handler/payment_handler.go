package handler

import (
	"wallet-ledger-service/internal/adapter/http/dto"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"
	"wallet-ledger-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles gateway top-up endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// InitiatePayment handles POST /api/v1/wallet/payment/request.
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PaymentInitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.paymentSvc.InitiatePayment(c.Request.Context(), userID, req.Amount, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.PaymentInitiateResponse{
		Payment:    dto.FromPayment(result.Payment),
		PaymentURL: result.PaymentURL,
	})
}

// VerifyPayment handles POST /api/v1/wallet/payment/verify.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PaymentVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.paymentSvc.VerifyPayment(c.Request.Context(), userID, req.Authority, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PaymentVerifyResponse{
		Payment:         dto.FromPayment(result.Payment),
		RefID:           result.RefID,
		AlreadyVerified: result.AlreadyVerified,
	})
}

// CancelPayment handles POST /api/v1/wallet/payment/cancel.
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PaymentCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	payment, err := h.paymentSvc.CancelPayment(c.Request.Context(), userID, req.Authority)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromPayment(payment))
}
