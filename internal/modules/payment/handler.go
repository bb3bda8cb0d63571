package payment

import (
	"net/http"
	"strconv"

	"stayhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the authenticated payment-URL endpoint on rg and
// the unauthenticated gateway callback on public (the gateway cannot
// send a bearer token; the signature is its authentication).
func (h *Handler) RegisterRoutes(rg, public *gin.RouterGroup) {
	rg.GET("/bookings/:id/payment-url", h.GetPaymentURL)
	public.GET("/payments/callback", h.Callback)
}

func (h *Handler) GetPaymentURL(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	u, err := h.service.GetPaymentURL(c.Request.Context(), id, c.GetInt64("user_id"), c.ClientIP())
	if err != nil {
		switch err {
		case ErrNotFound:
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case ErrForbidden:
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Booking belongs to another user")
		case ErrNotPayable:
			response.Error(c, http.StatusConflict, "NOT_PAYABLE", "Booking is not awaiting payment")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build payment URL")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payment_url": u})
}

func (h *Handler) Callback(c *gin.Context) {
	params := make(map[string]string)
	for k, vs := range c.Request.URL.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}

	b, err := h.service.HandleCallback(c.Request.Context(), params)
	if err != nil {
		switch err {
		case ErrInvalidSignature, ErrInvalidCallback, ErrAmountMismatch:
			response.Error(c, http.StatusBadRequest, "INVALID_CALLBACK", "Callback rejected")
		case ErrNotFound:
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process callback")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"booking_id":     b.ID,
		"status":         b.Status,
		"payment_status": b.PaymentStatus,
	})
}
