package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/erp/pos-bridge/internal/domain/integration"
	"github.com/erp/pos-bridge/internal/domain/shared"
	"github.com/erp/pos-bridge/internal/infrastructure/cache"
	"github.com/erp/pos-bridge/internal/interfaces/http/dto"
)

// InboundApplier applies POS-pushed change events to the local store
type InboundApplier interface {
	ApplyProductChange(ctx context.Context, change *integration.ProductChange) error
	ApplyStockChange(ctx context.Context, change *integration.StockChange) error
}

// WebhookHandler receives catalog and stock change webhooks from the POS.
// Deliveries are at-least-once; a processed delivery fingerprint is recorded
// so an exact redelivery is acknowledged without being reapplied.
type WebhookHandler struct {
	inbound     InboundApplier
	idempotency shared.IdempotencyStore
	logger      *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(inbound InboundApplier, idempotency shared.IdempotencyStore, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		inbound:     inbound,
		idempotency: idempotency,
		logger:      logger,
	}
}

// HandleProductChange handles POST /webhooks/epos/product
func (h *WebhookHandler) HandleProductChange(c *gin.Context) {
	h.handle(c, func(raw []byte) (func(context.Context) error, error) {
		var change integration.ProductChange
		if err := binding.JSON.BindBody(raw, &change); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return h.inbound.ApplyProductChange(ctx, &change)
		}, nil
	})
}

// HandleStockChange handles POST /webhooks/epos/stock
func (h *WebhookHandler) HandleStockChange(c *gin.Context) {
	h.handle(c, func(raw []byte) (func(context.Context) error, error) {
		var change integration.StockChange
		if err := binding.JSON.BindBody(raw, &change); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return h.inbound.ApplyStockChange(ctx, &change)
		}, nil
	})
}

// handle runs the shared webhook pipeline: read raw body, bind, suppress
// duplicates, apply, record the fingerprint. The fingerprint is only recorded
// after a successful apply so a failed delivery can be retried by the POS.
func (h *WebhookHandler) handle(c *gin.Context, bind func(raw []byte) (func(context.Context) error, error)) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, "Cannot read request body"))
		return
	}

	apply, err := bind(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidJSON, err.Error()))
		return
	}

	fingerprint := cache.Fingerprint(c.FullPath(), raw)

	seen, err := h.idempotency.IsProcessed(c.Request.Context(), fingerprint)
	if err != nil {
		h.logger.Warn("Idempotency check failed, processing anyway", zap.Error(err))
	}
	if seen {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "duplicate"}))
		return
	}

	if err := apply(c.Request.Context()); err != nil {
		h.logger.Error("Webhook processing failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, "Failed to apply change"))
		return
	}

	if _, err := h.idempotency.MarkProcessed(c.Request.Context(), fingerprint, shared.DefaultIdempotencyTTL); err != nil {
		h.logger.Warn("Failed to record delivery fingerprint", zap.Error(err))
	}

	c.Status(http.StatusNoContent)
}
