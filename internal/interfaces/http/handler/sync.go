package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/pos-bridge/internal/domain/integration"
	"github.com/erp/pos-bridge/internal/domain/shared"
	"github.com/erp/pos-bridge/internal/interfaces/http/dto"
)

// OutboundSyncer pushes local records to the POS backend
type OutboundSyncer interface {
	CreateCustomer(ctx context.Context, customerID uuid.UUID) error
	UpdateCustomer(ctx context.Context, customerID uuid.UUID) error
	RemoveCustomer(ctx context.Context, customerID uuid.UUID) error
	CreateOrder(ctx context.Context, orderID uuid.UUID) error
	ConfirmOrder(ctx context.Context, orderID uuid.UUID) error
	CancelOrder(ctx context.Context, orderID uuid.UUID) error
}

// FullSyncTrigger runs an on-demand full stock synchronization
type FullSyncTrigger interface {
	TriggerNow(ctx context.Context) error
}

// SyncHandler exposes the outbound push operations to the shop application
type SyncHandler struct {
	outbound OutboundSyncer
	fullSync FullSyncTrigger
	logger   *zap.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(outbound OutboundSyncer, fullSync FullSyncTrigger, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		outbound: outbound,
		fullSync: fullSync,
		logger:   logger,
	}
}

// PushCustomer handles POST /api/v1/sync/customers/:id
func (h *SyncHandler) PushCustomer(c *gin.Context) {
	h.run(c, h.outbound.CreateCustomer)
}

// UpdateCustomer handles PUT /api/v1/sync/customers/:id
func (h *SyncHandler) UpdateCustomer(c *gin.Context) {
	h.run(c, h.outbound.UpdateCustomer)
}

// RemoveCustomer handles DELETE /api/v1/sync/customers/:id
func (h *SyncHandler) RemoveCustomer(c *gin.Context) {
	h.run(c, h.outbound.RemoveCustomer)
}

// PushOrder handles POST /api/v1/sync/orders/:id
func (h *SyncHandler) PushOrder(c *gin.Context) {
	h.run(c, h.outbound.CreateOrder)
}

// ConfirmOrder handles POST /api/v1/sync/orders/:id/confirm
func (h *SyncHandler) ConfirmOrder(c *gin.Context) {
	h.run(c, h.outbound.ConfirmOrder)
}

// CancelOrder handles POST /api/v1/sync/orders/:id/cancel
func (h *SyncHandler) CancelOrder(c *gin.Context) {
	h.run(c, h.outbound.CancelOrder)
}

// TriggerFullSync handles POST /api/v1/sync/full
func (h *SyncHandler) TriggerFullSync(c *gin.Context) {
	if h.fullSync == nil {
		c.JSON(http.StatusConflict, dto.NewErrorResponse("ERR_SCHEDULER_DISABLED", "Full sync scheduler is not running"))
		return
	}
	if err := h.fullSync.TriggerNow(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "completed"}))
}

func (h *SyncHandler) run(c *gin.Context, op func(context.Context, uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, "Invalid identifier"))
		return
	}

	if err := op(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"status": "synced"}))
}

func (h *SyncHandler) respondError(c *gin.Context, err error) {
	var domainErr *shared.DomainError

	switch {
	case errors.Is(err, shared.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("NOT_FOUND", err.Error()))
	case errors.Is(err, integration.ErrUnmappedPaymentMethod):
		c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse("ERR_UNMAPPED_PAYMENT", err.Error()))
	case errors.Is(err, integration.ErrPOSUnavailable), errors.Is(err, integration.ErrPOSInvalidResponse):
		c.JSON(http.StatusBadGateway, dto.NewErrorResponse("ERR_POS_UNAVAILABLE", err.Error()))
	case errors.As(err, &domainErr):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(domainErr.Code, domainErr.Message))
	default:
		h.logger.Error("Sync operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, "Sync operation failed"))
	}
}
