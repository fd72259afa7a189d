package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/server/http/dto"
)

// QueueHandler serves POST /auto-order-queue.
type QueueHandler struct {
	queue QueueFacade
}

func NewQueueHandler(queue QueueFacade) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// Handle routes the request by its action field.
func (h *QueueHandler) Handle(c *gin.Context) {
	var req dto.QueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
		return
	}

	switch req.Action {
	case dto.ActionEnqueue:
		h.enqueue(c, req)
	case dto.ActionQueueStatus:
		h.status(c, req)
	case dto.ActionCancel:
		h.cancel(c, req)
	case dto.ActionRetryNow:
		h.retryNow(c, req)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: fmt.Sprintf("unknown action: %q", req.Action)})
	}
}

func (h *QueueHandler) enqueue(c *gin.Context, req dto.QueueRequest) {
	item, err := h.queue.EnqueueOrder(c.Request.Context(), CurrentUserID(c), model.PlaceOrderRequest{
		OrderID:        req.OrderID,
		StoreOrderID:   req.StoreOrderID,
		Items:          req.Items,
		Shipping:       req.Shipping,
		IdempotencyKey: req.IdempotencyKey,
	})
	if errors.Is(err, domainErrors.ErrAlreadyQueued) && item != nil {
		c.AbortWithStatusJSON(http.StatusConflict, dto.QueueConflictResponse{Error: "order already in queue", QueueID: item.ID})
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.EnqueueResponse{Success: true, QueueID: item.ID, Message: "order added to queue"})
}

func (h *QueueHandler) status(c *gin.Context, req dto.QueueRequest) {
	overview, err := h.queue.QueueStatus(c.Request.Context(), CurrentUserID(c), req.OrderID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.QueueStatusResponse{Success: true, Items: overview.Items, Stats: overview.Stats})
}

func (h *QueueHandler) cancel(c *gin.Context, req dto.QueueRequest) {
	id, ok := queueID(c, req)
	if !ok {
		return
	}
	item, err := h.queue.CancelQueued(c.Request.Context(), CurrentUserID(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CancelResponse{Success: true, Cancelled: item})
}

func (h *QueueHandler) retryNow(c *gin.Context, req dto.QueueRequest) {
	id, ok := queueID(c, req)
	if !ok {
		return
	}
	item, err := h.queue.RetryQueued(c.Request.Context(), CurrentUserID(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RetryNowResponse{Success: true, Queued: item})
}

func queueID(c *gin.Context, req dto.QueueRequest) (uuid.UUID, bool) {
	id, err := uuid.Parse(req.QueueID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "queue_id must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}
