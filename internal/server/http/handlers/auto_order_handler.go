package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/server/http/dto"
)

// AutoOrderHandler serves POST /auto-order-complete.
type AutoOrderHandler struct {
	orders   OrderFacade
	tracking TrackingFacade
}

// NewAutoOrderHandler constructs AutoOrderHandler.
func NewAutoOrderHandler(orders OrderFacade, tracking TrackingFacade) *AutoOrderHandler {
	return &AutoOrderHandler{orders: orders, tracking: tracking}
}

// Handle routes the request by its action field.
func (h *AutoOrderHandler) Handle(c *gin.Context) {
	var req dto.AutoOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
		return
	}

	switch req.Action {
	case dto.ActionPlaceOrder:
		h.placeOrder(c, req)
	case dto.ActionSyncTracking:
		h.syncTracking(c, req)
	case dto.ActionBatchSyncTracking:
		h.batchSync(c)
	case dto.ActionGetStatus:
		h.status(c, req)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: fmt.Sprintf("unknown action: %q", req.Action)})
	}
}

func (h *AutoOrderHandler) placeOrder(c *gin.Context, req dto.AutoOrderRequest) {
	outcome, err := h.orders.PlaceOrder(c.Request.Context(), CurrentUserID(c), model.PlaceOrderRequest{
		OrderID:        req.OrderID,
		StoreOrderID:   req.StoreOrderID,
		Items:          req.Items,
		Shipping:       req.Shipping,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PlaceOrderResponse{
		Success:         outcome.Success,
		PartialSuccess:  outcome.PartialSuccess,
		Results:         outcome.Results,
		TrackingNumbers: outcome.TrackingNumbers,
	})
}

func (h *AutoOrderHandler) syncTracking(c *gin.Context, req dto.AutoOrderRequest) {
	res, err := h.tracking.SyncOrderTracking(c.Request.Context(), CurrentUserID(c), model.TrackingTarget{
		OrderID:         req.OrderID,
		SupplierOrderID: req.SupplierOrderID,
		Supplier:        model.SupplierType(req.SupplierType),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SyncTrackingResponse{
		Success:    true,
		Tracking:   res.Tracking,
		Updated:    res.Updated,
		Propagated: res.Propagated,
	})
}

func (h *AutoOrderHandler) batchSync(c *gin.Context) {
	report, err := h.tracking.BatchSyncTracking(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BatchSyncResponse{Success: true, Synced: report.Synced, Results: report.Results})
}

func (h *AutoOrderHandler) status(c *gin.Context, req dto.AutoOrderRequest) {
	info, err := h.tracking.SupplierStatus(c.Request.Context(), CurrentUserID(c), model.SupplierType(req.SupplierType), req.SupplierOrderID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Success: true, Status: info})
}
