package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/server/http/dto"
)

// OrderHandler exposes stored order state.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.facade.Order(c.Request.Context(), CurrentUserID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:                order.ID,
		StoreOrderID:      order.StoreOrderID,
		Status:            string(order.Status),
		FulfillmentStatus: string(order.FulfillmentStatus),
		SupplierOrderIDs:  order.SupplierOrderIDs,
		TrackingNumbers:   order.TrackingNumbers,
		TrackingNumber:    order.TrackingNumber,
		TrackingURL:       order.TrackingURL,
		Carrier:           order.Carrier,
		ShippedAt:         order.ShippedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	if resp.SupplierOrderIDs == nil {
		resp.SupplierOrderIDs = []string{}
	}
	if resp.TrackingNumbers == nil {
		resp.TrackingNumbers = []string{}
	}
	return resp
}
