package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/server/http/dto"
)

// SettingsHandler manages supplier credentials and storefront integrations.
type SettingsHandler struct {
	facade SettingsFacade
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(facade SettingsFacade) *SettingsHandler {
	return &SettingsHandler{facade: facade}
}

// ConnectSupplier handles PUT /api/suppliers/:supplier/credentials.
func (h *SettingsHandler) ConnectSupplier(c *gin.Context) {
	var req dto.SupplierCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	err := h.facade.ConnectSupplier(c.Request.Context(), CurrentUserID(c), model.ParseSupplierType(c.Param("supplier")), model.CredentialInput{
		AccessToken: req.AccessToken,
		AppKey:      req.AppKey,
		AppSecret:   req.AppSecret,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DisconnectSupplier handles DELETE /api/suppliers/:supplier/credentials.
func (h *SettingsHandler) DisconnectSupplier(c *gin.Context) {
	if err := h.facade.DisconnectSupplier(c.Request.Context(), CurrentUserID(c), model.ParseSupplierType(c.Param("supplier"))); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ConnectShopify handles PUT /api/integrations/shopify.
func (h *SettingsHandler) ConnectShopify(c *gin.Context) {
	var req dto.ShopifyIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	in, err := h.facade.ConnectShopify(c.Request.Context(), CurrentUserID(c), req.ShopDomain, req.AccessToken)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.IntegrationResponse{ID: in.ID, Platform: in.Platform, ShopDomain: in.ShopDomain})
}
