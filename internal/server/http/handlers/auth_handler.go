package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/server/http/dto"
	"github.com/polkiloo/autoorder/internal/server/http/middleware"
)

// AuthHandler registers merchants and logs them in.
type AuthHandler struct {
	facade AuthFacade
}

func NewAuthHandler(facade AuthFacade) *AuthHandler {
	return &AuthHandler{facade: facade}
}

// Register handles POST /api/user/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "login and password are required"})
		return
	}

	token, err := h.facade.Register(c.Request.Context(), req.Login, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		c.AbortWithStatusJSON(http.StatusConflict, dto.ErrorResponse{Error: "login already taken"})
		return
	default:
		abortWithError(c, err)
		return
	}
	h.issue(c, token)
}

// Login handles POST /api/user/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "login and password are required"})
		return
	}

	token, err := h.facade.Authenticate(c.Request.Context(), req.Login, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid login or password"})
		return
	default:
		abortWithError(c, err)
		return
	}
	h.issue(c, token)
}

func (h *AuthHandler) issue(c *gin.Context, token string) {
	ttl := h.facade.TokenTTL()
	middleware.SetAuthCookie(c, token, ttl)
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token, ExpiresIn: int64(ttl.Seconds())})
}
