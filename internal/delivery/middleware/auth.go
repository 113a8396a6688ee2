package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

const (
	ClientIDCtx   = "client_id"
	ClientRoleCtx = "client_role"
)

type AuthService interface {
	AccessClaims(ctx context.Context, token string) (userID uuid.UUID, role string, err error)
	User(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type AuthMiddlewareProvider struct {
	log     logger.Log
	service AuthService
}

func NewAuthMiddlewareProvider(log logger.Log, s AuthService) *AuthMiddlewareProvider {
	return &AuthMiddlewareProvider{
		log:     log,
		service: s,
	}
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func (h *AuthMiddlewareProvider) AuthMiddleware(c *gin.Context) {
	token := BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	userID, role, err := h.service.AccessClaims(c.Request.Context(), token)
	if err != nil {
		h.log.Info("failed to parse token", "error", err.Error())
		if errors.Is(err, app_errors.ErrTokenExpired) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": app_errors.ErrTokenExpired.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "cant parse token"})
		return
	}
	user, err := h.service.User(c.Request.Context(), userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	c.Set(ClientIDCtx, user.ID)
	c.Set(ClientRoleCtx, role)
	c.Next()
}

// ClientID is the authenticated caller set by AuthMiddleware.
func ClientID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(ClientIDCtx)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	return id, ok
}

func ClientRole(c *gin.Context) string {
	return c.GetString(ClientRoleCtx)
}
