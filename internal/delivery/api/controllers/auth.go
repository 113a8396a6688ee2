package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type AuthService interface {
	CreateUser(ctx context.Context, user models.User) (*models.AuthResponse, error)
	LoginUser(ctx context.Context, email, password string) (*models.AuthResponse, error)
	User(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type AuthHandler struct {
	service AuthService
	log     logger.Log
}

func NewAuthHandler(l logger.Log, auth AuthService) *AuthHandler {
	return &AuthHandler{
		service: auth,
		log:     l,
	}
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := clientID(c)
	if !ok {
		return
	}
	user, err := h.service.User(c.Request.Context(), userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=student teacher"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input registerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.CreateUser(c.Request.Context(), models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input loginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.LoginUser(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, app_errors.ErrUserNotFound) || errors.Is(err, app_errors.ErrIncorrectPassword) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
