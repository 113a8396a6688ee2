package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type StatusHandler struct {
	service string
}

func NewStatusHandler(service string) *StatusHandler {
	return &StatusHandler{service: service}
}

func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Available", "service": h.service})
}
