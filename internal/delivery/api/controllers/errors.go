package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/delivery/middleware"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

var statusByError = []struct {
	err    error
	status int
}{
	{app_errors.ErrValidation, http.StatusBadRequest},
	{app_errors.ErrMaterialSource, http.StatusBadRequest},
	{app_errors.ErrUnknownRole, http.StatusBadRequest},
	{app_errors.ErrFileSize, http.StatusRequestEntityTooLarge},
	{app_errors.ErrUserExists, http.StatusConflict},
	{app_errors.ErrAlreadyEnrolled, http.StatusConflict},
	{app_errors.ErrInvalidToken, http.StatusUnauthorized},
	{app_errors.ErrTokenExpired, http.StatusUnauthorized},
	{app_errors.ErrUnauthorized, http.StatusUnauthorized},
	{app_errors.ErrForbidden, http.StatusForbidden},
	{app_errors.ErrNotCourseOwner, http.StatusForbidden},
	{app_errors.ErrNotEnrolled, http.StatusForbidden},
	{app_errors.ErrUserNotFound, http.StatusNotFound},
	{app_errors.ErrCourseNotFound, http.StatusNotFound},
	{app_errors.ErrJoinCodeNotFound, http.StatusNotFound},
	{app_errors.ErrQuizNotFound, http.StatusNotFound},
	{app_errors.ErrQuestionNotFound, http.StatusNotFound},
	{app_errors.ErrSubmissionNotFound, http.StatusNotFound},
	{app_errors.ErrMaterialNotFound, http.StatusNotFound},
	{app_errors.ErrNotFound, http.StatusNotFound},
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": ...}. Unexpected errors are logged and hidden.
func fail(c *gin.Context, log logger.Log, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		log.ErrorErr("request failed", err, "path", c.FullPath())
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " is malformed"})
		return uuid.Nil, false
	}
	return id, true
}

func clientID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.ClientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return id, ok
}
