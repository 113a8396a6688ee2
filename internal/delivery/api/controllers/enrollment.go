package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, studentID uuid.UUID, joinCode string) (*models.Enrollment, error)
	MyEnrollments(ctx context.Context, studentID uuid.UUID) ([]models.Enrollment, error)
	Roster(ctx context.Context, courseID, teacherID uuid.UUID) ([]models.EnrolledStudent, error)
}

type EnrollmentHandler struct {
	service EnrollmentService
	log     logger.Log
}

func NewEnrollmentHandler(l logger.Log, s EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: s, log: l}
}

type enrollRequest struct {
	JoinCode string `json:"join_code" binding:"required"`
}

func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var input enrollRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	studentID, ok := clientID(c)
	if !ok {
		return
	}
	e, err := h.service.Enroll(c.Request.Context(), studentID, input.JoinCode)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *EnrollmentHandler) MyEnrollments(c *gin.Context) {
	studentID, ok := clientID(c)
	if !ok {
		return
	}
	list, err := h.service.MyEnrollments(c.Request.Context(), studentID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *EnrollmentHandler) Roster(c *gin.Context) {
	courseID, ok := pathID(c, "course_id")
	if !ok {
		return
	}
	teacherID, ok := clientID(c)
	if !ok {
		return
	}
	list, err := h.service.Roster(c.Request.Context(), courseID, teacherID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
