package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type SubmissionService interface {
	Submit(ctx context.Context, studentID uuid.UUID, req models.SubmissionRequest) (*models.Submission, error)
	Submission(ctx context.Context, id, userID uuid.UUID) (*models.Submission, error)
	QuizSubmissions(ctx context.Context, quizID, teacherID uuid.UUID) ([]models.Submission, error)
	MySubmissions(ctx context.Context, studentID uuid.UUID) ([]models.Submission, error)
}

type SubmissionHandler struct {
	service SubmissionService
	log     logger.Log
}

func NewSubmissionHandler(l logger.Log, s SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: s, log: l}
}

func (h *SubmissionHandler) Submit(c *gin.Context) {
	var input models.SubmissionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	studentID, ok := clientID(c)
	if !ok {
		return
	}
	sub, err := h.service.Submit(c.Request.Context(), studentID, input)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *SubmissionHandler) SubmissionByID(c *gin.Context) {
	id, ok := pathID(c, "submission_id")
	if !ok {
		return
	}
	userID, ok := clientID(c)
	if !ok {
		return
	}
	sub, err := h.service.Submission(c.Request.Context(), id, userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubmissionHandler) QuizSubmissions(c *gin.Context) {
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}
	teacherID, ok := clientID(c)
	if !ok {
		return
	}
	subs, err := h.service.QuizSubmissions(c.Request.Context(), quizID, teacherID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *SubmissionHandler) MySubmissions(c *gin.Context) {
	studentID, ok := clientID(c)
	if !ok {
		return
	}
	subs, err := h.service.MySubmissions(c.Request.Context(), studentID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}
