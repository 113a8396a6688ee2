package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type QuizService interface {
	CreateQuiz(ctx context.Context, teacherID uuid.UUID, in models.QuizInput) (*models.Quiz, error)
	Quiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	CourseQuizzes(ctx context.Context, courseID uuid.UUID) ([]models.Quiz, error)
	DeleteQuiz(ctx context.Context, id, teacherID uuid.UUID) error
	AddQuestion(ctx context.Context, quizID, teacherID uuid.UUID, in models.QuestionInput) (*models.Question, error)
	Questions(ctx context.Context, quizID, userID uuid.UUID) ([]models.Question, error)
}

type QuizHandler struct {
	service QuizService
	log     logger.Log
}

func NewQuizHandler(l logger.Log, s QuizService) *QuizHandler {
	return &QuizHandler{service: s, log: l}
}

func (h *QuizHandler) CourseQuizzes(c *gin.Context) {
	courseID, ok := pathID(c, "course_id")
	if !ok {
		return
	}
	quizzes, err := h.service.CourseQuizzes(c.Request.Context(), courseID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var input models.QuizInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	teacherID, ok := clientID(c)
	if !ok {
		return
	}
	quiz, err := h.service.CreateQuiz(c.Request.Context(), teacherID, input)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

func (h *QuizHandler) QuizByID(c *gin.Context) {
	id, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}
	quiz, err := h.service.Quiz(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	id, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}
	teacherID, ok := clientID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteQuiz(c.Request.Context(), id, teacherID); err != nil {
		fail(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QuizHandler) Questions(c *gin.Context) {
	id, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}
	userID, ok := clientID(c)
	if !ok {
		return
	}
	questions, err := h.service.Questions(c.Request.Context(), id, userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (h *QuizHandler) AddQuestion(c *gin.Context) {
	id, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}
	var input models.QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	teacherID, ok := clientID(c)
	if !ok {
		return
	}
	question, err := h.service.AddQuestion(c.Request.Context(), id, teacherID, input)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}
