package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/delivery/middleware"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type CourseService interface {
	CreateCourse(ctx context.Context, teacherID uuid.UUID, in models.CourseInput) (*models.Course, error)
	Course(ctx context.Context, id uuid.UUID) (*models.Course, error)
	UpdateCourse(ctx context.Context, id, teacherID uuid.UUID, in models.CourseInput) (*models.Course, error)
	DeleteCourse(ctx context.Context, id, teacherID uuid.UUID) error
	ListCourses(ctx context.Context, query string) ([]models.Course, error)
	MyCourses(ctx context.Context, userID uuid.UUID, role string) ([]models.Course, error)
}

type CourseHandler struct {
	service CourseService
	log     logger.Log
}

func NewCourseHandler(l logger.Log, s CourseService) *CourseHandler {
	return &CourseHandler{service: s, log: l}
}

func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.service.ListCourses(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) MyCourses(c *gin.Context) {
	userID, ok := clientID(c)
	if !ok {
		return
	}
	courses, err := h.service.MyCourses(c.Request.Context(), userID, middleware.ClientRole(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) CourseByID(c *gin.Context) {
	userID, ok := clientID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "course_id")
	if !ok {
		return
	}
	course, err := h.service.Course(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course.VisibleTo(userID))
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var input models.CourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	teacherID, ok := clientID(c)
	if !ok {
		return
	}
	course, err := h.service.CreateCourse(c.Request.Context(), teacherID, input)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, ok := pathID(c, "course_id")
	if !ok {
		return
	}
	var input models.CourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	teacherID, ok := clientID(c)
	if !ok {
		return
	}
	course, err := h.service.UpdateCourse(c.Request.Context(), id, teacherID, input)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, ok := pathID(c, "course_id")
	if !ok {
		return
	}
	teacherID, ok := clientID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteCourse(c.Request.Context(), id, teacherID); err != nil {
		fail(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
