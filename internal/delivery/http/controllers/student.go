package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/apiclient"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/forms"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/quiz"
)

type StudentPages struct {
	*Web
}

func NewStudentPages(w *Web) *StudentPages {
	return &StudentPages{Web: w}
}

type enrolledCourse struct {
	Course     models.Course
	EnrolledAt time.Time
}

func (h *StudentPages) Dashboard(c *gin.Context) {
	h.dashboard(c, http.StatusOK, forms.JoinForm{}, nil, "")
}

func (h *StudentPages) dashboard(c *gin.Context, status int, form forms.JoinForm, errs map[string]string, alert string) {
	ctx := c.Request.Context()
	api := h.client(c)
	courses, err := api.MyCourses(ctx)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	enrollments, err := api.MyEnrollments(ctx)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	joined := make(map[uuid.UUID]time.Time, len(enrollments))
	for _, e := range enrollments {
		joined[e.CourseID] = e.EnrolledAt
	}
	rows := make([]enrolledCourse, 0, len(courses))
	for _, course := range courses {
		rows = append(rows, enrolledCourse{Course: course, EnrolledAt: joined[course.ID]})
	}
	h.render(c, status, "student_dashboard", gin.H{"Courses": rows, "Form": form, "Errors": errs, "Alert": alert})
}

func (h *StudentPages) Enroll(c *gin.Context) {
	var form forms.JoinForm
	if err := forms.Bind(c, &form); err != nil {
		h.dashboard(c, http.StatusUnprocessableEntity, form, forms.Errors(err), msgFixFields)
		return
	}
	enrollment, err := h.client(c).Enroll(c.Request.Context(), form.Code())
	if err != nil {
		h.actionFailed(c, err, "/student")
		return
	}
	h.flash(c, flashSuccess, "You joined the course.")
	h.redirect(c, fmt.Sprintf("/student/courses/%s", enrollment.CourseID))
}

func (h *StudentPages) Catalog(c *gin.Context) {
	q := c.Query("q")
	courses, err := h.client(c).ListCourses(c.Request.Context(), q)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	h.render(c, http.StatusOK, "student_catalog", gin.H{"Courses": courses, "Query": q})
}

func (h *StudentPages) Course(c *gin.Context) {
	id, ok := pathID(c, "course_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "course not found"})
		return
	}
	api := h.client(c)
	ctx := c.Request.Context()
	course, err := api.Course(ctx, id)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	materials, err := api.Materials(ctx, id)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	quizzes, err := api.CourseQuizzes(ctx, id)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	h.render(c, http.StatusOK, "student_course", gin.H{"Course": course, "Materials": materials, "Quizzes": quizzes})
}

func (h *StudentPages) QuizIntro(c *gin.Context) {
	id, ok := pathID(c, "quiz_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "quiz not found"})
		return
	}
	api := h.client(c)
	ctx := c.Request.Context()
	q, err := api.Quiz(ctx, id)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	questions, err := api.Questions(ctx, id)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	running := false
	if a, err := h.attempts.Get(currentSession(c).ID, id); err == nil {
		running = a.State() == quiz.StateRunning || a.State() == quiz.StateSubmitting
	}
	h.render(c, http.StatusOK, "quiz_intro", gin.H{"Quiz": q, "QuestionCount": len(questions), "Running": running})
}

// Start begins the countdown. The attempt keeps running, and submits itself at
// the deadline, whether or not the student keeps the page open.
func (h *StudentPages) Start(c *gin.Context) {
	id, ok := pathID(c, "quiz_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "quiz not found"})
		return
	}
	intro := fmt.Sprintf("/student/quizzes/%s", id)
	q, err := h.client(c).Quiz(c.Request.Context(), id)
	if err != nil {
		h.actionFailed(c, err, intro)
		return
	}
	s := currentSession(c)
	api := h.api.WithToken(s.Token)
	submit := func(ctx context.Context, req models.SubmissionRequest) (*models.Submission, error) {
		return api.Submit(ctx, req)
	}
	h.attempts.Start(s.ID, *q, h.now(), submit)
	h.redirect(c, intro+"/take")
}

// attempt looks up the session's attempt at the quiz in the path. On failure
// the response is already written.
func (h *StudentPages) attempt(c *gin.Context) (*quiz.Attempt, string, bool) {
	id, ok := pathID(c, "quiz_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "quiz not found"})
		return nil, "", false
	}
	intro := fmt.Sprintf("/student/quizzes/%s", id)
	a, err := h.attempts.Get(currentSession(c).ID, id)
	if err != nil {
		h.flash(c, flashError, "Start the quiz first.")
		h.redirect(c, intro)
		return nil, "", false
	}
	return a, intro, true
}

func (h *StudentPages) Take(c *gin.Context) {
	a, intro, ok := h.attempt(c)
	if !ok {
		return
	}
	state := a.State()
	sub, submitErr := a.Result()
	switch state {
	case quiz.StateSubmitted:
		if sub.AutoSubmitted {
			h.flash(c, flashSuccess, handedIn(sub))
		}
		h.redirect(c, fmt.Sprintf("/student/submissions/%s", sub.ID))
		return
	case quiz.StateStopped:
		h.flash(c, flashError, "This attempt was stopped.")
		h.redirect(c, intro)
		return
	}

	questions, err := h.client(c).Questions(c.Request.Context(), a.Quiz().ID)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	views := questionViews(questions, a.Selected)
	answered := 0
	for _, v := range views {
		for _, ans := range v.Answers {
			if ans.Selected {
				answered++
			}
		}
	}
	errMsg := ""
	if submitErr != nil {
		errMsg = apiclient.Message(submitErr)
	}
	remaining := a.Remaining()
	h.render(c, http.StatusOK, "quiz_take", gin.H{
		"Quiz":        a.Quiz(),
		"Questions":   views,
		"Answered":    answered,
		"Remaining":   remaining,
		"Running":     state == quiz.StateRunning,
		"Submitting":  state == quiz.StateSubmitting,
		"SubmitError": errMsg,
		"Refresh":     refreshSeconds(h.refresh, remaining),
	})
}

func (h *StudentPages) Select(c *gin.Context) {
	a, intro, ok := h.attempt(c)
	if !ok {
		return
	}
	take := intro + "/take"
	var form forms.AnswerForm
	if err := forms.Bind(c, &form); err != nil {
		h.flash(c, flashError, forms.Summary(err))
		h.redirect(c, take)
		return
	}
	questionID, qErr := uuid.Parse(form.QuestionID)
	answerID, aErr := uuid.Parse(form.AnswerID)
	if qErr != nil || aErr != nil {
		h.flash(c, flashError, msgUnknownAnswer)
		h.redirect(c, take)
		return
	}
	questions, err := h.client(c).Questions(c.Request.Context(), a.Quiz().ID)
	if err != nil {
		h.actionFailed(c, err, take)
		return
	}
	if !hasAnswer(questions, questionID, answerID) {
		h.flash(c, flashError, msgUnknownAnswer)
		h.redirect(c, take)
		return
	}
	if err := a.Select(questionID, answerID); err != nil {
		if a.State() == quiz.StateStopped {
			h.flash(c, flashError, "This attempt was stopped.")
			h.redirect(c, intro)
			return
		}
		h.flash(c, flashError, "Time is up, your answers were handed in.")
	}
	h.redirect(c, take)
}

const msgUnknownAnswer = "That answer is not part of this quiz."

func hasAnswer(questions []models.Question, questionID, answerID uuid.UUID) bool {
	for _, q := range questions {
		if q.ID != questionID {
			continue
		}
		for _, ans := range q.Answers {
			if ans.ID == answerID {
				return true
			}
		}
		return false
	}
	return false
}

func (h *StudentPages) Submit(c *gin.Context) {
	a, intro, ok := h.attempt(c)
	if !ok {
		return
	}
	sub, err := a.Submit(c.Request.Context())
	if err != nil {
		if errors.Is(err, app_errors.ErrAttemptClosed) {
			h.flash(c, flashError, "This attempt was stopped.")
			h.redirect(c, intro)
			return
		}
		h.actionFailed(c, err, intro+"/take")
		return
	}
	h.flash(c, flashSuccess, handedIn(sub))
	h.redirect(c, fmt.Sprintf("/student/submissions/%s", sub.ID))
}

func handedIn(sub *models.Submission) string {
	how := "Quiz handed in"
	if sub.AutoSubmitted {
		how = "Time ran out, your answers were handed in"
	}
	return fmt.Sprintf("%s: %d of %d correct.", how, sub.Score, sub.Total)
}

// Abandon stops the countdown without handing anything in.
func (h *StudentPages) Abandon(c *gin.Context) {
	a, intro, ok := h.attempt(c)
	if !ok {
		return
	}
	h.attempts.Remove(currentSession(c).ID, a.Quiz().ID)
	h.flash(c, flashSuccess, "You left the quiz without handing it in.")
	h.redirect(c, intro)
}

func (h *StudentPages) Submission(c *gin.Context) {
	id, ok := pathID(c, "submission_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "submission not found"})
		return
	}
	api := h.client(c)
	ctx := c.Request.Context()
	sub, err := api.Submission(ctx, id)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	q, err := api.Quiz(ctx, sub.QuizID)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	questions, err := api.Questions(ctx, sub.QuizID)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	h.render(c, http.StatusOK, "submission", gin.H{
		"Quiz":       q,
		"Submission": sub,
		"Questions":  questionViews(questions, submittedChoice(sub)),
	})
}

type submissionRow struct {
	Submission models.Submission
	QuizTitle  string
}

func (h *StudentPages) Submissions(c *gin.Context) {
	api := h.client(c)
	ctx := c.Request.Context()
	subs, err := api.MySubmissions(ctx)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	titles := make(map[uuid.UUID]string)
	rows := make([]submissionRow, 0, len(subs))
	for _, sub := range subs {
		title, seen := titles[sub.QuizID]
		if !seen {
			if q, err := api.Quiz(ctx, sub.QuizID); err == nil {
				title = q.Title
			} else {
				title = "(deleted quiz)"
			}
			titles[sub.QuizID] = title
		}
		rows = append(rows, submissionRow{Submission: sub, QuizTitle: title})
	}
	h.render(c, http.StatusOK, "student_submissions", gin.H{"Rows": rows})
}
