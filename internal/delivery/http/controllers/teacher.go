package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/export"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/forms"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// answerSlots is how many answer rows the add question form offers.
const answerSlots = 4

type TeacherPages struct {
	*Web
}

func NewTeacherPages(w *Web) *TeacherPages {
	return &TeacherPages{Web: w}
}

func (h *TeacherPages) Dashboard(c *gin.Context) {
	h.dashboard(c, http.StatusOK, forms.CourseForm{}, nil, "")
}

func (h *TeacherPages) dashboard(c *gin.Context, status int, form forms.CourseForm, errs map[string]string, alert string) {
	courses, err := h.client(c).MyCourses(c.Request.Context())
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	h.render(c, status, "teacher_dashboard", gin.H{"Courses": courses, "Form": form, "Errors": errs, "Alert": alert})
}

func (h *TeacherPages) CreateCourse(c *gin.Context) {
	var form forms.CourseForm
	if err := forms.Bind(c, &form); err != nil {
		h.dashboard(c, http.StatusUnprocessableEntity, form, forms.Errors(err), msgFixFields)
		return
	}
	course, err := h.client(c).CreateCourse(c.Request.Context(), form.Input())
	if err != nil {
		h.actionFailed(c, err, "/teacher")
		return
	}
	h.flash(c, flashSuccess, fmt.Sprintf("Course created. Students join with code %s.", course.JoinCode))
	h.redirect(c, coursePath(course.ID))
}

func coursePath(id uuid.UUID) string {
	return fmt.Sprintf("/teacher/courses/%s", id)
}

func quizPath(id uuid.UUID) string {
	return fmt.Sprintf("/teacher/quizzes/%s", id)
}

func (h *TeacherPages) Course(c *gin.Context) {
	id, ok := pathID(c, "course_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "course not found"})
		return
	}
	h.course(c, id, http.StatusOK, nil)
}

// course renders the course page. extra overrides the default form values
// when a form on the page failed.
func (h *TeacherPages) course(c *gin.Context, id uuid.UUID, status int, extra gin.H) {
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
	roster, err := api.CourseEnrollments(ctx, id)
	if err != nil {
		h.pageFailed(c, err)
		return
	}
	data := gin.H{
		"Course":       course,
		"Materials":    materials,
		"Quizzes":      quizzes,
		"Roster":       roster,
		"MaterialForm": forms.MaterialForm{},
		"QuizForm":     forms.QuizForm{},
	}
	for k, v := range extra {
		data[k] = v
	}
	h.render(c, status, "teacher_course", data)
}

func (h *TeacherPages) UpdateCourse(c *gin.Context) {
	id, ok := pathID(c, "course_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "course not found"})
		return
	}
	var form forms.CourseForm
	if err := forms.Bind(c, &form); err != nil {
		h.course(c, id, http.StatusUnprocessableEntity, gin.H{"Errors": forms.Errors(err), "Alert": msgFixFields})
		return
	}
	if _, err := h.client(c).UpdateCourse(c.Request.Context(), id, form.Input()); err != nil {
		h.actionFailed(c, err, coursePath(id))
		return
	}
	h.flash(c, flashSuccess, "Course saved.")
	h.redirect(c, coursePath(id))
}

func (h *TeacherPages) DeleteCourse(c *gin.Context) {
	id, ok := pathID(c, "course_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "course not found"})
		return
	}
	if err := h.client(c).DeleteCourse(c.Request.Context(), id); err != nil {
		h.actionFailed(c, err, coursePath(id))
		return
	}
	h.flash(c, flashSuccess, "Course deleted.")
	h.redirect(c, "/teacher")
}

// prefixed renames the field keys of shared forms so that two forms on one
// page keep their alerts apart.
func prefixed(errs map[string]string, prefix string, keys ...string) map[string]string {
	for _, k := range keys {
		if msg, ok := errs[k]; ok {
			delete(errs, k)
			errs[prefix+k] = msg
		}
	}
	return errs
}

func (h *TeacherPages) CreateMaterial(c *gin.Context) {
	id, ok := pathID(c, "course_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "course not found"})
		return
	}
	var form forms.MaterialForm
	bindErr := forms.Bind(c, &form)

	var file multipart.File
	filename := ""
	if f, header, err := c.Request.FormFile("file"); err == nil {
		if header.Size > 0 {
			file, filename = f, header.Filename
			defer f.Close()
		} else {
			f.Close()
		}
	}

	if bindErr == nil {
		bindErr = form.Check(file != nil)
	}
	if bindErr != nil {
		alert := msgFixFields
		if errors.Is(bindErr, app_errors.ErrMaterialSource) {
			alert = "Add a link or choose a file."
		}
		h.course(c, id, http.StatusUnprocessableEntity, gin.H{
			"MaterialForm": form,
			"Errors":       prefixed(forms.Errors(bindErr), "material_", "title"),
			"Alert":        alert,
		})
		return
	}

	in := models.MaterialInput{
		CourseID:    id,
		Title:       strings.TrimSpace(form.Title),
		Description: strings.TrimSpace(form.Description),
		URL:         strings.TrimSpace(form.URL),
	}
	api := h.client(c)
	var err error
	if file != nil {
		_, err = api.UploadMaterial(c.Request.Context(), in, filename, file)
	} else {
		_, err = api.CreateMaterial(c.Request.Context(), in)
	}
	if err != nil {
		h.actionFailed(c, err, coursePath(id))
		return
	}
	h.flash(c, flashSuccess, "Material added.")
	h.redirect(c, coursePath(id))
}

func (h *TeacherPages) DeleteMaterial(c *gin.Context) {
	back := "/teacher"
	if courseID, err := uuid.Parse(c.PostForm("course_id")); err == nil {
		back = coursePath(courseID)
	}
	id, ok := pathID(c, "material_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "material not found"})
		return
	}
	if err := h.client(c).DeleteMaterial(c.Request.Context(), id); err != nil {
		h.actionFailed(c, err, back)
		return
	}
	h.flash(c, flashSuccess, "Material removed.")
	h.redirect(c, back)
}

func (h *TeacherPages) CreateQuiz(c *gin.Context) {
	id, ok := pathID(c, "course_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "course not found"})
		return
	}
	var form forms.QuizForm
	if err := forms.Bind(c, &form); err != nil {
		h.course(c, id, http.StatusUnprocessableEntity, gin.H{
			"QuizForm": form,
			"Errors":   prefixed(forms.Errors(err), "quiz_", "title"),
			"Alert":    msgFixFields,
		})
		return
	}
	q, err := h.client(c).CreateQuiz(c.Request.Context(), models.QuizInput{
		CourseID:        id,
		Title:           strings.TrimSpace(form.Title),
		Description:     strings.TrimSpace(form.Description),
		DurationMinutes: form.DurationMinutes,
	})
	if err != nil {
		h.actionFailed(c, err, coursePath(id))
		return
	}
	h.flash(c, flashSuccess, "Quiz created. Add its questions below.")
	h.redirect(c, quizPath(q.ID))
}

type answerSlot struct {
	Number  int
	Text    string
	Correct bool
}

func slots(form forms.QuestionForm) []answerSlot {
	out := make([]answerSlot, answerSlots)
	for i := range out {
		out[i].Number = i + 1
		if i < len(form.Answers) {
			out[i].Text = form.Answers[i]
		}
		out[i].Correct = form.Correct != nil && *form.Correct == i
	}
	return out
}

func (h *TeacherPages) Quiz(c *gin.Context) {
	id, ok := pathID(c, "quiz_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "quiz not found"})
		return
	}
	h.quiz(c, id, http.StatusOK, forms.QuestionForm{}, nil, "")
}

func (h *TeacherPages) quiz(c *gin.Context, id uuid.UUID, status int, form forms.QuestionForm, errs map[string]string, alert string) {
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
	h.render(c, status, "teacher_quiz", gin.H{
		"Quiz":        q,
		"Questions":   questionViews(questions, nil),
		"Form":        form,
		"AnswerSlots": slots(form),
		"Errors":      errs,
		"Alert":       alert,
	})
}

func (h *TeacherPages) AddQuestion(c *gin.Context) {
	id, ok := pathID(c, "quiz_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "quiz not found"})
		return
	}
	var form forms.QuestionForm
	if err := forms.Bind(c, &form); err != nil {
		h.quiz(c, id, http.StatusUnprocessableEntity, form, forms.Errors(err), msgFixFields)
		return
	}
	in, err := form.Input()
	if err != nil {
		h.quiz(c, id, http.StatusUnprocessableEntity, form, nil, forms.Summary(err))
		return
	}
	if _, err := h.client(c).AddQuestion(c.Request.Context(), id, in); err != nil {
		h.actionFailed(c, err, quizPath(id))
		return
	}
	h.flash(c, flashSuccess, "Question added.")
	h.redirect(c, quizPath(id))
}

func (h *TeacherPages) DeleteQuiz(c *gin.Context) {
	id, ok := pathID(c, "quiz_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "quiz not found"})
		return
	}
	api := h.client(c)
	q, err := api.Quiz(c.Request.Context(), id)
	if err != nil {
		h.actionFailed(c, err, "/teacher")
		return
	}
	if err := api.DeleteQuiz(c.Request.Context(), id); err != nil {
		h.actionFailed(c, err, quizPath(id))
		return
	}
	h.flash(c, flashSuccess, "Quiz deleted.")
	h.redirect(c, coursePath(q.CourseID))
}

type gradedRow struct {
	Student    string
	Submission models.Submission
}

// results loads a quiz with its submissions and the course roster keyed by
// student id.
func (h *TeacherPages) results(c *gin.Context) (*models.Quiz, []models.Submission, map[uuid.UUID]models.User, bool) {
	id, ok := pathID(c, "quiz_id")
	if !ok {
		h.render(c, http.StatusNotFound, "error", gin.H{"Message": "quiz not found"})
		return nil, nil, nil, false
	}
	api := h.client(c)
	ctx := c.Request.Context()
	q, err := api.Quiz(ctx, id)
	if err != nil {
		h.pageFailed(c, err)
		return nil, nil, nil, false
	}
	subs, err := api.QuizSubmissions(ctx, id)
	if err != nil {
		h.pageFailed(c, err)
		return nil, nil, nil, false
	}
	roster, err := api.CourseEnrollments(ctx, q.CourseID)
	if err != nil {
		h.pageFailed(c, err)
		return nil, nil, nil, false
	}
	students := make(map[uuid.UUID]models.User, len(roster))
	for _, r := range roster {
		students[r.Student.ID] = r.Student
	}
	return q, subs, students, true
}

func (h *TeacherPages) Submissions(c *gin.Context) {
	q, subs, students, ok := h.results(c)
	if !ok {
		return
	}
	rows := make([]gradedRow, 0, len(subs))
	for _, sub := range subs {
		name := sub.StudentID.String()
		if u, ok := students[sub.StudentID]; ok {
			name = u.Name
		}
		rows = append(rows, gradedRow{Student: name, Submission: sub})
	}
	h.render(c, http.StatusOK, "quiz_submissions", gin.H{"Quiz": q, "Rows": rows})
}

func (h *TeacherPages) Export(c *gin.Context) {
	q, subs, students, ok := h.results(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.Gradebook(&buf, *q, subs, students); err != nil {
		h.log.ErrorErr("failed to build gradebook", err, "quiz_id", q.ID)
		h.render(c, http.StatusInternalServerError, "error", gin.H{"Message": "could not build the gradebook"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(*q)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
