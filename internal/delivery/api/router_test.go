package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service/auth"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/storage/memory"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwt := auth.NewJWTManager("test-secret", models.TokenIssuer, time.Hour)
	svc := service.New(logger.Discard(), jwt, memory.New(), memory.NewFileStorage(), memory.NewCourseSearch(),
		service.Options{MaxUpload: 1 << 20, PublicURL: "http://api.test/api"})
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return &testAPI{t: t, router: InitRoutes(logger.Discard(), svc, nil, 1<<20)}
}

func (a *testAPI) call(method, path, token string, body interface{}, out interface{}) int {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			a.t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, "/api"+path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			a.t.Fatalf("%s %s: decode %s: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

func (a *testAPI) login(email, password string) models.AuthResponse {
	a.t.Helper()
	var resp models.AuthResponse
	if code := a.call(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password}, &resp); code != http.StatusOK {
		a.t.Fatalf("login %s: status %d", email, code)
	}
	return resp
}

func TestStatusAndAuthGuard(t *testing.T) {
	a := newTestAPI(t)
	if code := a.call(http.MethodGet, "/status", "", nil, nil); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if code := a.call(http.MethodGet, "/courses", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous /courses = %d, want 401", code)
	}
	if code := a.call(http.MethodGet, "/courses", "garbage", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("bad token /courses = %d, want 401", code)
	}
	if code := a.call(http.MethodPost, "/auth/login", "", map[string]string{"email": service.SeedStudentEmail, "password": "nope"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("wrong password = %d, want 401", code)
	}
}

func TestRegisterConflict(t *testing.T) {
	a := newTestAPI(t)
	body := map[string]string{"name": "N", "email": "new@example.com", "password": "secret1", "role": "student"}
	var resp models.AuthResponse
	if code := a.call(http.MethodPost, "/auth/register", "", body, &resp); code != http.StatusCreated {
		t.Fatalf("register = %d", code)
	}
	if resp.Token == "" || resp.User.Role != models.StudentRole {
		t.Fatalf("resp = %+v", resp)
	}
	if code := a.call(http.MethodPost, "/auth/register", "", body, nil); code != http.StatusConflict {
		t.Fatalf("second register = %d, want 409", code)
	}
	var me models.User
	if code := a.call(http.MethodGet, "/auth/me", resp.Token, nil, &me); code != http.StatusOK || me.Email != "new@example.com" {
		t.Fatalf("me = %d %+v", code, me)
	}
}

func TestRoleChecks(t *testing.T) {
	a := newTestAPI(t)
	student := a.login(service.SeedStudentEmail, service.SeedStudentPassword)
	teacher := a.login(service.SeedTeacherEmail, service.SeedTeacherPassword)

	if code := a.call(http.MethodPost, "/courses", student.Token, models.CourseInput{Title: "X"}, nil); code != http.StatusForbidden {
		t.Fatalf("student create course = %d, want 403", code)
	}
	if code := a.call(http.MethodGet, "/submissions/mine", teacher.Token, nil, nil); code != http.StatusForbidden {
		t.Fatalf("teacher my submissions = %d, want 403", code)
	}

	other := models.AuthResponse{}
	a.call(http.MethodPost, "/auth/register", "", map[string]string{"name": "O", "email": "o@example.com", "password": "secret1", "role": "teacher"}, &other)
	var mine []models.Course
	a.call(http.MethodGet, "/courses/mine", teacher.Token, nil, &mine)
	if len(mine) != 1 {
		t.Fatalf("teacher courses = %v", mine)
	}
	path := "/courses/" + mine[0].ID.String()
	if code := a.call(http.MethodDelete, path, other.Token, nil, nil); code != http.StatusForbidden {
		t.Fatalf("foreign delete = %d, want 403", code)
	}
	if code := a.call(http.MethodGet, path+"/enrollments", other.Token, nil, nil); code != http.StatusForbidden {
		t.Fatalf("foreign roster = %d, want 403", code)
	}
	if code := a.call(http.MethodGet, "/courses/not-a-uuid", teacher.Token, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("malformed id = %d, want 400", code)
	}
}

func TestStudentQuizFlow(t *testing.T) {
	a := newTestAPI(t)
	student := a.login(service.SeedStudentEmail, service.SeedStudentPassword)
	teacher := a.login(service.SeedTeacherEmail, service.SeedTeacherPassword)

	var courses []models.Course
	a.call(http.MethodGet, "/courses/mine", student.Token, nil, &courses)
	if len(courses) != 1 {
		t.Fatalf("enrolled courses = %v", courses)
	}
	var teacherView models.Course
	a.call(http.MethodGet, "/courses/"+courses[0].ID.String(), teacher.Token, nil, &teacherView)
	if code := a.call(http.MethodPost, "/enrollments/enroll", student.Token, map[string]string{"join_code": teacherView.JoinCode}, nil); code != http.StatusConflict {
		t.Fatalf("enroll twice = %d, want 409", code)
	}

	var quizzes []models.Quiz
	a.call(http.MethodGet, "/courses/"+courses[0].ID.String()+"/quizzes", student.Token, nil, &quizzes)
	if len(quizzes) != 1 {
		t.Fatalf("quizzes = %v", quizzes)
	}
	var questions []models.Question
	a.call(http.MethodGet, "/quizzes/"+quizzes[0].ID.String()+"/questions", student.Token, nil, &questions)
	if len(questions) != 2 || questions[0].Answers[0].IsCorrect != nil {
		t.Fatalf("questions = %+v", questions)
	}

	req := models.SubmissionRequest{
		QuizID:    quizzes[0].ID,
		StartedAt: time.Now().Add(-time.Minute),
		Answers:   []models.SelectedAnswer{{QuestionID: questions[0].ID, AnswerID: questions[0].Answers[0].ID}},
	}
	var sub models.Submission
	if code := a.call(http.MethodPost, "/submissions", student.Token, req, &sub); code != http.StatusCreated {
		t.Fatalf("submit = %d", code)
	}
	if sub.Score != 1 || sub.Total != 2 {
		t.Fatalf("graded %d/%d, want 1/2", sub.Score, sub.Total)
	}

	var list []models.Submission
	a.call(http.MethodGet, "/quizzes/"+quizzes[0].ID.String()+"/submissions", teacher.Token, nil, &list)
	if len(list) != 1 || list[0].ID != sub.ID {
		t.Fatalf("teacher submissions = %v", list)
	}
	if code := a.call(http.MethodGet, "/submissions/"+sub.ID.String(), teacher.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("teacher reads submission = %d", code)
	}
}

func TestMaterialUploadAndDownload(t *testing.T) {
	a := newTestAPI(t)
	teacher := a.login(service.SeedTeacherEmail, service.SeedTeacherPassword)
	var mine []models.Course
	a.call(http.MethodGet, "/courses/mine", teacher.Token, nil, &mine)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	_ = w.WriteField("course_id", mine[0].ID.String())
	_ = w.WriteField("title", "Notes")
	part, _ := w.CreateFormFile("file", "notes.txt")
	_, _ = part.Write([]byte("hello notes"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/materials", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+teacher.Token)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload = %d %s", rec.Code, rec.Body.String())
	}
	var m models.CourseMaterial
	_ = json.Unmarshal(rec.Body.Bytes(), &m)
	if m.FileName != "notes.txt" || m.Size != int64(len("hello notes")) {
		t.Fatalf("material = %+v", m)
	}

	rec = httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/materials/"+m.ID.String()+"/file", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "hello notes" {
		t.Fatalf("download = %d %q", rec.Code, rec.Body.String())
	}

	var list []models.CourseMaterial
	a.call(http.MethodGet, "/materials?course_id="+mine[0].ID.String(), teacher.Token, nil, &list)
	if len(list) != 2 {
		t.Fatalf("materials = %v", list)
	}
	if code := a.call(http.MethodDelete, "/materials/"+m.ID.String(), teacher.Token, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete = %d", code)
	}
}

func TestUploadOverLimitIsRejected(t *testing.T) {
	a := newTestAPI(t)
	teacher := a.login(service.SeedTeacherEmail, service.SeedTeacherPassword)
	var mine []models.Course
	a.call(http.MethodGet, "/courses/mine", teacher.Token, nil, &mine)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	_ = w.WriteField("course_id", mine[0].ID.String())
	_ = w.WriteField("title", "Huge")
	part, _ := w.CreateFormFile("file", "huge.bin")
	_, _ = part.Write(bytes.Repeat([]byte{'x'}, 3<<20))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/materials", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+teacher.Token)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("upload = %d %s", rec.Code, rec.Body.String())
	}

	var list []models.CourseMaterial
	a.call(http.MethodGet, "/materials?course_id="+mine[0].ID.String(), teacher.Token, nil, &list)
	if len(list) != 1 {
		t.Fatalf("materials = %v", list)
	}
}

func TestCreateQuizRejectsOverlongDuration(t *testing.T) {
	a := newTestAPI(t)
	teacher := a.login(service.SeedTeacherEmail, service.SeedTeacherPassword)
	var mine []models.Course
	a.call(http.MethodGet, "/courses/mine", teacher.Token, nil, &mine)

	for _, minutes := range []int{models.MaxQuizMinutes + 1, 200_000_000} {
		in := models.QuizInput{CourseID: mine[0].ID, Title: "Marathon", DurationMinutes: minutes}
		if code := a.call(http.MethodPost, "/quizzes", teacher.Token, in, nil); code != http.StatusBadRequest {
			t.Errorf("create %d-minute quiz = %d", minutes, code)
		}
	}
}
