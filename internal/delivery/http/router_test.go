package http

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/apiclient"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/delivery/api"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/delivery/http/controllers"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/quiz"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service/auth"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/session"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/storage/memory"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type testEnv struct {
	t      *testing.T
	api    *apiclient.Client
	web    *httptest.Server
	writes atomic.Int32
	// failSubmit makes the API answer 500 to every hand-in.
	failSubmit atomic.Bool
	// startBack moves the start of new attempts into the past.
	startBack atomic.Int64
}

func newTestEnv(t *testing.T, sessionTTL time.Duration) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()

	jwt := auth.NewJWTManager("test-secret", models.TokenIssuer, time.Hour)
	svc := service.New(log, jwt, memory.New(), memory.NewFileStorage(), memory.NewCourseSearch(), service.Options{MaxUpload: 1 << 20})
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	env := &testEnv{t: t}
	backend := api.InitRoutes(log, svc, nil, 1<<20)
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			env.writes.Add(1)
		}
		if env.failSubmit.Load() && r.Method == http.MethodPost && r.URL.Path == "/api/submissions" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"grading is down"}`)
			return
		}
		backend.ServeHTTP(w, r)
	}))
	t.Cleanup(apiSrv.Close)
	env.api = apiclient.New(log, apiSrv.URL+"/api", 5*time.Second)

	cookies, err := NewCookieStore("test-cookie-secret", false, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	attempts := quiz.NewRegistry(log, 10*time.Millisecond)
	t.Cleanup(attempts.Close)
	router, err := InitRoutes(log, Deps{
		API:      env.api,
		Sessions: session.NewManager(session.NewTokenParser(""), session.NewMemoryStore(), sessionTTL),
		Attempts: attempts,
		Cookies:  cookies,
		Options: controllers.Options{
			Refresh: time.Second,
			Now: func() time.Time {
				return time.Now().Add(-time.Duration(env.startBack.Load()))
			},
		},
	})
	if err != nil {
		t.Fatalf("InitRoutes: %v", err)
	}
	env.web = httptest.NewServer(router)
	t.Cleanup(env.web.Close)
	return env
}

type browser struct {
	env    *testEnv
	client *http.Client
}

func (e *testEnv) browser() *browser {
	jar, err := cookiejar.New(nil)
	if err != nil {
		e.t.Fatal(err)
	}
	return &browser{env: e, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

type page struct {
	status   int
	location string
	body     string
	header   http.Header
}

func (b *browser) do(req *http.Request) page {
	b.env.t.Helper()
	resp, err := b.client.Do(req)
	if err != nil {
		b.env.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return page{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(data), header: resp.Header}
}

func (b *browser) get(path string) page {
	b.env.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.env.web.URL+path, nil)
	if err != nil {
		b.env.t.Fatal(err)
	}
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) page {
	b.env.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.env.web.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		b.env.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login(email, password string) page {
	b.env.t.Helper()
	p := b.post("/login", url.Values{"email": {email}, "password": {password}})
	if p.status != http.StatusSeeOther {
		b.env.t.Fatalf("login %s: status %d body %s", email, p.status, p.body)
	}
	return p
}

// token signs in straight against the API, for test setup.
func (e *testEnv) token(email, password string) *apiclient.Client {
	e.t.Helper()
	resp, err := e.api.Login(context.Background(), email, password)
	if err != nil {
		e.t.Fatalf("api login %s: %v", email, err)
	}
	return e.api.WithToken(resp.Token)
}

func (e *testEnv) seededQuiz() (models.Quiz, []models.Question) {
	e.t.Helper()
	ctx := context.Background()
	teacher := e.token(service.SeedTeacherEmail, service.SeedTeacherPassword)
	courses, err := teacher.MyCourses(ctx)
	if err != nil || len(courses) == 0 {
		e.t.Fatalf("MyCourses: %v %v", courses, err)
	}
	quizzes, err := teacher.CourseQuizzes(ctx, courses[0].ID)
	if err != nil || len(quizzes) == 0 {
		e.t.Fatalf("CourseQuizzes: %v %v", quizzes, err)
	}
	questions, err := teacher.Questions(ctx, quizzes[0].ID)
	if err != nil {
		e.t.Fatalf("Questions: %v", err)
	}
	return quizzes[0], questions
}

func TestStatus(t *testing.T) {
	b := newTestEnv(t, time.Hour).browser()
	if p := b.get("/status"); p.status != http.StatusOK || !strings.Contains(p.body, "Available") {
		t.Fatalf("status = %d %s", p.status, p.body)
	}
}

func TestRoleRedirects(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	b := env.browser()

	if p := b.get("/student/catalog"); p.status != http.StatusSeeOther || p.location != "/login?next=%2Fstudent%2Fcatalog" {
		t.Fatalf("anonymous = %d %q", p.status, p.location)
	}
	if p := b.get("/"); p.location != "/login" {
		t.Fatalf("anonymous home -> %q", p.location)
	}

	p := b.post("/login", url.Values{
		"email":    {service.SeedStudentEmail},
		"password": {service.SeedStudentPassword},
		"next":     {"/student/catalog"},
	})
	if p.status != http.StatusSeeOther || p.location != "/student/catalog" {
		t.Fatalf("login with next = %d %q", p.status, p.location)
	}
	if p := b.get("/teacher"); p.status != http.StatusSeeOther || p.location != "/student" {
		t.Fatalf("student on teacher page = %d %q", p.status, p.location)
	}
	p = b.get("/student")
	if p.status != http.StatusOK {
		t.Fatalf("dashboard = %d", p.status)
	}
	for _, want := range []string{"That page is only for teachers.", "Introduction to Go"} {
		if !strings.Contains(p.body, want) {
			t.Errorf("dashboard lacks %q", want)
		}
	}
	if p := b.get("/login"); p.location != "/student" {
		t.Fatalf("signed-in login page -> %q", p.location)
	}
}

func TestLoginRejectsOffsiteNext(t *testing.T) {
	b := newTestEnv(t, time.Hour).browser()
	p := b.post("/login", url.Values{
		"email":    {service.SeedTeacherEmail},
		"password": {service.SeedTeacherPassword},
		"next":     {"//evil.example/"},
	})
	if p.location != "/teacher" {
		t.Fatalf("location = %q, want /teacher", p.location)
	}
}

func TestInvalidFormsNeverReachTheAPI(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	b := env.browser()

	p := b.post("/login", url.Values{"email": {"not-an-email"}, "password": {""}})
	if p.status != http.StatusUnprocessableEntity {
		t.Fatalf("login status = %d", p.status)
	}
	if !strings.Contains(p.body, "must be a valid email address") || !strings.Contains(p.body, msgFixFieldsForTest) {
		t.Fatalf("login body lacks inline alert: %s", p.body)
	}

	p = b.post("/register", url.Values{"name": {"x"}, "email": {"x@example.com"}, "password": {"123"}, "role": {"admin"}})
	if p.status != http.StatusUnprocessableEntity || !strings.Contains(p.body, "has an unexpected value") {
		t.Fatalf("register = %d %s", p.status, p.body)
	}

	b.login(service.SeedStudentEmail, service.SeedStudentPassword)
	before := env.writes.Load()
	p = b.post("/student/enroll", url.Values{"join_code": {"ab"}})
	if p.status != http.StatusUnprocessableEntity || !strings.Contains(p.body, "must be 6 to 8 letters or digits") {
		t.Fatalf("enroll = %d %s", p.status, p.body)
	}
	if got := env.writes.Load(); got != before {
		t.Fatalf("invalid forms made %d API writes", got-before)
	}
}

const msgFixFieldsForTest = "Please fix the highlighted fields."

func TestWrongPasswordShowsAPIMessage(t *testing.T) {
	b := newTestEnv(t, time.Hour).browser()
	p := b.post("/login", url.Values{"email": {service.SeedStudentEmail}, "password": {"wrong-one"}})
	if p.status != http.StatusUnauthorized || !strings.Contains(p.body, "invalid email or password") {
		t.Fatalf("= %d %s", p.status, p.body)
	}
}

func TestRegisterSignsIn(t *testing.T) {
	b := newTestEnv(t, time.Hour).browser()
	p := b.post("/register", url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "password": {"secret1"}, "role": {"teacher"}})
	if p.status != http.StatusSeeOther || p.location != "/teacher" {
		t.Fatalf("register = %d %q", p.status, p.location)
	}
	if p := b.get("/teacher"); p.status != http.StatusOK || !strings.Contains(p.body, "Welcome to EMStudy, Ada.") {
		t.Fatalf("teacher home = %d %s", p.status, p.body)
	}

	other := b.env.browser()
	p = other.post("/register", url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "password": {"secret1"}, "role": {"student"}})
	if p.status != http.StatusConflict || !strings.Contains(p.body, "user already exists") {
		t.Fatalf("duplicate register = %d %s", p.status, p.body)
	}
}

func TestStudentTakesQuiz(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	q, questions := env.seededQuiz()
	b := env.browser()
	b.login(service.SeedStudentEmail, service.SeedStudentPassword)

	base := "/student/quizzes/" + q.ID.String()
	if p := b.get(base + "/take"); p.status != http.StatusSeeOther || p.location != base {
		t.Fatalf("take before start = %d %q", p.status, p.location)
	}
	if p := b.get(base); p.status != http.StatusOK || !strings.Contains(p.body, "Start quiz") {
		t.Fatalf("intro = %d", p.status)
	}
	if p := b.post(base+"/start", nil); p.status != http.StatusSeeOther || p.location != base+"/take" {
		t.Fatalf("start = %d %q", p.status, p.location)
	}
	p := b.get(base + "/take")
	if p.status != http.StatusOK || !strings.Contains(p.body, "Time left") || !strings.Contains(p.body, `http-equiv="refresh"`) {
		t.Fatalf("take = %d %s", p.status, p.body)
	}

	for _, question := range questions {
		for _, a := range question.Answers {
			if a.Correct() {
				p := b.post(base+"/answer", url.Values{"question_id": {question.ID.String()}, "answer_id": {a.ID.String()}})
				if p.status != http.StatusSeeOther {
					t.Fatalf("answer = %d", p.status)
				}
			}
		}
	}
	if p := b.get(base + "/take"); !strings.Contains(p.body, "2/2 answered") {
		t.Fatalf("take after answering lacks count: %s", p.body)
	}

	p = b.post(base+"/submit", nil)
	if p.status != http.StatusSeeOther || !strings.HasPrefix(p.location, "/student/submissions/") {
		t.Fatalf("submit = %d %q", p.status, p.location)
	}
	resultPath := p.location
	result := b.get(resultPath)
	if result.status != http.StatusOK || !strings.Contains(result.body, "2 / 2") || !strings.Contains(result.body, "2 of 2 correct") {
		t.Fatalf("result = %d %s", result.status, result.body)
	}
	if p := b.get(base + "/take"); p.location != resultPath {
		t.Fatalf("take after submit -> %q", p.location)
	}
	if p := b.get("/student/submissions"); !strings.Contains(p.body, q.Title) {
		t.Fatalf("my results lack %q", q.Title)
	}
}

func TestAbandonStopsAttempt(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	q, _ := env.seededQuiz()
	b := env.browser()
	b.login(service.SeedStudentEmail, service.SeedStudentPassword)
	base := "/student/quizzes/" + q.ID.String()

	b.post(base+"/start", nil)
	writes := env.writes.Load()
	if p := b.post(base+"/abandon", nil); p.location != base {
		t.Fatalf("abandon -> %q", p.location)
	}
	if p := b.get(base + "/take"); p.location != base {
		t.Fatalf("take after abandon -> %q", p.location)
	}
	if got := env.writes.Load(); got != writes {
		t.Fatalf("abandon submitted %d times", got-writes)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	b := newTestEnv(t, time.Hour).browser()
	b.login(service.SeedStudentEmail, service.SeedStudentPassword)
	if p := b.post("/logout", nil); p.location != "/login" {
		t.Fatalf("logout -> %q", p.location)
	}
	if p := b.get("/student"); p.status != http.StatusSeeOther || !strings.HasPrefix(p.location, "/login") {
		t.Fatalf("after logout = %d %q", p.status, p.location)
	}
}

func TestExpiredSessionRedirectsToLogin(t *testing.T) {
	b := newTestEnv(t, 50*time.Millisecond).browser()
	b.login(service.SeedStudentEmail, service.SeedStudentPassword)
	time.Sleep(100 * time.Millisecond)

	p := b.get("/student")
	if p.status != http.StatusSeeOther || p.location != "/login?next=%2Fstudent" {
		t.Fatalf("expired = %d %q", p.status, p.location)
	}
	if p := b.get(p.location); !strings.Contains(p.body, "Your session expired") {
		t.Fatalf("login page lacks expiry toast: %s", p.body)
	}
}

func TestTeacherManagesCourse(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	b := env.browser()
	b.login(service.SeedTeacherEmail, service.SeedTeacherPassword)

	before := env.writes.Load()
	if p := b.post("/teacher/courses", url.Values{"title": {""}}); p.status != http.StatusUnprocessableEntity || !strings.Contains(p.body, "Title is required") {
		t.Fatalf("blank course = %d %s", p.status, p.body)
	}
	if env.writes.Load() != before {
		t.Fatal("blank course reached the API")
	}

	p := b.post("/teacher/courses", url.Values{"title": {"Concurrency"}, "description": {"channels"}})
	if p.status != http.StatusSeeOther || !strings.HasPrefix(p.location, "/teacher/courses/") {
		t.Fatalf("create course = %d %q", p.status, p.location)
	}
	coursePage := p.location
	if p := b.get(coursePage); p.status != http.StatusOK || !strings.Contains(p.body, "Join code") || !strings.Contains(p.body, "Students join with code") {
		t.Fatalf("course page = %d", p.status)
	}

	before = env.writes.Load()
	p = b.post(coursePage+"/materials", url.Values{"title": {"Slides"}})
	if p.status != http.StatusUnprocessableEntity || !strings.Contains(p.body, "Add a link or choose a file.") {
		t.Fatalf("material without source = %d", p.status)
	}
	if env.writes.Load() != before {
		t.Fatal("material without source reached the API")
	}
	if p := b.post(coursePage+"/materials", url.Values{"title": {"Spec"}, "url": {"https://go.dev/ref/spec"}}); p.location != coursePage {
		t.Fatalf("link material -> %q", p.location)
	}
	if p := b.get(coursePage); !strings.Contains(p.body, "https://go.dev/ref/spec") {
		t.Fatal("course page lacks the material")
	}

	if p := b.post(coursePage+"/quizzes", url.Values{"title": {"Channels"}, "duration_minutes": {"0"}}); p.status != http.StatusUnprocessableEntity {
		t.Fatalf("zero duration quiz = %d", p.status)
	}
	p = b.post(coursePage+"/quizzes", url.Values{"title": {"Channels"}, "duration_minutes": {"10"}})
	if p.status != http.StatusSeeOther || !strings.HasPrefix(p.location, "/teacher/quizzes/") {
		t.Fatalf("create quiz = %d %q", p.status, p.location)
	}
	quizPage := p.location

	p = b.post(quizPage+"/questions", url.Values{"text": {"Buffered?"}, "answers": {"yes", "", "", ""}, "correct": {"0"}})
	if p.status != http.StatusUnprocessableEntity || !strings.Contains(p.body, "at least two answers") {
		t.Fatalf("one answer question = %d", p.status)
	}
	p = b.post(quizPage+"/questions", url.Values{"text": {"Buffered?"}, "answers": {"yes", "no", "", ""}, "correct": {"1"}})
	if p.location != quizPage {
		t.Fatalf("add question -> %q", p.location)
	}
	if p := b.get(quizPage); !strings.Contains(p.body, "Buffered?") || !strings.Contains(p.body, "(correct)") {
		t.Fatal("quiz page lacks the question")
	}

	p = b.get(quizPage + "/export.xlsx")
	if p.status != http.StatusOK || p.header.Get("Content-Type") != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("export = %d %s", p.status, p.header.Get("Content-Type"))
	}
	if !strings.HasPrefix(p.body, "PK") {
		t.Fatal("export is not a zip container")
	}

	if p := b.post(quizPage+"/delete", nil); p.location != coursePage {
		t.Fatalf("delete quiz -> %q", p.location)
	}
	if p := b.post(coursePage+"/delete", nil); p.location != "/teacher" {
		t.Fatalf("delete course -> %q", p.location)
	}
	if p := b.get(coursePage); p.status != http.StatusNotFound {
		t.Fatalf("deleted course = %d", p.status)
	}
}

// nearlyOver makes the next attempt start with left on the clock.
func (e *testEnv) nearlyOver(q models.Quiz, left time.Duration) {
	e.startBack.Store(int64(q.Duration() - left))
}

// waitForResult polls the take page until the countdown handed the answers in.
func (b *browser) waitForResult(take string) page {
	b.env.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		p := b.get(take)
		if p.status == http.StatusSeeOther {
			return p
		}
		if time.Now().After(deadline) {
			b.env.t.Fatalf("take never left the quiz: %d %s", p.status, p.body)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestCountdownHandsAnswersIn(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	q, questions := env.seededQuiz()
	b := env.browser()
	b.login(service.SeedStudentEmail, service.SeedStudentPassword)
	base := "/student/quizzes/" + q.ID.String()

	env.nearlyOver(q, 500*time.Millisecond)
	b.post(base+"/start", nil)
	for _, a := range questions[0].Answers {
		if a.Correct() {
			b.post(base+"/answer", url.Values{"question_id": {questions[0].ID.String()}, "answer_id": {a.ID.String()}})
		}
	}

	p := b.waitForResult(base + "/take")
	if !strings.HasPrefix(p.location, "/student/submissions/") {
		t.Fatalf("take after countdown -> %q", p.location)
	}
	resultPath := p.location
	result := b.get(resultPath)
	if result.status != http.StatusOK {
		t.Fatalf("result = %d", result.status)
	}
	for _, want := range []string{
		"Time ran out, your answers were handed in: 1 of 2 correct.",
		"automatically when time ran out",
		"1 / 2",
	} {
		if !strings.Contains(result.body, want) {
			t.Errorf("result lacks %q", want)
		}
	}
	if p := b.post(base+"/answer", url.Values{"question_id": {questions[1].ID.String()}, "answer_id": {questions[1].Answers[0].ID.String()}}); p.location != base+"/take" {
		t.Fatalf("late answer -> %q", p.location)
	}
	if p := b.get(base + "/take"); p.location != resultPath {
		t.Fatalf("take after late answer -> %q", p.location)
	}
	if p := b.get(resultPath); !strings.Contains(p.body, "Time is up, your answers were handed in.") {
		t.Fatal("late answer was not refused")
	}
}

func TestCountdownShowsFailedHandIn(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	q, _ := env.seededQuiz()
	b := env.browser()
	b.login(service.SeedStudentEmail, service.SeedStudentPassword)
	base := "/student/quizzes/" + q.ID.String()

	env.failSubmit.Store(true)
	env.nearlyOver(q, 50*time.Millisecond)
	b.post(base+"/start", nil)

	deadline := time.Now().Add(3 * time.Second)
	for {
		p := b.get(base + "/take")
		if p.status != http.StatusOK {
			t.Fatalf("take = %d %q", p.status, p.location)
		}
		if strings.Contains(p.body, "Submitting failed: grading is down") {
			if strings.Contains(p.body, `http-equiv="refresh"`) || strings.Contains(p.body, "Hand in (") {
				t.Fatal("failed hand-in still offers the running quiz")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("take never showed the failure: %s", p.body)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSelectRejectsForeignAnswers(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	q, questions := env.seededQuiz()
	b := env.browser()
	b.login(service.SeedStudentEmail, service.SeedStudentPassword)
	base := "/student/quizzes/" + q.ID.String()
	b.post(base+"/start", nil)

	foreign := []url.Values{
		{"question_id": {uuid.NewString()}, "answer_id": {questions[0].Answers[0].ID.String()}},
		{"question_id": {questions[0].ID.String()}, "answer_id": {questions[1].Answers[0].ID.String()}},
	}
	for _, form := range foreign {
		if p := b.post(base+"/answer", form); p.location != base+"/take" {
			t.Fatalf("foreign answer -> %q", p.location)
		}
		p := b.get(base + "/take")
		if !strings.Contains(p.body, "That answer is not part of this quiz.") {
			t.Fatalf("take lacks the rejection: %s", p.body)
		}
		if !strings.Contains(p.body, "0/2 answered") {
			t.Fatal("foreign answer was recorded")
		}
	}
}
