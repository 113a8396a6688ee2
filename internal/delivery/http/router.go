package http

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/apiclient"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/delivery/http/controllers"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/delivery/http/views"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/delivery/middleware"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/quiz"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/session"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

// Deps is what the web tier is built from.
type Deps struct {
	API      *apiclient.Client
	Sessions *session.Manager
	Attempts *quiz.Registry
	Cookies  sessions.Store
	Options  controllers.Options
}

// NewCookieStore signs the browser cookie with secret. An empty secret gets a
// random one, so cookies do not survive a restart.
func NewCookieStore(secret string, secure bool, maxAge time.Duration) (*sessions.CookieStore, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate cookie key: %w", err)
		}
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(maxAge.Seconds()))
	return store, nil
}

func InitRoutes(l logger.Log, d Deps) (*gin.Engine, error) {
	renderer, err := views.New()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.HTMLRender = renderer

	web := controllers.NewWeb(l, d.API, d.Sessions, d.Attempts, d.Cookies, d.Options)
	statusController := controllers.NewStatusHandler("web")
	authPages := controllers.NewAuthPages(web)
	studentPages := controllers.NewStudentPages(web)
	teacherPages := controllers.NewTeacherPages(web)

	r.GET("/status", statusController.Status)
	r.NoRoute(web.SessionMiddleware, web.NotFound)

	pages := r.Group("", middleware.LoggingMiddleware(l), web.SessionMiddleware)
	{
		pages.GET("/", authPages.Home)
		pages.GET("/login", authPages.LoginPage)
		pages.POST("/login", authPages.Login)
		pages.GET("/register", authPages.RegisterPage)
		pages.POST("/register", authPages.Register)
		pages.POST("/logout", authPages.Logout)

		student := pages.Group("/student", web.RequireRole(models.StudentRole))
		{
			student.GET("", studentPages.Dashboard)
			student.POST("/enroll", studentPages.Enroll)
			student.GET("/catalog", studentPages.Catalog)
			student.GET("/courses/:course_id", studentPages.Course)
			student.GET("/quizzes/:quiz_id", studentPages.QuizIntro)
			student.POST("/quizzes/:quiz_id/start", studentPages.Start)
			student.GET("/quizzes/:quiz_id/take", studentPages.Take)
			student.POST("/quizzes/:quiz_id/answer", studentPages.Select)
			student.POST("/quizzes/:quiz_id/submit", studentPages.Submit)
			student.POST("/quizzes/:quiz_id/abandon", studentPages.Abandon)
			student.GET("/submissions", studentPages.Submissions)
			student.GET("/submissions/:submission_id", studentPages.Submission)
		}

		teacher := pages.Group("/teacher", web.RequireRole(models.TeacherRole))
		{
			teacher.GET("", teacherPages.Dashboard)
			teacher.POST("/courses", teacherPages.CreateCourse)
			teacher.GET("/courses/:course_id", teacherPages.Course)
			teacher.POST("/courses/:course_id", teacherPages.UpdateCourse)
			teacher.POST("/courses/:course_id/delete", teacherPages.DeleteCourse)
			teacher.POST("/courses/:course_id/materials", teacherPages.CreateMaterial)
			teacher.POST("/courses/:course_id/quizzes", teacherPages.CreateQuiz)
			teacher.POST("/materials/:material_id/delete", teacherPages.DeleteMaterial)
			teacher.GET("/quizzes/:quiz_id", teacherPages.Quiz)
			teacher.POST("/quizzes/:quiz_id/questions", teacherPages.AddQuestion)
			teacher.POST("/quizzes/:quiz_id/delete", teacherPages.DeleteQuiz)
			teacher.GET("/quizzes/:quiz_id/submissions", teacherPages.Submissions)
			teacher.GET("/quizzes/:quiz_id/export.xlsx", teacherPages.Export)
		}
	}
	return r, nil
}
