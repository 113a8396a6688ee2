package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/delivery/api/controllers"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/delivery/middleware"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

// InitRoutes mounts the REST API under /api.
func InitRoutes(l logger.Log, u *service.Collection, allowOrigins []string, maxUpload int64) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if maxUpload > 0 {
		r.MaxMultipartMemory = maxUpload
	}

	config := cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowOrigins) > 0 {
		r.Use(cors.New(config))
	}

	statusController := controllers.NewStatusHandler()
	authController := controllers.NewAuthHandler(l, u.AuthService)
	courseController := controllers.NewCourseHandler(l, u.CourseService)
	quizController := controllers.NewQuizHandler(l, u.QuizService)
	submissionController := controllers.NewSubmissionHandler(l, u.SubmissionService)
	materialController := controllers.NewMaterialHandler(l, u.MaterialService)
	enrollmentController := controllers.NewEnrollmentHandler(l, u.EnrollmentService)

	authn := middleware.NewAuthMiddlewareProvider(l, u.AuthService).AuthMiddleware
	teacher := middleware.RequireRoles(models.TeacherRole)
	student := middleware.RequireRoles(models.StudentRole)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	v1 := r.Group("/api", middleware.LoggingMiddleware(l))
	{
		v1.GET("/status", statusController.Status)

		auth := v1.Group("/auth")
		{
			auth.POST("/login", authController.Login)
			auth.POST("/register", authController.Register)
			auth.GET("/me", authn, authController.Me)
		}

		// Presigned-style download link, see MaterialHandler.File.
		v1.GET("/materials/:material_id/file", materialController.File)

		private := v1.Group("", authn)

		courses := private.Group("/courses")
		{
			courses.GET("", courseController.ListCourses)
			courses.GET("/mine", courseController.MyCourses)
			courses.GET("/:course_id", courseController.CourseByID)
			courses.GET("/:course_id/quizzes", quizController.CourseQuizzes)
			courses.POST("", teacher, courseController.CreateCourse)
			courses.PUT("/:course_id", teacher, courseController.UpdateCourse)
			courses.DELETE("/:course_id", teacher, courseController.DeleteCourse)
			courses.GET("/:course_id/enrollments", teacher, enrollmentController.Roster)
		}

		quizzes := private.Group("/quizzes")
		{
			quizzes.GET("/:quiz_id", quizController.QuizByID)
			quizzes.GET("/:quiz_id/questions", quizController.Questions)
			quizzes.POST("", teacher, quizController.CreateQuiz)
			quizzes.DELETE("/:quiz_id", teacher, quizController.DeleteQuiz)
			quizzes.POST("/:quiz_id/questions", teacher, quizController.AddQuestion)
			quizzes.GET("/:quiz_id/submissions", teacher, submissionController.QuizSubmissions)
		}

		submissions := private.Group("/submissions")
		{
			submissions.POST("", student, submissionController.Submit)
			submissions.GET("/mine", student, submissionController.MySubmissions)
			submissions.GET("/:submission_id", submissionController.SubmissionByID)
		}

		materials := private.Group("/materials")
		{
			materials.GET("", materialController.Materials)
			materials.POST("", teacher, middleware.LimitBody(maxUpload), materialController.CreateMaterial)
			materials.DELETE("/:material_id", teacher, materialController.DeleteMaterial)
		}

		enrollments := private.Group("/enrollments", student)
		{
			enrollments.GET("", enrollmentController.MyEnrollments)
			enrollments.POST("/enroll", enrollmentController.Enroll)
		}
	}
	return r
}
