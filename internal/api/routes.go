package api

import (
	"net/http"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/metrics"
	"coastalfit/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// Services is everything the HTTP layer talks to.
type Services struct {
	Auth         service.AuthService
	Users        service.UserService
	Workouts     service.WorkoutService
	Goals        service.GoalService
	Nutrition    service.NutritionService
	Measurements service.MeasurementService
	Catalog      service.CatalogService
}

type RouterOptions struct {
	DebugErrors bool
	Metrics     *metrics.Manager
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter builds the gin engine with the middleware chain and every route.
func NewRouter(services Services, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(
		PanicRecovery(opts.Metrics),
		RequestLogger(),
		RequestMetrics(opts.Metrics),
		DebugErrors(opts.DebugErrors),
	)
	router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, domain.KindNotFound, "route not found")
	})
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}
	SetupRoutes(router, services)
	return router
}

func SetupRoutes(router *gin.Engine, s Services) {
	authHandler := NewAuthHandler(s.Auth)
	userHandler := NewUserHandler(s.Users)
	workoutHandler := NewWorkoutHandler(s.Workouts)
	goalHandler := NewGoalHandler(s.Goals)
	nutritionHandler := NewNutritionHandler(s.Nutrition)
	measurementHandler := NewMeasurementHandler(s.Measurements)
	catalogHandler := NewCatalogHandler(s.Catalog)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/password/forgot", authHandler.ForgotPassword)
			authGroup.POST("/password/reset", authHandler.ResetPassword)
		}
	}

	// Role checks live in the services; the router only requires a valid token.
	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(s.Auth))
	{
		protected.GET("/me", userHandler.GetMe)
		protected.PATCH("/me", userHandler.UpdateMe)
		protected.PUT("/me/password", authHandler.ChangePassword)
		protected.POST("/me/profile-image/upload-url", userHandler.RequestProfileImageUploadURL)
		protected.PUT("/me/profile-image", userHandler.ConfirmProfileImage)

		protected.GET("/users/:userId", userHandler.GetUser)
		protected.GET("/users/:userId/profile-image", userHandler.GetProfileImageURL)
		protected.GET("/specialists/:specialistId/clients", userHandler.ListClients)

		clients := protected.Group("/clients/:clientId")
		{
			clients.GET("/specialists", userHandler.ListSpecialists)
			clients.POST("/specialists/:specialistId", userHandler.AssignSpecialist)
			clients.DELETE("/specialists/:specialistId", userHandler.UnassignSpecialist)

			clients.GET("/workouts", workoutHandler.ListWorkouts)
			clients.POST("/workouts", workoutHandler.CreateWorkout)
			clients.GET("/workouts/stats", workoutHandler.GetStats)

			clients.GET("/goals", goalHandler.ListGoals)
			clients.POST("/goals", goalHandler.CreateGoal)

			clients.GET("/nutrition", nutritionHandler.GetPlan)
			clients.POST("/nutrition", nutritionHandler.CreatePlan)
			clients.PATCH("/nutrition", nutritionHandler.UpdateTargets)
			clients.DELETE("/nutrition", nutritionHandler.DeletePlan)
			clients.POST("/nutrition/logs", nutritionHandler.LogDay)

			clients.GET("/measurements", measurementHandler.ListMeasurements)
			clients.POST("/measurements", measurementHandler.CreateMeasurement)
			clients.GET("/measurements/stats", measurementHandler.GetStats)
		}

		workouts := protected.Group("/workouts/:workoutId")
		{
			workouts.GET("", workoutHandler.GetWorkout)
			workouts.PATCH("", workoutHandler.UpdateWorkout)
			workouts.DELETE("", workoutHandler.DeleteWorkout)
			workouts.POST("/start", workoutHandler.StartWorkout)
			workouts.POST("/exercises/:index/sets", workoutHandler.RecordSet)
			workouts.POST("/complete", workoutHandler.CompleteWorkout)
			workouts.POST("/clone", workoutHandler.CloneWorkout)
		}

		goals := protected.Group("/goals/:goalId")
		{
			goals.GET("", goalHandler.GetGoal)
			goals.PATCH("", goalHandler.UpdateGoal)
			goals.DELETE("", goalHandler.DeleteGoal)
			goals.POST("/progress", goalHandler.RecordProgress)
		}

		protected.PATCH("/measurements/:measurementId", measurementHandler.UpdateMeasurement)
		protected.DELETE("/measurements/:measurementId", measurementHandler.DeleteMeasurement)

		exercises := protected.Group("/exercises")
		{
			exercises.GET("", catalogHandler.ListExercises)
			exercises.POST("", catalogHandler.CreateExercise)
			exercises.GET("/:exerciseId", catalogHandler.GetExercise)
			exercises.PUT("/:exerciseId", catalogHandler.UpdateExercise)
			exercises.DELETE("/:exerciseId", catalogHandler.DeleteExercise)
		}

		admin := protected.Group("/admin/users")
		{
			admin.GET("", userHandler.ListUsers)
			admin.POST("", userHandler.CreateUser)
			admin.PATCH("/:userId", userHandler.UpdateUser)
			admin.DELETE("/:userId", userHandler.DeleteUser)
		}
	}
}
