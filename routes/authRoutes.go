package routes

import (
	"prajavaradhi-be/controllers"
	"prajavaradhi-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", controllers.Signup)
		auth.POST("/login", controllers.Login)
		auth.GET("/me", middlewares.Protect(), controllers.GetMe)
		auth.POST("/forgotpassword", controllers.ForgotPassword)
		auth.PUT("/resetpassword/:resettoken", controllers.ResetPassword)
	}
}
