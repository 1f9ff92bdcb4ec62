package routes

import (
	"prajavaradhi-be/controllers"
	"prajavaradhi-be/middlewares"
	"prajavaradhi-be/models"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine, counter middlewares.QuotaCounter, issueLimit int) {
	issues := r.Group("/api/issues")
	{
		issues.GET("", middlewares.OptionalAuth(), controllers.GetAllIssues)
		issues.GET("/:id", controllers.GetIssueById)
		issues.GET("/user/:userId", middlewares.Protect(), controllers.GetUserIssues)
		issues.POST("", middlewares.Protect(), middlewares.IssueRateLimiter(counter, issueLimit), controllers.CreateIssue)
		issues.PUT("/:id", middlewares.Protect(), middlewares.Authorize(models.RoleAdmin), controllers.UpdateIssue)
		issues.POST("/:id/progress", middlewares.Protect(), middlewares.Authorize(models.RoleAdmin), controllers.AddProgressUpdate)
		issues.PUT("/:id/verify", middlewares.Protect(), middlewares.Authorize(models.RoleModerator, models.RoleAdmin), controllers.VerifyIssue)
	}
}
