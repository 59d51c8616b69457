package routes

import (
	"github.com/gin-gonic/gin"

	"fyzioakademie/internal/authz"
	"fyzioakademie/internal/handlers"
	"fyzioakademie/internal/middleware"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Checkout  *handlers.CheckoutHandler
	Payments  *handlers.PaymentHandler
	Webhooks  *handlers.WebhookHandler
	Content   *handlers.ContentHandler
	Dashboard *handlers.DashboardHandler
	Reports   *handlers.ReportHandler
}

func SetupRoutes(r *gin.Engine, h Handlers, verifier middleware.TokenVerifier) *gin.Engine {
	api := r.Group("/api")

	// ---- public
	api.GET("/courses", h.Content.ListCourses)
	api.GET("/courses/:id", h.Content.GetCourse)
	api.GET("/blogs", h.Content.ListBlogs)
	api.GET("/blogs/:slug", h.Content.GetBlog)
	api.GET("/team-members", h.Content.ListTeam)
	api.GET("/payments/plans", h.Payments.ListPlans)
	api.POST("/promo-codes/validate", h.Payments.ValidatePromo)

	auth := api.Group("/auth")
	{
		auth.POST("/register/send-code", h.Auth.SendRegistrationCode)
		auth.POST("/register/verify", h.Auth.VerifyRegistration)
		auth.POST("/password-reset/send-code", h.Auth.SendResetCode)
		auth.POST("/password-reset/verify", h.Auth.ResetPassword)
	}

	// подпись проверяется внутри, JWT тут нет
	api.POST("/webhooks/stripe", h.Webhooks.Stripe)

	// ---- protected
	protected := api.Group("", middleware.AuthMiddleware(verifier))
	{
		protected.POST("/checkout/course", h.Checkout.StartCourse)
		protected.POST("/checkout/verify", h.Checkout.Verify)
		protected.POST("/payments/intent", h.Payments.CreateIntent)

		protected.GET("/dashboard/courses", h.Dashboard.Courses)
		protected.GET("/dashboard/subscription", h.Dashboard.Subscription)
		protected.GET("/dashboard/tips", h.Dashboard.Tips)
		protected.GET("/purchases/:course_id/receipt", h.Dashboard.Receipt)
	}

	// ---- admin
	admin := protected.Group("/admin", middleware.RequireRoles(authz.RoleAdmin))
	{
		admin.GET("/reports/summary", h.Reports.GetSummary)
	}

	return r
}
