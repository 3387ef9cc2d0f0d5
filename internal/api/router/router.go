package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"solveit/config"
	"solveit/internal/api/handler"
	"solveit/internal/api/middleware"
	"solveit/internal/metrics"
	"solveit/internal/model"
	"solveit/pkg/jwt"
	"solveit/pkg/redis"
)

// Deps optional infrastructure for the router. Nil fields disable the feature.
type Deps struct {
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Setup builds the gin engine
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, deps Deps, logger *zap.Logger) (*gin.Engine, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	// interface values stay nil when Redis is off
	var (
		blacklist middleware.Blacklist
		limiter   middleware.RateLimiter
	)
	if deps.Redis != nil {
		blacklist = deps.Redis
		limiter = deps.Redis
	}

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	r.GET("/health", h.Health.Health)
	if cfg.Metrics.Enabled && deps.Gatherer != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	admin := middleware.RoleAuth(model.RoleAdmin)
	staffOrAdmin := middleware.RoleAuth(model.RoleStaff, model.RoleAdmin)
	student := middleware.RoleAuth(model.RoleStudent)

	bodyLimit := middleware.BodyLimit(cfg.Server.MaxBodyBytes)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth", bodyLimit)
		auth.Use(middleware.RateLimit(limiter, 20, time.Minute))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/register", h.Auth.Register)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", bodyLimit, h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", bodyLimit, h.Auth.ChangePassword)

			complaints := authorized.Group("/complaints", bodyLimit)
			{
				complaints.POST("", student, middleware.RateLimit(limiter, 10, time.Minute), h.Complaint.Submit)
				complaints.GET("", h.Complaint.List)
				complaints.GET("/ticket/:code", h.Complaint.GetByTicket)
				complaints.GET("/:id", h.Complaint.Get)
				complaints.GET("/:id/history", h.Complaint.History)
				complaints.PUT("/:id/status", staffOrAdmin, h.Complaint.UpdateStatus)
				complaints.POST("/:id/rating", student, h.Complaint.Rate)
				complaints.POST("/:id/assign", admin, h.Complaint.Assign)
				complaints.POST("/:id/escalate", admin, h.Escalation.EscalateOne)
			}

			authorized.POST("/escalations/sweep", admin, h.Escalation.Sweep)

			staff := authorized.Group("/staff", bodyLimit)
			{
				staff.GET("", h.Staff.List)
				staff.GET("/leaderboard", h.Staff.Leaderboard)
				staff.GET("/me/calendar.ics", middleware.RoleAuth(model.RoleStaff), h.Staff.MyCalendar)
				staff.GET("/:id", h.Staff.Get)
				staff.GET("/:id/calendar.ics", admin, h.Staff.Calendar)
				staff.POST("", admin, h.Staff.Create)
				staff.PUT("/:id", admin, h.Staff.Update)
				staff.PUT("/:id/active", admin, h.Staff.SetActive)
			}

			users := authorized.Group("/users", admin)
			{
				// spreadsheet uploads get their own, larger cap
				users.POST("/import", middleware.BodyLimit(handler.MaxImportRequestBytes), h.User.Import)

				limited := users.Group("", bodyLimit)
				limited.GET("", h.User.List)
				limited.GET("/:id", h.User.Get)
				limited.PUT("/:id/active", h.User.SetActive)
				limited.PUT("/:id/role", h.User.AssignRole)
				limited.POST("/:id/reset-password", h.User.ResetPassword)
			}

			notifications := authorized.Group("/notifications", bodyLimit)
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}

			export := authorized.Group("/export", admin)
			{
				export.GET("/complaints", h.Export.ExportComplaints)
				export.GET("/staff", h.Export.ExportStaff)
			}
		}
	}

	return r, nil
}
