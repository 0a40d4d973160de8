package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"zettahub/cmd/middleware"
	"zettahub/internal/service"
	"zettahub/pkg/auth"
)

type Routers struct {
	Service        service.Service
	Tokens         *auth.TokenManager
	AllowedOrigins []string
	// QRDir is mounted read-only at QRPublicPrefix so issued credentials
	// stay fetchable at the locator stored on the registration row.
	QRDir          string
	QRPublicPrefix string
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = r.AllowedOrigins
	corsCfg.AllowCredentials = true
	corsCfg.AddAllowHeaders("Authorization")
	app.Use(cors.New(corsCfg))

	apiGroup := app.Group("/api")

	apiGroup.POST("/register", r.Service.Register)
	apiGroup.GET("/registrations/event/:event_id", r.Service.GetEventRegistrations)
	apiGroup.GET("/registrations/user/:user_id", r.Service.GetUserRegistrations)
	apiGroup.GET("/events", r.Service.GetAllEvents)
	apiGroup.POST("/events", r.Service.CreateEvent)
	apiGroup.POST("/users", r.Service.CreateUser)

	apiGroup.POST("/admin/signup", r.Service.AdminSignup)
	apiGroup.POST("/admin/login", r.Service.AdminLogin)

	admin := apiGroup.Group("/admin", middleware.AdminAuth(r.Tokens))
	admin.GET("/dashboard", r.Service.Dashboard)
	admin.GET("/events", r.Service.AdminListEvents)
	admin.POST("/events", r.Service.AdminCreateEvent)
	admin.PUT("/events/:id", r.Service.AdminUpdateEvent)
	admin.DELETE("/events/:id", r.Service.AdminDeleteEvent)
	admin.GET("/events/:id/stats", r.Service.AdminEventStats)
	admin.GET("/registrations", r.Service.AdminListRegistrations)
	admin.DELETE("/registrations/:id", r.Service.AdminDeleteRegistration)
	admin.GET("/users", r.Service.AdminListUsers)
	admin.GET("/users/:id", r.Service.AdminGetUser)

	app.Static(r.QRPublicPrefix, r.QRDir)

	app.GET("/health", func(c *ginext.Context) {
		c.JSON(200, map[string]string{"status": "healthy", "service": "zettahub"})
	})

	return app
}
