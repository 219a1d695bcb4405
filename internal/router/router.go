package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpdesk-service/api"
	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/handler"
	"github.com/psds-microservice/helpy/paths"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func New(ticketHandler *handler.TicketHandler, authHandler *handler.AuthHandler, jwtSecret string) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(paths.PathHealth, gin.WrapF(handler.Health))
	r.GET(paths.PathReady, gin.WrapF(handler.Ready))
	r.GET(paths.PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, paths.PathSwagger+"/") })
	r.GET(paths.PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = paths.PathSwagger + "/index.html"
			c.Request.RequestURI = paths.PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	// Public surface: end users submit tickets, admins sign in.
	r.POST("/submit-ticket", ticketHandler.Submit)
	r.POST("/admin/login", authHandler.Login)
	r.POST("/admin/logout", authHandler.Logout)

	// Admin API: every route behind bearer auth.
	apiGroup := r.Group("/api", auth.AdminAuth(jwtSecret))
	{
		apiGroup.GET("/tickets", ticketHandler.List)
		apiGroup.GET("/tickets/:id", ticketHandler.Get)
		apiGroup.GET("/tickets/:id/history", ticketHandler.History)
		apiGroup.PUT("/tickets/:id/status", ticketHandler.UpdateStatus)
		apiGroup.GET("/dashboard-stats", ticketHandler.DashboardStats)
	}

	return r
}
