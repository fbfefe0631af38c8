package router

import (
	"context"
	"net/http"
	"time"

	"chat-log-server/internal/handlers"
	"chat-log-server/pkg/logger"
	"chat-log-server/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServiceName is reported by the root and health endpoints
const ServiceName = "chat-log-server"

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the resource handlers mounted by the router
type Handlers struct {
	Messages   *handlers.MessageHandler
	Contacts   *handlers.ContactHandler
	Automation *handlers.AutomationHandler
	Alerts     *handlers.AlertHandler
	Filters    *handlers.FilterHandler
	Sessions   *handlers.SessionHandler
}

// Options configures the middleware chain and the service descriptor
type Options struct {
	Version      string
	Features     []string
	MaxBodyBytes int64
	ForceHTTPS   bool
	Store        Pinger
}

type Router struct {
	engine *gin.Engine
	opts   Options
}

func NewRouter(h *Handlers, opts Options) *Router {
	if h == nil {
		panic("handlers cannot be nil")
	}
	if opts.Features == nil {
		opts.Features = []string{}
	}

	r := &Router{
		engine: gin.New(),
		opts:   opts,
	}
	r.engine.HandleMethodNotAllowed = true

	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestIDMiddleware())
	r.engine.Use(middleware.AuditLogMiddleware())
	if opts.ForceHTTPS {
		r.engine.Use(middleware.HTTPSRedirectMiddleware())
	}
	r.engine.Use(middleware.CORSMiddleware())
	r.engine.Use(middleware.SecurityHeadersMiddleware())
	r.engine.Use(middleware.RequestSizeLimitMiddleware(opts.MaxBodyBytes))

	r.engine.NoRoute(r.handleNotFound)
	r.engine.NoMethod(r.handleMethodNotAllowed)

	r.engine.GET("/", r.handleRoot)
	r.engine.GET("/health", r.handleHealth)

	// message log writes
	r.engine.POST("/log", h.Messages.LogMessage)
	r.engine.POST("/log-dashboard", h.Messages.LogDashboardMessage)
	r.engine.POST("/log_message", h.Messages.LogDashboardMessage)
	r.engine.POST("/delivery-status", h.Messages.DeliveryStatus)
	r.engine.PATCH("/message/:id", h.Messages.UpdateMessage)
	r.engine.DELETE("/message/:id", h.Messages.DeleteMessage)
	r.engine.DELETE("/conversation/:phone", h.Messages.DeleteConversation)

	// derived views and directory
	r.engine.GET("/contacts", h.Contacts.ListContacts)
	r.engine.GET("/contacts/:phone/profile", h.Contacts.GetProfile)
	r.engine.PUT("/contacts/:phone/profile", h.Contacts.UpsertProfile)
	r.engine.GET("/conversation/:phone", h.Contacts.GetConversation)

	r.engine.GET("/automation/:phone", h.Automation.GetAutomation)
	r.engine.PATCH("/automation/:phone", h.Automation.UpdateAutomation)

	r.engine.GET("/alerts", h.Alerts.ListAlerts)
	r.engine.GET("/alerts/:phone", h.Alerts.GetAlert)
	r.engine.POST("/alerts/:phone", h.Alerts.SetAlert)
	r.engine.DELETE("/alerts/:phone", h.Alerts.ClearAlert)

	filters := r.engine.Group("/filters")
	{
		filters.GET("/exclusions", h.Filters.GetExclusions)
		filters.POST("/exclusions", h.Filters.SetExclusions)
		filters.DELETE("/exclusions", h.Filters.ClearExclusions)
	}

	r.engine.GET("/session/:phone", h.Sessions.GetSession)

	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}

func (r *Router) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":  "WhatsApp Chat Logger API",
		"service":  ServiceName,
		"version":  r.opts.Version,
		"features": r.opts.Features,
	})
}

func (r *Router) handleHealth(c *gin.Context) {
	if r.opts.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := r.opts.Store.Ping(ctx); err != nil {
			logger.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"service": ServiceName,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().UTC(),
		"version": r.opts.Version,
		"service": ServiceName,
	})
}

func (r *Router) handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

func (r *Router) handleMethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}
