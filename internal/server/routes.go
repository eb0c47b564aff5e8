package server

import (
	"html/template"
	"io"
	"net/http"

	"Glupulse_MealPlan/internal/utility"
	"Glupulse_MealPlan/web"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// TemplateRenderer is a custom html/template renderer for Echo framework
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses the embedded page templates.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{
		templates: template.Must(template.ParseFS(web.Templates, "templates/*.html")),
	}
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64K"))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"https://*", "http://*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:       300,
	}))

	e.Use(LoggerMiddleware)

	e.Renderer = NewTemplateRenderer()

	e.GET("/health", s.healthHandler)

	// Form pages
	e.GET("/", s.consultation.RenderFormHandler)
	e.POST("/meal-plan", s.consultation.GenerateMealPlanFormHandler)

	// JSON API
	api := e.Group("/api")
	api.POST("/meal-plan", s.consultation.GenerateMealPlanHandler)
	api.GET("/dietary-preferences", s.consultation.ListDietaryPreferencesHandler)

	return e
}

func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.health.Health())
}

// LoggerMiddleware tags every request with an ID and a child logger.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(utility.RequestIDKey, requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().
			Str("request_id", requestID).
			Str("client_ip", utility.GetRealIP(c)).
			Logger()

		c.Set(utility.LoggerKey, &logger)

		return next(c)
	}
}
