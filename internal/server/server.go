/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the
consultation handlers and health service into the router.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	"Glupulse_MealPlan/internal/claudeservice"
	"Glupulse_MealPlan/internal/config"
	"Glupulse_MealPlan/internal/consultation"
	"Glupulse_MealPlan/internal/system"
)

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// health reports process and host status for /health.
	health system.Service

	// consultation serves the meal-plan form and API.
	consultation *consultation.Handler
}

// New builds the Server without binding a listener.
func New(cfg config.Config, planner consultation.MealPlanner) *Server {
	return &Server{
		port: cfg.Port,
		health: system.NewService(system.Options{
			APIConfigured: cfg.HasAPIKey(),
			Model:         claudeservice.MealPlanModel,
		}),
		consultation: consultation.NewHandler(planner),
	}
}

// NewServer initializes a new Server instance and returns a configured *http.Server.
// The write timeout leaves room for one full upstream call.
func NewServer(cfg config.Config, planner consultation.MealPlanner) *http.Server {
	newApp := New(cfg, planner)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", newApp.port),
		Handler:      newApp.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Anthropic.Timeout + 10*time.Second,
	}
}
