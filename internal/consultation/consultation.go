/*
Package consultation serves the meal-plan form and its JSON twin.
Every request is handled from scratch: no state survives between renders.
*/
package consultation

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"Glupulse_MealPlan/internal/claudeservice"
	"Glupulse_MealPlan/internal/utility"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	PageTitle      = "Personalized Meal Plan for Diabetic Patients by Ibn Adam"
	FailureMessage = "Failed to generate meal plan. Please check your API key and credits."
	indexTemplate  = "index.html"
)

var errBadForm = errors.New("invalid form input")

// MealPlanner is satisfied by *claudeservice.Service.
type MealPlanner interface {
	GenerateMealPlan(ctx context.Context, log *zerolog.Logger, req claudeservice.MealPlanRequest) (string, error)
}

/* =================================================================================
							DTOs (Data Transfer Objects)
=================================================================================*/

// MealPlanRequest defines the JSON payload expected from API clients.
// Missing readings default to 0 and a missing preference to "No preference".
type MealPlanRequest struct {
	FastingLevel      float64 `json:"fasting_level"`
	PreMealLevel      float64 `json:"pre_meal_level"`
	PostMealLevel     float64 `json:"post_meal_level"`
	DietaryPreference string  `json:"dietary_preference"`
}

// MealPlanResponse is the JSON response on success.
type MealPlanResponse struct {
	MealPlan string `json:"meal_plan"`
}

// DietaryPreferenceOption describes one entry of the closed option set.
type DietaryPreferenceOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// FormValues keeps the submitted strings so the page re-renders with them.
type FormValues struct {
	FastingLevel      string
	PreMealLevel      string
	PostMealLevel     string
	DietaryPreference string
}

// PageData is the view model for index.html.
type PageData struct {
	Title       string
	Form        FormValues
	Preferences []claudeservice.DietaryPreference
	MealPlan    template.HTML
	ErrorDetail string
	Failure     string
}

func newPageData(form FormValues) PageData {
	return PageData{
		Title:       PageTitle,
		Form:        form,
		Preferences: claudeservice.DietaryPreferences(),
	}
}

func defaultForm() FormValues {
	return FormValues{
		FastingLevel:      "0",
		PreMealLevel:      "0",
		PostMealLevel:     "0",
		DietaryPreference: string(claudeservice.NoPreference),
	}
}

/*=================================================================================
									HANDLERS
=================================================================================*/

// Handler groups the consultation endpoints.
type Handler struct {
	planner MealPlanner
}

func NewHandler(planner MealPlanner) *Handler {
	return &Handler{planner: planner}
}

// RenderFormHandler serves the empty form.
func (h *Handler) RenderFormHandler(c echo.Context) error {
	return c.Render(http.StatusOK, indexTemplate, newPageData(defaultForm()))
}

// GenerateMealPlanFormHandler handles the form post and re-renders the whole page.
func (h *Handler) GenerateMealPlanFormHandler(c echo.Context) error {
	logger := utility.GetLoggerFromContext(c)

	form := FormValues{
		FastingLevel:      strings.TrimSpace(c.FormValue("fasting_level")),
		PreMealLevel:      strings.TrimSpace(c.FormValue("pre_meal_level")),
		PostMealLevel:     strings.TrimSpace(c.FormValue("post_meal_level")),
		DietaryPreference: strings.TrimSpace(c.FormValue("dietary_preference")),
	}
	data := newPageData(form)

	req, err := parseForm(form)
	if err != nil {
		logger.Warn().Err(err).Msg("Rejected meal plan form")
		data.ErrorDetail = err.Error()
		return c.Render(http.StatusBadRequest, indexTemplate, data)
	}
	data.Form.DietaryPreference = string(req.DietaryPreference)

	mealPlan, err := h.planner.GenerateMealPlan(c.Request().Context(), logger, req)
	if err != nil {
		status := statusForError(err)
		data.ErrorDetail = err.Error()
		if status != http.StatusBadRequest {
			data.Failure = FailureMessage
		}
		return c.Render(status, indexTemplate, data)
	}

	rendered, err := utility.RenderMarkdown(mealPlan)
	if err != nil {
		logger.Warn().Err(err).Msg("Falling back to plain text meal plan")
		rendered = template.HTML("<pre>" + template.HTMLEscapeString(mealPlan) + "</pre>")
	}
	data.MealPlan = rendered

	return c.Render(http.StatusOK, indexTemplate, data)
}

// GenerateMealPlanHandler is the JSON entry point.
func (h *Handler) GenerateMealPlanHandler(c echo.Context) error {
	logger := utility.GetLoggerFromContext(c)

	var body MealPlanRequest
	if err := c.Bind(&body); err != nil {
		logger.Error().Err(err).Msg("Failed to bind request body")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	pref := claudeservice.NoPreference
	if strings.TrimSpace(body.DietaryPreference) != "" {
		var err error
		pref, err = claudeservice.ParseDietaryPreference(body.DietaryPreference)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error":  "Dietary preference must be one of 'No preference', 'Vegetarian' or 'Vegan'",
				"detail": err.Error(),
			})
		}
	}

	req := claudeservice.MealPlanRequest{
		FastingLevel:      body.FastingLevel,
		PreMealLevel:      body.PreMealLevel,
		PostMealLevel:     body.PostMealLevel,
		DietaryPreference: pref,
	}

	mealPlan, err := h.planner.GenerateMealPlan(c.Request().Context(), logger, req)
	if err != nil {
		status := statusForError(err)
		msg := FailureMessage
		if status == http.StatusBadRequest {
			msg = "Invalid meal plan request"
		}
		return c.JSON(status, map[string]string{
			"error":      msg,
			"detail":     err.Error(),
			"request_id": utility.GetRequestIDFromContext(c),
		})
	}

	return c.JSON(http.StatusOK, MealPlanResponse{MealPlan: mealPlan})
}

// ListDietaryPreferencesHandler returns the closed option set.
func (h *Handler) ListDietaryPreferencesHandler(c echo.Context) error {
	prefs := claudeservice.DietaryPreferences()
	options := make([]DietaryPreferenceOption, 0, len(prefs))
	for _, p := range prefs {
		options = append(options, DietaryPreferenceOption{Key: p.Key(), Label: string(p)})
	}
	return c.JSON(http.StatusOK, options)
}

/*=================================================================================
								HELPER FUNCTIONS
=================================================================================*/

func parseForm(form FormValues) (claudeservice.MealPlanRequest, error) {
	var req claudeservice.MealPlanRequest
	var err error

	if req.FastingLevel, err = parseLevel("fasting", form.FastingLevel); err != nil {
		return req, err
	}
	if req.PreMealLevel, err = parseLevel("pre-meal", form.PreMealLevel); err != nil {
		return req, err
	}
	if req.PostMealLevel, err = parseLevel("post-meal", form.PostMealLevel); err != nil {
		return req, err
	}

	req.DietaryPreference = claudeservice.NoPreference
	if form.DietaryPreference != "" {
		if req.DietaryPreference, err = claudeservice.ParseDietaryPreference(form.DietaryPreference); err != nil {
			return req, err
		}
	}
	return req, req.Validate()
}

// parseLevel treats an empty field as the widget default of 0.
func parseLevel(name, raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s level %q is not a number", errBadForm, name, raw)
	}
	return v, nil
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, claudeservice.ErrInvalidReading),
		errors.Is(err, claudeservice.ErrUnknownPreference),
		errors.Is(err, errBadForm):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
