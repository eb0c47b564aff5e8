package claudeservice

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

/* =================================================================================
							MODEL PARAMETERS
	Fixed for every consultation; they are not part of the runtime configuration.
=================================================================================*/

const (
	MealPlanModel       = "claude-3-5-sonnet-20240620"
	MealPlanMaxTokens   = 1000
	MealPlanTemperature = 0.5
)

// SystemPrompt defines the persona used for every meal plan request.
const SystemPrompt = "You are a nutrition expert providing meal plans based on blood sugar levels and dietary preferences."

/*
UserPromptTemplate is the formatted string used to build the final message.
Slots, in order: fasting, pre-meal and post-meal level (mg/dL), dietary preference.
*/
const UserPromptTemplate = "A patient with the following details needs a personalized meal plan:\n" +
	"- Fasting sugar level: %s mg/dL\n" +
	"- Pre-meal sugar level: %s mg/dL\n" +
	"- Post-meal sugar level: %s mg/dL\n" +
	"- Dietary preference: %s\n\n" +
	"Please provide a personalized meal plan that considers these factors."

// NoContentMessage is returned as the plan when the response carries no content list at all.
const NoContentMessage = "No content found in the response."

var (
	ErrInvalidReading    = errors.New("glucose reading must be a non-negative number")
	ErrUnknownPreference = errors.New("unknown dietary preference")
	ErrMissingAPIKey     = errors.New("server is not configured for AI meal plans")
	ErrEmptyMealPlan     = errors.New("no text found in AI response")
)

/* =================================================================================
							DIETARY PREFERENCE
=================================================================================*/

// DietaryPreference is one of a closed set of three options.
type DietaryPreference string

const (
	NoPreference DietaryPreference = "No preference"
	Vegetarian   DietaryPreference = "Vegetarian"
	Vegan        DietaryPreference = "Vegan"
)

// DietaryPreferences returns the options in display order.
func DietaryPreferences() []DietaryPreference {
	return []DietaryPreference{NoPreference, Vegetarian, Vegan}
}

// Key is the snake-case identifier used by API clients.
func (p DietaryPreference) Key() string {
	return strings.ReplaceAll(strings.ToLower(string(p)), " ", "_")
}

// Valid reports whether p is one of the three options.
func (p DietaryPreference) Valid() bool {
	for _, opt := range DietaryPreferences() {
		if p == opt {
			return true
		}
	}
	return false
}

// ParseDietaryPreference accepts either the display label (any case) or its key.
func ParseDietaryPreference(s string) (DietaryPreference, error) {
	s = strings.TrimSpace(s)
	for _, opt := range DietaryPreferences() {
		if strings.EqualFold(s, string(opt)) || s == opt.Key() {
			return opt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPreference, s)
}

/* =================================================================================
							REQUEST
=================================================================================*/

// MealPlanRequest carries the four user-supplied values.
type MealPlanRequest struct {
	FastingLevel      float64
	PreMealLevel      float64
	PostMealLevel     float64
	DietaryPreference DietaryPreference
}

// Validate only checks the shape of the input; clinical ranges are not judged.
func (r MealPlanRequest) Validate() error {
	readings := []struct {
		name  string
		value float64
	}{
		{"fasting", r.FastingLevel},
		{"pre-meal", r.PreMealLevel},
		{"post-meal", r.PostMealLevel},
	}
	for _, rd := range readings {
		if math.IsNaN(rd.value) || math.IsInf(rd.value, 0) || rd.value < 0 {
			return fmt.Errorf("%w: %s level %v", ErrInvalidReading, rd.name, rd.value)
		}
	}
	if !r.DietaryPreference.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPreference, string(r.DietaryPreference))
	}
	return nil
}

// BuildMealPlanPrompt substitutes the request into UserPromptTemplate.
func BuildMealPlanPrompt(r MealPlanRequest) string {
	return fmt.Sprintf(
		UserPromptTemplate,
		formatLevel(r.FastingLevel),
		formatLevel(r.PreMealLevel),
		formatLevel(r.PostMealLevel),
		r.DietaryPreference,
	)
}

// formatLevel prints the shortest exact form: 120, not 120.000000.
func formatLevel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
