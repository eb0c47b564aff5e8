package claudeservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// MessageCreator is the part of the Messages API the service needs.
type MessageCreator interface {
	CreateMessage(ctx context.Context, payload MessagePayload) (*MessageResponse, error)
}

// Service turns a MealPlanRequest into meal plan text.
// It holds no per-request state; every call is a fresh round trip.
type Service struct {
	client MessageCreator
}

func NewService(client MessageCreator) *Service {
	return &Service{client: client}
}

// GenerateMealPlan is the main entry point to this package.
// It validates the inputs, builds the prompt, makes one API call and
// returns the concatenated text of the response.
func (s *Service) GenerateMealPlan(ctx context.Context, log *zerolog.Logger, req MealPlanRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	payload := NewMealPlanPayload(BuildMealPlanPrompt(req))

	log.Info().
		Float64("fasting_level", req.FastingLevel).
		Float64("pre_meal_level", req.PreMealLevel).
		Float64("post_meal_level", req.PostMealLevel).
		Str("dietary_preference", string(req.DietaryPreference)).
		Str("model", payload.Model).
		Msg("Calling Anthropic API for meal plan")

	start := time.Now()
	resp, err := s.client.CreateMessage(ctx, payload)
	if err != nil {
		log.Error().Err(err).Dur("latency", time.Since(start)).Msg("Meal plan request failed")
		return "", fmt.Errorf("failed to generate meal plan: %w", err)
	}

	mealPlan, err := ExtractMealPlan(resp)
	if err != nil {
		log.Warn().Err(err).Str("stop_reason", resp.StopReason).Msg("Meal plan response had no usable text")
		return "", err
	}

	log.Info().
		Dur("latency", time.Since(start)).
		Int("input_tokens", resp.Usage.InputTokens).
		Int("output_tokens", resp.Usage.OutputTokens).
		Str("stop_reason", resp.StopReason).
		Msg("Successfully generated meal plan")

	return mealPlan, nil
}

// NewMealPlanPayload wraps a user prompt with the fixed model parameters.
func NewMealPlanPayload(userPrompt string) MessagePayload {
	return MessagePayload{
		Model:       MealPlanModel,
		MaxTokens:   MealPlanMaxTokens,
		Temperature: MealPlanTemperature,
		System:      SystemPrompt,
		Messages: []Message{
			{Role: "user", Content: userPrompt},
		},
	}
}

// ExtractMealPlan joins every text-bearing segment, in response order, with newlines.
func ExtractMealPlan(resp *MessageResponse) (string, error) {
	if resp == nil || resp.Content == nil {
		return NoContentMessage, nil
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Text != nil {
			parts = append(parts, *block.Text)
		}
	}

	mealPlan := strings.Join(parts, "\n")
	if strings.TrimSpace(mealPlan) == "" {
		return "", ErrEmptyMealPlan
	}
	return mealPlan, nil
}
