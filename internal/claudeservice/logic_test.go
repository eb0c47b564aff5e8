package claudeservice

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCreator struct {
	calls    int
	payloads []MessagePayload
	resp     *MessageResponse
	err      error
}

func (s *stubCreator) CreateMessage(_ context.Context, p MessagePayload) (*MessageResponse, error) {
	s.calls++
	s.payloads = append(s.payloads, p)
	return s.resp, s.err
}

func validRequest() MealPlanRequest {
	return MealPlanRequest{
		FastingLevel:      110,
		PreMealLevel:      95.5,
		PostMealLevel:     160,
		DietaryPreference: Vegetarian,
	}
}

func TestBuildMealPlanPrompt(t *testing.T) {
	want := "A patient with the following details needs a personalized meal plan:\n" +
		"- Fasting sugar level: 110 mg/dL\n" +
		"- Pre-meal sugar level: 95.5 mg/dL\n" +
		"- Post-meal sugar level: 160 mg/dL\n" +
		"- Dietary preference: Vegetarian\n\n" +
		"Please provide a personalized meal plan that considers these factors."

	assert.Equal(t, want, BuildMealPlanPrompt(validRequest()))
}

func TestBuildMealPlanPrompt_Zero(t *testing.T) {
	prompt := BuildMealPlanPrompt(MealPlanRequest{DietaryPreference: NoPreference})
	assert.Contains(t, prompt, "- Fasting sugar level: 0 mg/dL\n")
	assert.Contains(t, prompt, "- Dietary preference: No preference\n")
}

func TestMealPlanRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*MealPlanRequest)
		wantErr error
	}{
		{"valid", func(*MealPlanRequest) {}, nil},
		{"all zero", func(r *MealPlanRequest) { *r = MealPlanRequest{DietaryPreference: Vegan} }, nil},
		{"very high reading is accepted", func(r *MealPlanRequest) { r.PostMealLevel = 900 }, nil},
		{"negative fasting", func(r *MealPlanRequest) { r.FastingLevel = -1 }, ErrInvalidReading},
		{"negative pre-meal", func(r *MealPlanRequest) { r.PreMealLevel = -0.5 }, ErrInvalidReading},
		{"NaN post-meal", func(r *MealPlanRequest) { r.PostMealLevel = math.NaN() }, ErrInvalidReading},
		{"infinite", func(r *MealPlanRequest) { r.FastingLevel = math.Inf(1) }, ErrInvalidReading},
		{"empty preference", func(r *MealPlanRequest) { r.DietaryPreference = "" }, ErrUnknownPreference},
		{"unknown preference", func(r *MealPlanRequest) { r.DietaryPreference = "Keto" }, ErrUnknownPreference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseDietaryPreference(t *testing.T) {
	tests := []struct {
		in   string
		want DietaryPreference
	}{
		{"No preference", NoPreference},
		{"no preference", NoPreference},
		{"no_preference", NoPreference},
		{" Vegetarian ", Vegetarian},
		{"vegetarian", Vegetarian},
		{"VEGAN", Vegan},
	}
	for _, tt := range tests {
		got, err := ParseDietaryPreference(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseDietaryPreference("pescatarian")
	assert.ErrorIs(t, err, ErrUnknownPreference)
}

func TestDietaryPreferences_Order(t *testing.T) {
	assert.Equal(t, []DietaryPreference{NoPreference, Vegetarian, Vegan}, DietaryPreferences())
	assert.Equal(t, "no_preference", NoPreference.Key())
}

func TestExtractMealPlan(t *testing.T) {
	t.Run("joins text segments in order", func(t *testing.T) {
		resp := &MessageResponse{Content: []ContentBlock{
			{Type: "text", Text: textPtr("Day 1")},
			{Type: "tool_use"},
			{Type: "text", Text: textPtr("Day 2")},
		}}
		got, err := ExtractMealPlan(resp)
		require.NoError(t, err)
		assert.Equal(t, "Day 1\nDay 2", got)
	})

	t.Run("empty text segments still take a slot", func(t *testing.T) {
		resp := &MessageResponse{Content: []ContentBlock{
			{Type: "text", Text: textPtr("A")},
			{Type: "text", Text: textPtr("")},
			{Type: "text", Text: textPtr("B")},
		}}
		got, err := ExtractMealPlan(resp)
		require.NoError(t, err)
		assert.Equal(t, "A\n\nB", got)
	})

	t.Run("missing content list", func(t *testing.T) {
		got, err := ExtractMealPlan(&MessageResponse{})
		require.NoError(t, err)
		assert.Equal(t, NoContentMessage, got)

		got, err = ExtractMealPlan(nil)
		require.NoError(t, err)
		assert.Equal(t, NoContentMessage, got)
	})

	t.Run("no text at all", func(t *testing.T) {
		_, err := ExtractMealPlan(&MessageResponse{Content: []ContentBlock{}})
		assert.ErrorIs(t, err, ErrEmptyMealPlan)

		_, err = ExtractMealPlan(&MessageResponse{Content: []ContentBlock{{Type: "tool_use"}}})
		assert.ErrorIs(t, err, ErrEmptyMealPlan)
	})
}

func TestService_GenerateMealPlan(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("success", func(t *testing.T) {
		stub := &stubCreator{resp: &MessageResponse{
			Content:    []ContentBlock{{Type: "text", Text: textPtr("Eat greens")}},
			StopReason: "end_turn",
		}}
		svc := NewService(stub)

		plan, err := svc.GenerateMealPlan(context.Background(), &logger, validRequest())
		require.NoError(t, err)
		assert.Equal(t, "Eat greens", plan)

		require.Equal(t, 1, stub.calls)
		p := stub.payloads[0]
		assert.Equal(t, MealPlanModel, p.Model)
		assert.Equal(t, SystemPrompt, p.System)
		assert.Equal(t, BuildMealPlanPrompt(validRequest()), p.Messages[0].Content)
	})

	t.Run("invalid input never reaches the API", func(t *testing.T) {
		stub := &stubCreator{}
		svc := NewService(stub)

		req := validRequest()
		req.FastingLevel = -5
		_, err := svc.GenerateMealPlan(context.Background(), &logger, req)
		assert.ErrorIs(t, err, ErrInvalidReading)
		assert.Zero(t, stub.calls)
	})

	t.Run("API failure is wrapped", func(t *testing.T) {
		apiErr := &APIError{StatusCode: 401, Type: "authentication_error", Message: "invalid x-api-key"}
		svc := NewService(&stubCreator{err: apiErr})

		_, err := svc.GenerateMealPlan(context.Background(), &logger, validRequest())
		require.Error(t, err)
		var got *APIError
		require.True(t, errors.As(err, &got))
		assert.Equal(t, 401, got.StatusCode)
	})

	t.Run("empty response", func(t *testing.T) {
		svc := NewService(&stubCreator{resp: &MessageResponse{Content: []ContentBlock{}}})

		_, err := svc.GenerateMealPlan(context.Background(), &logger, validRequest())
		assert.ErrorIs(t, err, ErrEmptyMealPlan)
	})
}

func TestService_GenerateMealPlan_NoMemoization(t *testing.T) {
	var calls atomic.Int32
	_, client := newStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"plan"}]}`))
	})
	svc := NewService(client)
	logger := zerolog.Nop()

	for i := 0; i < 3; i++ {
		plan, err := svc.GenerateMealPlan(context.Background(), &logger, validRequest())
		require.NoError(t, err)
		assert.Equal(t, "plan", plan)
	}
	assert.Equal(t, int32(3), calls.Load(), "identical requests must each reach the API")
}
