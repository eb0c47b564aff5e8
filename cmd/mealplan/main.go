package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"Glupulse_MealPlan/internal/claudeservice"
	"Glupulse_MealPlan/internal/config"
	"Glupulse_MealPlan/internal/consultation"
	"Glupulse_MealPlan/internal/utility"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type options struct {
	fasting    float64
	preMeal    float64
	postMeal   float64
	diet       string
	configPath string
	raw        bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "mealplan",
		Short: "Generate a personalized meal plan from blood sugar readings",
		Long: `Sends three blood sugar readings (mg/dL) and a dietary preference to the
Anthropic API and prints the returned meal plan. Every invocation is a new request.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMealPlan(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&opts.fasting, "fasting", 0, "fasting sugar level (mg/dL)")
	flags.Float64Var(&opts.preMeal, "pre-meal", 0, "pre-meal sugar level (mg/dL)")
	flags.Float64Var(&opts.postMeal, "post-meal", 0, "post-meal sugar level (mg/dL)")
	flags.StringVar(&opts.diet, "diet", string(claudeservice.NoPreference), `dietary preference: "No preference", "Vegetarian" or "Vegan"`)
	flags.StringVar(&opts.configPath, "config", "", "optional YAML config file")
	flags.BoolVar(&opts.raw, "raw", false, "print the model output without terminal formatting")

	return cmd
}

func runMealPlan(cmd *cobra.Command, opts *options) error {
	stderr := cmd.ErrOrStderr()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return reportFailure(cmd, err, false)
	}
	utility.ConfigureLogging(cfg.LogLevel, "console", stderr)

	pref, err := claudeservice.ParseDietaryPreference(opts.diet)
	if err != nil {
		return reportFailure(cmd, err, false)
	}

	client := claudeservice.NewClient(cfg.Anthropic.APIKey,
		claudeservice.WithBaseURL(cfg.Anthropic.BaseURL),
		claudeservice.WithTimeout(cfg.Anthropic.Timeout),
	)
	svc := claudeservice.NewService(client)

	mealPlan, err := svc.GenerateMealPlan(cmd.Context(), &log.Logger, claudeservice.MealPlanRequest{
		FastingLevel:      opts.fasting,
		PreMealLevel:      opts.preMeal,
		PostMealLevel:     opts.postMeal,
		DietaryPreference: pref,
	})
	if err != nil {
		inputErr := errors.Is(err, claudeservice.ErrInvalidReading) || errors.Is(err, claudeservice.ErrUnknownPreference)
		return reportFailure(cmd, err, !inputErr)
	}

	doc := "### Your Personalized Meal Plan\n\n" + mealPlan + "\n"
	if opts.raw {
		_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err == nil {
		var out string
		if out, err = renderer.Render(doc); err == nil {
			doc = out
		}
	}
	if err != nil {
		log.Warn().Err(err).Msg("Terminal rendering failed, printing raw text")
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
	return err
}

// reportFailure prints the inline error lines and hands the error back to cobra.
func reportFailure(cmd *cobra.Command, err error, upstream bool) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "An error occurred: %v\n", err)
	if upstream {
		fmt.Fprintln(cmd.ErrOrStderr(), consultation.FailureMessage)
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
