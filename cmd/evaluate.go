package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score participant answers against a form's criteria",
	Long: `Scores one or more participants of a form, one model call per criterion, and
stores each aggregated score.

Examples:
  evaluate --org org-1 --form form-1 --user u-1
  evaluate --org org-1 --form form-1 --user u-1 --user u-2 --team t-9`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.String("org", "", "organization ID")
	f.String("form", "", "form ID")
	f.StringSlice("user", nil, "participant user ID (repeatable; several users run as a batch)")
	f.String("team", "", "optional team ID")
	_ = evaluateCmd.MarkFlagRequired("org")
	_ = evaluateCmd.MarkFlagRequired("form")
	_ = evaluateCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("evaluate"); err != nil {
		return err
	}

	f := cmd.Flags()
	orgID, _ := f.GetString("org")
	formID, _ := f.GetString("form")
	users, _ := f.GetStringSlice("user")
	teamID, _ := f.GetString("team")
	if len(users) == 0 {
		return eris.New("at least one --user is required")
	}

	env, err := initEnv(ctx, true)
	if err != nil {
		return err
	}
	defer env.Close()

	log := zap.L().With(zap.String("command", "evaluate"), zap.String("form_id", formID))

	if len(users) == 1 {
		score, err := env.Engine.EvaluateSubmission(ctx, orgID, formID, users[0], teamID)
		if err != nil {
			return err
		}
		log.Info("evaluation complete",
			zap.Float64("normalized_score", score.NormalizedScore),
			zap.Int("errors", score.ErrorCount()),
		)
		return writeJSONOut(cmd.OutOrStdout(), score)
	}

	scores := env.Engine.EvaluateBatch(ctx, orgID, formID, users, teamID)
	log.Info("batch evaluation complete", zap.Int("users", len(scores)))
	return writeJSONOut(cmd.OutOrStdout(), scores)
}
