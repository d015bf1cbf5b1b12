package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/grant-review/internal/analysis"
	"github.com/sells-group/grant-review/internal/api"
	"github.com/sells-group/grant-review/internal/perspective"
	"github.com/sells-group/grant-review/internal/vote"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a submission through several reviewer perspectives",
	Long: `Runs one review per perspective, synthesizes them and optionally recommends a vote.

Input is either --text or --file. A JSON file holding an object with
"program"/"answers"/"criteria" keys is treated as a structured submission;
anything else is analyzed as free text.

Examples:
  analyze --text "We will build an open indexer..." --perspective technical --perspective economic
  analyze --file proposal.md --vote --submission-id prop-42
  analyze --file submission.json --vote-options for,against,abstain`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.String("text", "", "submission text")
	f.String("file", "", "read the submission from a file (- for stdin)")
	f.StringSlice("perspective", nil, "predefined perspective name (repeatable; default from config)")
	f.String("perspectives-file", "", "YAML perspective set (overrides --perspective)")
	f.Bool("vote", false, "also synthesize a vote recommendation")
	f.StringSlice("vote-options", nil, "allowed votes (implies --vote; default from config)")
	f.String("submission-id", "", "submission identifier carried into the vote (implies --vote)")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("analyze"); err != nil {
		return err
	}

	f := cmd.Flags()
	text, _ := f.GetString("text")
	file, _ := f.GetString("file")
	raw, err := readSubmission(text, file, cmd.InOrStdin())
	if err != nil {
		return err
	}

	env, err := initEnv(ctx, false)
	if err != nil {
		return err
	}
	defer env.Close()

	perspectives := env.Perspectives
	if path, _ := f.GetString("perspectives-file"); path != "" {
		if perspectives, err = perspective.LoadSet(path); err != nil {
			return err
		}
	} else if names, _ := f.GetStringSlice("perspective"); len(names) > 0 {
		specs := make([]any, len(names))
		for i, n := range names {
			specs[i] = n
		}
		perspectives = perspective.Resolve(specs...)
	}

	analyzer, err := analysis.New(env.Generator.WithPhase("analysis"), env.Parser, perspectives,
		analysis.WithConcurrency(cfg.Analysis.Concurrency),
		analysis.WithSynthesisGenerator(env.Generator.WithPhase("synthesis")),
	)
	if err != nil {
		return err
	}

	out := api.AnalyzeResponse{MultiPerspectiveResult: analyzer.Analyze(ctx, raw)}

	wantVote, _ := f.GetBool("vote")
	options, _ := f.GetStringSlice("vote-options")
	submissionID, _ := f.GetString("submission-id")
	if wantVote || len(options) > 0 || submissionID != "" {
		if len(options) == 0 {
			options = cfg.Vote.Options
		}
		rec := vote.NewSynthesizer(env.Generator.WithPhase("vote")).Synthesize(ctx, out.MultiPerspectiveResult, options, submissionID)
		out.Vote = &rec
	}

	zap.L().Info("analyze complete",
		zap.String("consensus", string(out.Consensus)),
		zap.String("dominant", out.DominantPerspective),
	)
	return writeJSONOut(cmd.OutOrStdout(), out)
}

// readSubmission returns the analysis input from --text or --file. JSON
// objects are decoded so structured submissions reach the parser intact.
func readSubmission(text, file string, stdin io.Reader) (any, error) {
	if text != "" && file != "" {
		return nil, eris.New("use either --text or --file, not both")
	}
	if text != "" {
		return text, nil
	}
	if file == "" {
		return nil, eris.New("--text or --file is required")
	}

	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read submission %s", file)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			return obj, nil
		}
	}
	if trimmed == "" {
		return nil, eris.Errorf("submission %s is empty", file)
	}
	return string(data), nil
}

func writeJSONOut(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "write output")
}
