package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/grant-review/internal/model"
	"github.com/sells-group/grant-review/internal/store"
)

// seedFixture is the YAML layout accepted by the seed command:
//
//	form:
//	  id: form-1
//	  org_id: org-1
//	  title: Builders Grant
//	  steps: [...]
//	criteria: [...]
//	submissions:
//	  - user_id: u-1
//	    answers: [{step: 1, field: title, value: Indexer}]
type seedFixture struct {
	Form        model.Form        `yaml:"form"`
	Criteria    []model.Criterion `yaml:"criteria"`
	Submissions []seedSubmission  `yaml:"submissions"`
}

type seedSubmission struct {
	UserID  string         `yaml:"user_id"`
	Answers []model.Answer `yaml:"answers"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a form, its criteria and submissions from a YAML fixture",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("seed"); err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("file")
		fx, err := loadFixture(path)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}
		return applyFixture(ctx, st, fx)
	},
}

func init() {
	seedCmd.Flags().String("file", "", "fixture YAML file")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}

func loadFixture(path string) (*seedFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read fixture %s", path)
	}
	var fx seedFixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, eris.Wrapf(err, "parse fixture %s", path)
	}
	if fx.Form.ID == "" || fx.Form.OrgID == "" {
		return nil, eris.Errorf("fixture %s: form.id and form.org_id are required", path)
	}
	for i, s := range fx.Submissions {
		if s.UserID == "" {
			return nil, eris.Errorf("fixture %s: submissions[%d].user_id is required", path, i)
		}
	}
	return &fx, nil
}

func applyFixture(ctx context.Context, st store.Store, fx *seedFixture) error {
	if err := st.SaveForm(ctx, &fx.Form); err != nil {
		return eris.Wrap(err, "seed form")
	}
	if err := st.SaveCriteria(ctx, fx.Form.OrgID, fx.Form.ID, fx.Criteria); err != nil {
		return eris.Wrap(err, "seed criteria")
	}
	for _, s := range fx.Submissions {
		if err := st.SaveAnswers(ctx, fx.Form.ID, s.UserID, s.Answers); err != nil {
			return eris.Wrapf(err, "seed answers for %s", s.UserID)
		}
	}

	zap.L().Info("seed complete",
		zap.String("form_id", fx.Form.ID),
		zap.Int("criteria", len(fx.Criteria)),
		zap.Int("submissions", len(fx.Submissions)),
	)
	return nil
}
