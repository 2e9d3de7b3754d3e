package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Skufu/medicheck/internal/app"
	"github.com/Skufu/medicheck/internal/config"
	"github.com/Skufu/medicheck/internal/logging"
	"github.com/Skufu/medicheck/internal/triage"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:          "medicheck",
		Short:        "Symptom triage from the command line",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := "warn"
			if verbose {
				level = "debug"
			}
			logging.Setup(logging.Config{Level: level}, cmd.ErrOrStderr())
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(newClassifyCmd(), newParseCmd(), newAnalyzeCmd(), newVerifyCmd())
	return cmd
}

func newClassifyCmd() *cobra.Command {
	var bundlesFile string

	cmd := &cobra.Command{
		Use:   "classify <symptoms...>",
		Short: "Run the offline keyword classifier",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := triage.LoadBundles(bundlesFile)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), triage.NewClassifier(set).Classify(strings.Join(args, " ")))
		},
	}
	cmd.Flags().StringVar(&bundlesFile, "bundles", os.Getenv("TRIAGE_BUNDLES_FILE"), "YAML bundle table")
	return cmd
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse raw model output from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			raw, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read model output: %w", err)
			}
			r, err := triage.ParseModelOutput(string(raw))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), r)
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var identity, age, gender string

	cmd := &cobra.Command{
		Use:   "analyze <symptoms...>",
		Short: "Run a gated analysis with the configured model and fallback",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			ageGroup, err := triage.ParseAgeGroup(age)
			if err != nil {
				return err
			}
			g, err := triage.ParseGender(gender)
			if err != nil {
				return err
			}
			req := triage.Request{SymptomText: strings.Join(args, " "), AgeGroup: ageGroup, Gender: g}
			r, err := a.Analyzer.Analyze(cmd.Context(), req, identity)
			if reason, ok := triage.IsAccessDenied(err); ok {
				return fmt.Errorf("access denied: %s", reason)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().StringVar(&identity, "identity", "", "GitHub identity checked by the gate")
	cmd.Flags().StringVar(&age, "age", string(triage.AgeAdult), "age group: Child, Teen, Adult or Senior")
	cmd.Flags().StringVar(&gender, "gender", string(triage.GenderOther), "gender: Male, Female or Other")
	_ = cmd.MarkFlagRequired("identity")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <identity>",
		Short: "Ask the access gate about an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), a.Gate.Decide(cmd.Context(), args[0]))
		},
	}
}

func loadApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, log.Logger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
