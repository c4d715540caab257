package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"csvtable/internal/config"
	"csvtable/internal/etl"
)

func newLoadCommand(g *globalOptions) *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "load -c JOB.json",
		Short: "Run a job: parse its source and load the rows into storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			job, err := loadJob(cmd.ErrOrStderr(), cfgPath)
			if err != nil {
				return err
			}
			if g.encoding != "" {
				job.Source.Encoding = g.encoding
			}

			flush, err := etl.SetupMetrics(job)
			if err != nil {
				slog.Warn("metrics disabled", "err", err)
			} else {
				defer flush()
			}

			sum, err := etl.Run(cmd.Context(), job)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "job configuration JSON")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newValidateCommand(_ *globalOptions) *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "validate -c JOB.json",
		Short: "Check a job configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loadJob(cmd.ErrOrStderr(), cfgPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid: %s\n", cfgPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "job configuration JSON")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

var errInvalidJob = errors.New("configuration is invalid")

// loadJob decodes and lints a job file, printing every issue to w.
func loadJob(w io.Writer, path string) (config.Job, error) {
	job, err := config.Load(path)
	if err != nil {
		return config.Job{}, err
	}
	issues := config.ValidateJob(job)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return config.Job{}, fmt.Errorf("%s: %w", path, errInvalidJob)
	}
	return job, nil
}
