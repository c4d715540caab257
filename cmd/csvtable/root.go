package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"csvtable/internal/config"
	"csvtable/internal/datasource"
	"csvtable/internal/logging"
	"csvtable/internal/textenc"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	logLevel  string
	logFormat string
	encoding  string
	delimiter string
	envFiles  []string
}

func (g *globalOptions) delim() (rune, error) {
	return config.ParseDelimiter(g.delimiter)
}

// readText reads a file path or http(s) URL and decodes it with --encoding.
func (g *globalOptions) readText(ctx context.Context, loc string, insecure bool) (string, error) {
	raw, err := datasource.ReadAll(ctx, datasource.FromLocation(loc, insecure))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", loc, err)
	}
	text, err := textenc.Decode(raw, g.encoding)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", loc, err)
	}
	return text, nil
}

func newRootCommand() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "csvtable",
		Short: "Parse delimited text into typed tables",
		Long: `csvtable tokenizes delimited text, infers a scalar type per column and
decodes every cell. The result can be printed, turned into a job
configuration, or loaded into postgres, mssql, mysql or sqlite.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadEnv(g.envFiles...); err != nil {
				return err
			}
			logging.Setup(g.logLevel, g.logFormat)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.StringVar(&g.logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&g.encoding, "encoding", "", "text encoding of the input, e.g. windows-1250 (default utf-8)")
	pf.StringVarP(&g.delimiter, "delimiter", "d", ",", `field delimiter; "\t" or tab for tab`)
	pf.StringSliceVar(&g.envFiles, "env-file", nil, "dotenv files to load (default .env)")

	cmd.AddCommand(
		newParseCommand(g),
		newProbeCommand(g),
		newLoadCommand(g),
		newValidateCommand(g),
		newServeCommand(g),
	)
	return cmd
}
