package main

import (
	"github.com/spf13/cobra"

	"csvtable/internal/probe"
)

func newProbeCommand(g *globalOptions) *cobra.Command {
	o := probe.Options{}

	cmd := &cobra.Command{
		Use:   "probe FILE|URL",
		Short: "Infer column types from the head of a file or URL",
		Long: `probe reads the first --bytes of the input, cuts the last partial line,
parses the sample leniently and prints one "title",type,nullable line per
column, or with --json a job configuration for the load command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delim, err := g.delim()
			if err != nil {
				return err
			}
			o.Location = args[0]
			o.Delimiter = delim
			o.Encoding = g.encoding

			res, err := probe.Probe(cmd.Context(), o)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(res.Body)
			return err
		},
	}

	f := cmd.Flags()
	f.IntVar(&o.MaxBytes, "bytes", probe.DefaultMaxBytes, "number of bytes to sample")
	f.BoolVarP(&o.HasTitleRow, "title-row", "t", true, "first line holds the column titles; on by default here, unlike parse")
	f.StringVar(&o.Name, "name", "data_set", "job and table name of the generated configuration")
	f.StringVar(&o.Backend, "backend", "postgres", "storage kind of the generated configuration")
	f.BoolVar(&o.OutputJSON, "json", false, "print a job configuration instead of column lines")
	f.BoolVar(&o.SaveSample, "save", false, "write the sample to <name>.csv")
	f.BoolVar(&o.AllowInsecureTLS, "insecure", false, "skip TLS verification for https URLs")
	return cmd
}
