package main

import (
	"github.com/spf13/cobra"

	"csvtable/internal/webui"
)

func newServeCommand(_ *globalOptions) *cobra.Command {
	cfg := webui.Config{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP parse and probe API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return webui.NewServer(cfg).ListenAndServe(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", ":8080", "listen address")
	f.Int64Var(&cfg.MaxBodyBytes, "max-body", webui.DefaultMaxBodyBytes, "maximum request body in bytes")
	f.BoolVar(&cfg.AllowRemoteProbe, "remote-probe", false, "allow GET /api/probe?url= to fetch remote files")
	return cmd
}
