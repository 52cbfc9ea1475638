package main

import (
	"fmt"

	"github.com/Yasuno-5555/investidabh/internal/usecase"
	"github.com/Yasuno-5555/investidabh/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the command that re-hashes a stored artifact.
func NewVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <storage-path> <sha256>",
		Short: "Check a stored artifact against its recorded digest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			objects, err := newObjectStore(cfg)
			if err != nil {
				return err
			}
			store := usecase.NewArtifactStore(objects, nil, metrics.New(prometheus.NewRegistry()), log)
			if err := store.Verify(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK %s\n", args[0])
			return nil
		},
	}
}
