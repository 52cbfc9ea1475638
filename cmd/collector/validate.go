package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCmd creates the command that runs URLs through the SSRF checks without collecting them.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <url>...",
		Short: "Check whether URLs would be accepted for collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			validator := newValidator(cfg, log)
			rejected := 0
			for _, u := range args {
				if err := validator.Validate(cmd.Context(), u); err != nil {
					rejected++
					fmt.Fprintf(cmd.OutOrStdout(), "REJECT %s: %v\n", u, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ALLOW  %s\n", u)
			}
			if rejected > 0 {
				return fmt.Errorf("%d of %d urls rejected", rejected, len(args))
			}
			return nil
		},
	}
}
