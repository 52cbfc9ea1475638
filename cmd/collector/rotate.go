package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Yasuno-5555/investidabh/internal/adapter/proxy"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const torCheckURL = "https://check.torproject.org/api/ip"

// NewRotateCmd creates the command that requests one new anonymity circuit.
func NewRotateCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Request a new exit circuit from the anonymity control port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			var client *http.Client
			if check {
				proxies, err := proxy.NewManager(cfg.ActiveProxy(), outboundTimeout)
				if err != nil {
					return err
				}
				if !proxies.Enabled() {
					return fmt.Errorf("--check needs TOR_PROXY_URL with PROXY_ENABLED or TOR_ROTATION_ENABLED")
				}
				if client, err = proxies.HTTPClient(); err != nil {
					return err
				}
				reportExit(cmd.Context(), cmd.OutOrStdout(), client, "before", log)
			}

			if err := newController(cfg, log).RotateIdentity(cmd.Context()); err != nil {
				return fmt.Errorf("rotation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "identity rotated")

			if check {
				reportExit(cmd.Context(), cmd.OutOrStdout(), client, "after", log)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Print the exit address before and after rotating")
	return cmd
}

type exitStatus struct {
	IsTor bool   `json:"IsTor"`
	IP    string `json:"IP"`
}

func reportExit(ctx context.Context, w io.Writer, client *http.Client, label string, log *zap.Logger) {
	status, err := fetchExit(ctx, client)
	if err != nil {
		log.Warn("exit check failed", zap.String("when", label), zap.Error(err))
		return
	}
	fmt.Fprintf(w, "%s: exit %s (tor: %t)\n", label, status.IP, status.IsTor)
}

func fetchExit(ctx context.Context, client *http.Client) (*exitStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, torCheckURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var status exitStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}
