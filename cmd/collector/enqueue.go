package main

import (
	"fmt"

	redis_adapter "github.com/Yasuno-5555/investidabh/internal/adapter/redis"
	"github.com/Yasuno-5555/investidabh/internal/usecase"
	"github.com/spf13/cobra"
)

// NewEnqueueCmd creates the command that pushes a task onto the primary queue.
func NewEnqueueCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "enqueue <id> <target>",
		Short: "Queue a collection task",
		Long: `Queue a collection task. The target is a URL for the browser path or a
prefixed query: rss:<feed-url>, sns:[mastodon:|twitter:]<query>, git:<user-query>,
infra:<domain>.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			rdb, err := connectRedis(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rdb.Close()

			submitter := usecase.NewTaskSubmitter(
				redis_adapter.NewQueueRepo(rdb, cfg.QueuePollTimeout()),
				redis_adapter.NewSubmissionRepo(rdb),
				log,
			)
			task, err := submitter.Submit(cmd.Context(), args[0], args[1], force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s -> %s\n", task.ID, task.TargetURL)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Queue even if the same task was submitted recently")
	return cmd
}
