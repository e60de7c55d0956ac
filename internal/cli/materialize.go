package cli

import (
	"fmt"

	"github.com/mseiser/SelfMemo2/internal/logger"
	"github.com/mseiser/SelfMemo2/internal/repositories"
	"github.com/mseiser/SelfMemo2/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// MaterializeResult is the result of the materialize command
type MaterializeResult struct {
	Reminders int `json:"reminders"`
	Created   int `json:"created"`
}

// NewMaterializeCommand creates the materialize command.
func NewMaterializeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		at      string
		rebuild bool
	)

	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Materialize the next cycle of every reminder",
		Long: `Materialize the next cycle of every reminder from --at (default now).

Existing events are kept, so running it twice creates nothing new.
With --rebuild the pending events of each reminder are deleted first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reference, err := parseInstant(at)
			if err != nil {
				return err
			}

			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := cmd.Context()
			reminders, err := repositories.NewReminderRepository(env.db).GetAll(ctx)
			if err != nil {
				return err
			}

			scheduledService := services.NewScheduledReminderService(
				repositories.NewScheduledReminderRepository(env.db), nil, env.cfg.Location, logger.Logger)

			result := MaterializeResult{Reminders: len(reminders)}
			if rebuild {
				for i := range reminders {
					created, err := scheduledService.Rebuild(ctx, &reminders[i], reference)
					result.Created += len(created)
					if err != nil {
						logger.Logger.Warn("Failed to rebuild reminder",
							zap.Int("reminder_id", reminders[i].ID),
							zap.Error(err))
					}
				}
			} else {
				created, err := scheduledService.MaterializeAll(ctx, reminders, reference)
				if err != nil {
					return err
				}
				result.Created = created
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(w, result)
			}
			_, err = fmt.Fprintf(w, "materialized %d events for %d reminders\n", result.Created, result.Reminders)
			return err
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "reference instant in RFC3339 (default now)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "delete pending events before materializing")

	return cmd
}
