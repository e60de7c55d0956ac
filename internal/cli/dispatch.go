package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mseiser/SelfMemo2/internal/logger"
	"github.com/mseiser/SelfMemo2/internal/mailer"
	"github.com/mseiser/SelfMemo2/internal/models"
	"github.com/mseiser/SelfMemo2/internal/repositories"
	"github.com/mseiser/SelfMemo2/internal/services"
	"github.com/spf13/cobra"
)

// Dispatcher runs a dispatcher pass
type Dispatcher interface {
	Dispatch(ctx context.Context, now time.Time) (*models.DispatchReport, error)
}

// NewDispatchCommand creates the dispatch command.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Run one dispatcher pass",
		Long: `Run one dispatcher pass against the configured database.

Events due in the minute of --at (default now) are claimed, sent by email
and their reminders regenerated. The Redis index is not updated, the
scheduler restores it from the database on its next tick.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseInstant(at)
			if err != nil {
				return err
			}

			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			return runDispatch(cmd.Context(), rootOpts, newDispatchService(env), now, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "instant of the pass in RFC3339 (default now)")

	return cmd
}

func newDispatchService(env *environment) Dispatcher {
	reminderRepo := repositories.NewReminderRepository(env.db)
	scheduledRepo := repositories.NewScheduledReminderRepository(env.db)

	scheduledService := services.NewScheduledReminderService(scheduledRepo, nil, env.cfg.Location, logger.Logger)
	notificationService := services.NewNotificationService(
		repositories.NewUserRepository(env.db),
		repositories.NewEmailTemplateRepository(env.db),
		reminderRepo,
		mailer.NewSMTPMailer(env.cfg.SMTP),
		env.cfg.AppURL,
		env.cfg.Location,
		logger.Logger,
	)

	return services.NewDispatchService(
		reminderRepo,
		scheduledRepo,
		scheduledService,
		notificationService,
		nil,
		services.DispatchOptions{
			Workers:  env.cfg.Dispatch.Workers,
			CatchUp:  env.cfg.Dispatch.CatchUp,
			Location: env.cfg.Location,
		},
		logger.Logger,
	)
}

func runDispatch(ctx context.Context, rootOpts *RootOptions, dispatcher Dispatcher, now time.Time, w io.Writer) error {
	report, err := dispatcher.Dispatch(ctx, now)
	if err != nil {
		return fmt.Errorf("dispatch failed: %w", err)
	}

	if rootOpts.Format == "json" {
		return writeJSON(w, report)
	}

	fmt.Fprintf(w, "dispatch at %s: %d due, %d sent, %d failed, %d skipped, %d missed\n",
		report.At.Format(time.RFC3339), report.Due, report.Sent, report.Failed, report.Skipped, report.Missed)
	for _, o := range report.Outcomes {
		line := fmt.Sprintf("  event %d (reminder %d) %s", o.ScheduledReminderID, o.ReminderID, o.Status)
		if o.Regenerated {
			line += ", regenerated"
		}
		if o.Error != "" {
			line += ": " + o.Error
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// parseInstant parses an RFC3339 flag value, empty means now
func parseInstant(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid instant %q: %w", value, err)
	}
	return t, nil
}
