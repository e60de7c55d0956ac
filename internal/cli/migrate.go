package cli

import (
	"fmt"

	"github.com/mseiser/SelfMemo2/internal/database"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply pending database migrations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = database.MigrationsDir()
			}

			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			if err := database.Migrate(env.db, env.cfg.Database.Driver, dir); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(w, map[string]string{"status": "ok", "driver": env.cfg.Database.Driver})
			}
			_, err = fmt.Fprintf(w, "migrations applied (%s)\n", env.cfg.Database.Driver)
			return err
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory with one subdirectory per driver")

	return cmd
}
