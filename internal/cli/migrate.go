package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, rootOpts.Fs, appOptions{connect: true})
			if err != nil {
				return err
			}
			defer a.close()

			if !status {
				if err := a.store.Migrate(); err != nil {
					return err
				}
			}
			v, dirty, err := a.store.MigrationVersion()
			if err != nil {
				return err
			}
			state := "clean"
			if dirty {
				state = "dirty"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d (%s)\n", a.store.Engine(), v, state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "only report the applied version")
	return cmd
}
