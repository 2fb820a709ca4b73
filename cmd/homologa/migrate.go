package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/homologa-digital/homologa/internal/cli"
	"github.com/homologa-digital/homologa/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()

			// initStorage migrates on open; this command exists so the step
			// can be run explicitly in provisioning scripts.
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Database schema at version %d", storage.ExpectedSchemaVersion)))
			return nil
		},
	}
}
