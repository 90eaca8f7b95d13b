package main

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newRebuildCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild latent factors, content features, popularity and catalog into the store",
		Long: `Load products (data.postgres_dsn or data.products_file) and ratings (data.ratings_file),
train the collaborative model, compute TF-IDF content features and write everything to the
configured store. With the memory backend the result is discarded when the command exits, so
this is mostly useful with store.backend=redis.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), c.settings, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.rebuilder == nil {
				return errors.New("nothing to rebuild: set data.postgres_dsn or data.products_file")
			}
			stats, err := a.rebuilder.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}
