package main

import (
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/hybrid"
)

func newRecommendCmd(c *cli) *cobra.Command {
	var (
		userID int64
		itemID string
		topN   int
		sc     string
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print one hybrid recommendation as JSON",
		Example: `  hybridrec recommend --user 7 --item prd_001
  hybridrec recommend --user 7 --item prd_001 --top-n 5 --scene homepage`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, c.settings, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.warmup(ctx, false); err != nil {
				return err
			}

			res := a.recommender.Recommend(ctx, hybrid.Request{
				UserID:       strconv.FormatInt(userID, 10),
				AnchorItemID: itemID,
				TopN:         topN,
				Scene:        sc,
			})
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"anchor_item_id":  res.AnchorItemID,
				"scene":           res.Scene,
				"recommendations": res.IDs(),
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&itemID, "item", "", "anchor product id")
	cmd.Flags().IntVar(&topN, "top-n", 0, "number of recommendations (default hybrid.default_top_n)")
	cmd.Flags().StringVar(&sc, "scene", "", "scene: detail / cart / homepage (default hybrid.default_scene)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}
