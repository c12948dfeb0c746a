package cli

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mosaicview/mosaic/pkg/query"
	"github.com/mosaicview/mosaic/pkg/store/mongostore"
)

// seedCommand creates the seed command, which fills the asset store with
// synthetic assets for development.
func (c *CLI) seedCommand() *cobra.Command {
	var (
		count  int
		months int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert synthetic assets into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if count <= 0 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			if months <= 0 {
				months = 1
			}

			store, err := mongostore.New(ctx, mongostore.Config{
				URI:        cfg.Mongo.URI,
				Database:   cfg.Mongo.Database,
				Collection: cfg.Mongo.Collection,
			}, c.Logger)
			if err != nil {
				return fmt.Errorf("connect asset store: %w", err)
			}
			defer func() { _ = store.Close(ctx) }()

			p := newProgress(c.Logger)
			assets := syntheticAssets(count, months)
			if err := store.Insert(ctx, assets...); err != nil {
				printError("seed failed: %v", err)
				return err
			}
			p.done("seed complete")

			printSuccess("inserted %d assets", len(assets))
			printDetail("spread over %d months ending %s", months, time.Now().UTC().Format("2006-01"))
			printKeyValue("database", cfg.Mongo.Database)
			printKeyValue("collection", cfg.Mongo.Collection)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1000, "number of assets to insert")
	cmd.Flags().IntVar(&months, "months", 12, "number of calendar months to spread assets over")
	return cmd
}

// syntheticAssets generates count assets with photography-like aspect ratios,
// timestamps spread evenly across the trailing months.
func syntheticAssets(count, months int) []query.Asset {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ratios := []float64{0.66, 0.75, 1.0, 1.33, 1.5, 1.78}
	now := time.Now().UTC()

	assets := make([]query.Asset, count)
	for i := range assets {
		monthsBack := i % months
		taken := now.AddDate(0, -monthsBack, 0).Add(-time.Duration(rng.Intn(20*24)) * time.Hour)
		assets[i] = query.Asset{
			ID:      uuid.NewString(),
			Ratio:   ratios[rng.Intn(len(ratios))],
			TakenAt: taken,
			Title:   fmt.Sprintf("seed asset %05d", i),
			Visible: true,
		}
	}
	return assets
}
