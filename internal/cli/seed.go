package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-survey-backend/internal/services"
	"github.com/tbourn/go-survey-backend/internal/storage"
)

func (a *app) seedCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert synthetic test submissions (test mode only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n := count
			if !cmd.Flags().Changed("count") {
				n = a.cfg.Survey.SeedCount
			}
			return a.withStore(cmd.Context(), func(store storage.Backend) error {
				svc := services.NewSeedService(store, a.cfg.Survey.TestMode)
				res, err := svc.Generate(cmd.Context(), n)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "requested %d, inserted %d, failed %d\n",
					res.Requested, res.Inserted, res.Failed)
				if res.Err != nil {
					log.Warn().Err(res.Err).Int("failed", res.Failed).Msg("some test records were not stored")
					if res.Inserted == 0 {
						return res.Err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", services.DefaultSeedCount, "number of records to insert")
	return cmd
}
