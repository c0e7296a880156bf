package cli

import (
	"context"
	"fmt"
	"time"

	"fxengine/internal/app"
	"fxengine/internal/domain"
	"fxengine/internal/platform/db"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	refreshDays    int
	backfillFrom   string
	backfillTo     string
	volatilityDays int
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the trailing window of days from the provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		if refreshDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			n, err := a.Engine().Refresh(ctx, refreshDays)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d day(s)\n", n)
			return nil
		})
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Ingest every day in an inclusive date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := parseDayRange(backfillFrom, backfillTo)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			summary, err := a.Engine().Backfill(ctx, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s..%s: %d day(s), %d inserted, %d updated, %d failed\n",
				domain.FormatDate(summary.Start), domain.FormatDate(summary.End),
				summary.Days, summary.Inserted, summary.Updated, summary.FailedDays)
			return nil
		})
	},
}

var volatilityCmd = &cobra.Command{
	Use:   "volatility",
	Short: "Print per-quote rate statistics over a trailing window",
	RunE: func(cmd *cobra.Command, args []string) error {
		if volatilityDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			stats, err := a.Engine().Volatility(ctx, volatilityDays)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range stats {
				if s.StdDev == nil {
					fmt.Fprintf(out, "%s\tn=%d\tno data\n", s.Quote, s.SampleSize)
					continue
				}
				fmt.Fprintf(out, "%s\tn=%d\tmean=%s\tstddev=%s\tmin=%s\tmax=%s\n",
					s.Quote, s.SampleSize, s.Mean.String(), s.StdDev.String(), s.Min.String(), s.Max.String())
			}
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := app.OpenDB(cmd.Context(), appCfg.DbServer)
		if err != nil {
			return err
		}
		defer pool.Close()
		version, err := db.Version(cmd.Context(), pool)
		if err != nil {
			return err
		}
		logrus.Infof("✅ Schema at version %d", version)
		return nil
	},
}

// parseDayRange validates an inclusive YYYY-MM-DD range.
func parseDayRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	if rawFrom == "" || rawTo == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--from and --to must be provided")
	}
	from, err := domain.ParseDate(rawFrom)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from value: %w", err)
	}
	to, err := domain.ParseDate(rawTo)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to value: %w", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from must not be after --to")
	}
	return from, to, nil
}

func init() {
	refreshCmd.Flags().IntVar(&refreshDays, "days", 7, "Number of trailing days to fetch")
	backfillCmd.Flags().StringVar(&backfillFrom, "from", "", "First day (YYYY-MM-DD, inclusive)")
	backfillCmd.Flags().StringVar(&backfillTo, "to", "", "Last day (YYYY-MM-DD, inclusive)")
	volatilityCmd.Flags().IntVar(&volatilityDays, "days", 30, "Window length in days")
}
