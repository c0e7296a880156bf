package cli

import (
	"context"
	"fmt"
	"strings"

	"fxengine/internal/app"
	"fxengine/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	convertAmount string
	convertFrom   string
	convertTo     string
	convertDate   string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert an amount between two supported currencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(convertAmount)
		if err != nil {
			return fmt.Errorf("invalid --amount value: %w", err)
		}
		date, err := domain.ParseDate(convertDate)
		if err != nil {
			return fmt.Errorf("invalid --date value: %w", err)
		}
		from, to := strings.ToUpper(convertFrom), strings.ToUpper(convertTo)

		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			conv, err := a.Engine().ConvertWithDetails(ctx, amount, from, to, date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s = %s %s (%s)\n",
				conv.Amount.String(), conv.From, conv.Result.String(), conv.To, domain.FormatDate(conv.Date))
			for _, w := range conv.Warnings {
				fmt.Fprintf(out, "  [%s] %s: %s\n", w.Severity, w.Code, w.Message)
			}
			return nil
		})
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertAmount, "amount", "", "Amount to convert")
	convertCmd.Flags().StringVar(&convertFrom, "from", "", "Source currency")
	convertCmd.Flags().StringVar(&convertTo, "to", "", "Target currency")
	convertCmd.Flags().StringVar(&convertDate, "date", "", "Booking date (YYYY-MM-DD)")
	_ = convertCmd.MarkFlagRequired("amount")
	_ = convertCmd.MarkFlagRequired("from")
	_ = convertCmd.MarkFlagRequired("to")
	_ = convertCmd.MarkFlagRequired("date")
}
