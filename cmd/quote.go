package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sljivkov/dextick/chains"
	"github.com/sljivkov/dextick/domain"
	"github.com/sljivkov/dextick/observer"
	"github.com/sljivkov/dextick/tickmath"
)

var flagTimeout *time.Duration

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Run one observation pass and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log := cfg.Logger()

		ctx, cancel := context.WithTimeout(cmd.Context(), *flagTimeout)
		defer cancel()

		client, err := chains.Dial(ctx, cfg.RPCURL, log)
		if err != nil {
			return err
		}
		defer client.Close()

		dial := func(context.Context) (domain.PoolReader, error) { return nopCloser{client}, nil }

		obs, err := observer.New(cfg.Pool, cfg.Window(), dial, func(domain.Update) {}, observer.WithLogger(log))
		if err != nil {
			return err
		}

		update, err := obs.Snapshot(ctx)
		if err != nil {
			return err
		}

		pair := obs.Pool().Hex()
		if info, err := client.Info(ctx, obs.Pool()); err == nil {
			pair = info.Pair()
		}

		printQuote(cmd.OutOrStdout(), pair, update, cfg.Precision)

		return nil
	},
}

func init() {
	flagTimeout = quoteCmd.Flags().DurationP("timeout", "t", 30*time.Second, "Deadline for the whole quote")
	rootCmd.AddCommand(quoteCmd)
}

// nopCloser keeps the shared client open when the observer closes its reader
type nopCloser struct {
	*chains.UniswapClient
}

func (nopCloser) Close() {}

func printQuote(w io.Writer, pair string, update domain.Update, precision int32) {
	fmt.Fprintf(w, "%s\n", pair)

	if update.HasCurrentPrice {
		fmt.Fprintf(w, "current   tick %-8d price %s\n", update.CurrentTick, tickmath.FormatPrice(update.CurrentPrice, precision))
	} else {
		fmt.Fprintln(w, "current   unavailable")
	}

	if !update.HasObservations {
		fmt.Fprintln(w, "window    unavailable")
		return
	}

	for _, p := range update.Observations {
		fmt.Fprintf(w, "%5ds-%-5ds tick %-8s price %s\n",
			p.FromSecondsAgo, p.ToSecondsAgo, p.Tick, tickmath.FormatPrice(p.Price, precision))
	}
}
