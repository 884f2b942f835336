package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/events"
	"github.com/rushteam/shoprec/pkg/logging"
)

func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid product id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func newRecordCmd(cfg func() Config) *cobra.Command {
	return &cobra.Command{
		Use:     "record <product-id>...",
		Short:   "Record one order's products as bought together",
		Example: "  shoprec record 3 7 12\n  shoprec record 3,7,12",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), cfg(), func(a *app) error {
				if err := a.recommender.RecordCoPurchases(cmd.Context(), ids); err != nil {
					return err
				}
				logging.Info().Ints64("product_ids", ids).Msg("co-purchases recorded")
				return nil
			})
		},
	}
}

func newSuggestCmd(cfg func() Config) *cobra.Command {
	var (
		maxResults int
		resolve    bool
	)
	cmd := &cobra.Command{
		Use:   "suggest <product-id>...",
		Short: "Show products most often bought together with the given products",
		Long: `Without --resolve, prints "<product-id> <score>" per line in rank order.
With --resolve, runs the storefront pipeline (availability filter, catalog lookup)
and prints "<product-id> <name>"; requires SHOPREC_CATALOG_DSN.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return withApp(cmd.Context(), cfg(), func(a *app) error {
				if !resolve {
					suggestions, err := a.recommender.SuggestScored(cmd.Context(), ids, maxResults)
					if err != nil {
						return err
					}
					for _, s := range suggestions {
						fmt.Fprintf(out, "%d %g\n", s.ProductID, s.Score)
					}
					return nil
				}

				svc, err := a.shop()
				if err != nil {
					return err
				}
				var products []core.Product
				if len(ids) == 1 {
					products = svc.ProductDetail(cmd.Context(), ids[0])
				} else {
					products = svc.Cart(cmd.Context(), ids)
				}
				for _, p := range products {
					fmt.Fprintf(out, "%d %s\n", p.ID, p.Name)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&maxResults, "max", "n", 0, "maximum number of suggestions (0 uses SHOPREC_MAX_RESULTS)")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "resolve products through the storefront pipeline")
	return cmd
}

func newClearCmd(cfg func() Config) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all co-purchase data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			return withApp(cmd.Context(), cfg(), func(a *app) error {
				return a.recommender.ClearAll(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every product's co-purchase set")
	return cmd
}

func newConsumeCmd(cfg func() Config) *cobra.Command {
	var queueGroup string
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Record co-purchases from order-completed events on NATS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := cfg()
			return withApp(cmd.Context(), c, func(a *app) error {
				sub, err := events.NewNATSSubscriber(cmd.Context(), c.natsConfig(queueGroup), nil)
				if err != nil {
					return err
				}
				defer sub.Close()

				g, ctx := errgroup.WithContext(cmd.Context())
				g.Go(func() error {
					return events.NewConsumer(sub, a.recommender, c.OrderTopic, nil).Run(ctx)
				})
				g.Go(func() error {
					return serveMetrics(ctx, c.MetricsAddr)
				})
				return g.Wait()
			})
		},
	}
	cmd.Flags().StringVar(&queueGroup, "queue-group", "shoprec", "NATS queue group shared by consumer replicas")
	return cmd
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logging.Info().Str("addr", addr).Msg("metrics listening")

	select {
	case err := <-errc:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newPublishCmd(cfg func() Config) *cobra.Command {
	var orderID string
	cmd := &cobra.Command{
		Use:   "publish <product-id>...",
		Short: "Publish an order-completed event to NATS",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if orderID == "" {
				orderID = "cli-" + strconv.FormatInt(time.Now().UnixNano(), 36)
			}
			c := cfg()
			pub, err := events.NewNATSPublisher(cmd.Context(), c.natsConfig(""), nil)
			if err != nil {
				return err
			}
			defer pub.Close()
			return events.Publish(pub, c.OrderTopic, &events.OrderCompleted{OrderID: orderID, ProductIDs: ids})
		},
	}
	cmd.Flags().StringVar(&orderID, "order-id", "", "order id (generated when empty)")
	return cmd
}
