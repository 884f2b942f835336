// Command shoprec 维护共购推荐数据：记录订单、查询推荐、清空数据、消费订单事件。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rushteam/shoprec/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("shoprec failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg Config

	root := &cobra.Command{
		Use:           "shoprec",
		Short:         "Co-purchase recommendations for the storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := LoadConfig()
			if err != nil {
				return err
			}
			cfg = loaded
			logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
			return nil
		},
	}

	cfgFn := func() Config { return cfg }
	root.AddCommand(
		newRecordCmd(cfgFn),
		newSuggestCmd(cfgFn),
		newClearCmd(cfgFn),
		newConsumeCmd(cfgFn),
		newPublishCmd(cfgFn),
		newImportCatalogCmd(cfgFn),
	)
	return root
}

// withApp 打开客户端句柄执行 fn，结束后关闭。
func withApp(ctx context.Context, cfg Config, fn func(*app) error) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Warn().Err(err).Msg("close clients")
		}
	}()
	return fn(a)
}
