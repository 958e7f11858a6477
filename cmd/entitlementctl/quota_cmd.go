package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"entitlement-gateway/middleware/entitlement/application"
	"entitlement-gateway/middleware/entitlement/domain"
	"entitlement-gateway/middleware/entitlement/infra"
)

func quotaCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Read or change a guest session's search quota in redis",
	}
	cmd.AddCommand(
		quotaSubCmd(f, "get", "Show used and remaining guest searches", nil),
		quotaSubCmd(f, "incr", "Count one guest search", func(ctx context.Context, g application.Gate, k domain.SessionKey) {
			g.IncrementGuestSearchCount(ctx, k)
		}),
		quotaSubCmd(f, "reset", "Clear the guest search counter", func(ctx context.Context, g application.Gate, k domain.SessionKey) {
			g.ResetGuestSearchCount(ctx, k)
		}),
	)
	return cmd
}

type quotaAction func(ctx context.Context, g application.Gate, k domain.SessionKey)

func quotaSubCmd(f *rootFlags, use, short string, action quotaAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <session>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.entitlements()
			if err != nil {
				return err
			}

			if f.sessionTTL <= 0 {
				return fmt.Errorf("--session-ttl must be > 0")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			rdb := redis.NewClient(&redis.Options{
				Addr:     f.redisAddr,
				Password: f.redisPassword,
				DB:       f.redisDB,
			})
			defer func() { _ = rdb.Close() }()
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping %s: %w", f.redisAddr, err)
			}

			g := application.Gate{
				Config:  cfg,
				Counter: f.counterStore(rdb),
			}
			key := domain.SessionKey(strings.TrimSpace(args[0]))
			if action != nil {
				action(ctx, g, key)
			}
			return printQuota(ctx, cmd.OutOrStdout(), g, key)
		},
	}
}

func (f *rootFlags) counterStore(rdb redis.UniversalClient) *infra.RedisCounterStore {
	return infra.NewRedisCounterStore(rdb,
		infra.WithCounterPrefix(strings.Trim(f.redisPrefix, ":")+":session"),
		infra.WithCounterTTL(f.sessionTTL),
	)
}

func printQuota(ctx context.Context, w io.Writer, g application.Gate, k domain.SessionKey) error {
	used := g.GuestSearchCount(ctx, k)
	left := g.RemainingGuestSearches(ctx, k)
	_, err := fmt.Fprintf(w, "session=%s used=%d remaining=%d can_search=%v warning=%v\n",
		k, used, left, application.CanUserSearch(false, left), application.ShouldShowSearchLimitWarning(false, left))
	return err
}
