package main

import (
	"time"

	"github.com/spf13/cobra"

	"entitlement-gateway/middleware/entitlement/config"
	"entitlement-gateway/middleware/entitlement/domain"
)

type rootFlags struct {
	configFile string

	redisAddr     string
	redisPassword string
	redisDB       int
	redisPrefix   string

	// sessionTTL deve ser o SESSION_TTL do gateway: quota incr regrava a chave com ele.
	sessionTTL time.Duration
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&rootFlags{})
}

func newRootCmdWith(f *rootFlags) *cobra.Command {

	root := &cobra.Command{
		Use:           "entitlementctl",
		Short:         "Inspect entitlement limits and guest search quotas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configFile, "config", config.String(config.Env, config.EnvConfigFile, ""), "entitlements YAML file (env overrides it)")
	pf.StringVar(&f.redisAddr, "redis-addr", config.String(config.Env, "REDIS_ADDR", "localhost:6379"), "redis address")
	pf.StringVar(&f.redisPassword, "redis-password", config.String(config.Env, "REDIS_PASSWORD", ""), "redis password")
	pf.IntVar(&f.redisDB, "redis-db", config.Int(config.Env, "REDIS_DB", 0), "redis database")
	pf.StringVar(&f.redisPrefix, "redis-prefix", config.String(config.Env, "REDIS_PREFIX", "entitlement"), "redis key prefix")

	pf.DurationVar(&f.sessionTTL, "session-ttl", config.Duration(config.Env, "SESSION_TTL", 30*time.Minute), "guest session TTL used when writing counters (match the gateway)")

	root.AddCommand(configCmd(f), limitCmd(f), quotaCmd(f))
	return root
}

func (f *rootFlags) entitlements() (domain.Config, error) {
	return config.Load(f.configFile, config.Env)
}
