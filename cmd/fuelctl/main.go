// fuelctl is the operator CLI for the fuel ledger: promo code lifecycle,
// manual grants, refill sweeps, schema migration and dev tokens.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plug/fuel-api/internal/config"
	"github.com/plug/fuel-api/internal/pkg/logger"
)

const app = "fuelctl"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "fuelctl manages the PLUG fuel ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger.Init(logger.Config{
				Level:       viper.GetString("log-level"),
				Environment: "development",
				Service:     app,
			})
			return nil
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("database-url", "", "postgres connection string (env DATABASE_URL)")
	rootCmd.PersistentFlags().String("redis-url", "", "redis url for cache refresh and locks (env REDIS_URL)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (env LOG_LEVEL)")

	for _, key := range []string{"database-url", "redis-url", "log-level"} {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}

	rootCmd.AddCommand(promoCmd, creditsCmd, refillCmd, tokenCmd, migrateCmd)
}

// initConfig layers flags over env over an optional config file, with the
// API's own defaults (including .env) at the bottom.
func initConfig() {
	defaults := config.Load()
	viper.SetDefault("database-url", defaults.DatabaseURL)
	viper.SetDefault("redis-url", defaults.RedisURL)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("promo-code-pepper", defaults.PromoCodePepper)
	viper.SetDefault("jwt-secret", defaults.JWTSecret)
	viper.SetDefault("lock-expiry", defaults.LockExpiry)
	viper.SetDefault("balance-cache-ttl", defaults.BalanceCacheTTL)

	envKeys := map[string]string{
		"database-url":      "DATABASE_URL",
		"redis-url":         "REDIS_URL",
		"log-level":         "LOG_LEVEL",
		"promo-code-pepper": "PROMO_CODE_PEPPER",
		"jwt-secret":        "JWT_SECRET",
		"lock-expiry":       "LOCK_EXPIRY",
		"balance-cache-ttl": "BALANCE_CACHE_TTL",
	}
	for key, env := range envKeys {
		viper.BindEnv(key, env)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintln(os.Stderr, "error: reading config:", err)
			os.Exit(1)
		}
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
