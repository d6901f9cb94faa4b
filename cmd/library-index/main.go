// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the library-index CLI.
// See docs/ARCHITECTURE.md § Front Ends.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/library-index/internal/secrets"
	"github.com/pdiddy/library-index/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, else the named secret.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the library-index CLI.
var rootCmd = &cobra.Command{
	Use:   "library-index",
	Short: "Adaptive literature research engine",
	Long: `library-index automates iterative literature research: it plans searches
against academic indexes, analyzes candidate papers concurrently, and
synthesizes the findings into one report, refining its strategy when
results are insufficient.

Run one research session with "research", expose the engine over HTTP
with "serve", and manage the analysis cache with "cache".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./library-index.yaml or ~/.config/library-index/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("library-index")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "library-index"))
		}
	}

	viper.SetEnvPrefix("LIBRARY_INDEX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the engine configuration from the config file,
// environment, and secrets directory.
func engineConfig() (types.EngineConfig, error) {
	var cfg types.EngineConfig
	if err := viper.Unmarshal(&cfg, yamlTags); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}

	cfg.QueryLLM.APIKey = secretForProvider(cfg.QueryLLM)
	cfg.AnalysisLLM.APIKey = secretForProvider(cfg.AnalysisLLM)
	cfg.RelevanceLLM.APIKey = secretForProvider(cfg.RelevanceLLM)
	cfg.Cache.Password = secretDefault("redis-password", cfg.Cache.Password)
	cfg.Search.OpenAlexEmail = secretDefault("openalex-email", cfg.Search.OpenAlexEmail)

	cfg.ApplyDefaults()
	return cfg, nil
}

// yamlTags makes viper decode with the same yaml tags the config file
// uses, flattening the embedded HTTP settings.
func yamlTags(dc *mapstructure.DecoderConfig) {
	dc.TagName = "yaml"
	dc.Squash = true
}

// secretForProvider picks the API key file matching the configured provider.
func secretForProvider(c types.LLMConfig) string {
	switch c.Provider {
	case types.LLMQwen:
		return secretDefault("qwen-api-key", c.APIKey)
	default:
		return secretDefault("deepseek-api-key", c.APIKey)
	}
}

// newLogger builds the process logger; --verbose switches to debug level.
func newLogger() (*zap.Logger, error) {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zcfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
