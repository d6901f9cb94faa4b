// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective engine configuration as YAML",
	Long: `Prints the configuration a research session would run with, after
merging the config file, environment variables, secrets, and defaults.
Credential values are redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := engineConfig()
		if err != nil {
			return err
		}

		for _, k := range []*string{
			&cfg.QueryLLM.APIKey, &cfg.AnalysisLLM.APIKey, &cfg.RelevanceLLM.APIKey, &cfg.Cache.Password,
		} {
			if *k != "" {
				*k = "<redacted>"
			}
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("rendering configuration: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
