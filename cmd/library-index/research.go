// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/library-index/internal/engine"
	"github.com/pdiddy/library-index/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Run one research session for a natural-language query",
	Long: `Runs the full research loop for the given query: keyword extraction,
search planning, concurrent paper analysis, quality evaluation with
strategy refinement, and final synthesis. The report is written to
stdout or to the file given with --output.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringP("output", "o", "", "write the report to this file instead of stdout")
	researchCmd.Flags().Int("max-workers", 0, "maximum concurrent paper analyses")
	researchCmd.Flags().Int("max-search-retries", -1, "maximum strategy refinements before forced synthesis")
	researchCmd.Flags().String("search-provider", "", "search backend (arxiv, openalex)")
	researchCmd.Flags().String("cache-provider", "", "analysis cache backend (sqlite, redis)")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg, err := engineConfig()
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetInt("max-workers"); v > 0 {
		cfg.MaxWorkers = v
	}
	if v, _ := cmd.Flags().GetInt("max-search-retries"); v >= 0 {
		cfg.MaxSearchRetries = v
	}
	if v, _ := cmd.Flags().GetString("search-provider"); v != "" {
		cfg.Search.Provider = types.SearchProvider(v)
	}
	if v, _ := cmd.Flags().GetString("cache-provider"); v != "" {
		cfg.Cache.Provider = types.CacheProvider(v)
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	res := engine.Run(cmd.Context(), args[0], cfg, log)

	out, _ := cmd.Flags().GetString("output")
	if out != "" {
		if err := os.WriteFile(out, []byte(res.Report), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Report written to", out)
	} else {
		fmt.Println(res.Report)
	}

	if res.Err != nil {
		return fmt.Errorf("research session failed: %w", res.Err)
	}
	return nil
}
