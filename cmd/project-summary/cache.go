package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/obentoo/project-summary/internal/common/output"
	"github.com/obentoo/project-summary/internal/httpcache"
	"github.com/obentoo/project-summary/internal/report"
	"github.com/spf13/cobra"
)

var errCacheDisabled = errors.New("HTTP cache is disabled")

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the HTTP response cache",
	Long: `Commands for inspecting and cleaning the HTTP cache used by --html.
The cache location and backend come from --http-cache and --cache-backend.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many cached responses are fresh or stale",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired responses from the cache",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every response from the cache",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cachePurgeCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// cacheFromFlags opens the cache the report would use
func cacheFromFlags(cmd *cobra.Command) (*httpcache.Cache, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cache, err := openCache(cfg)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		return nil, errCacheDisabled
	}
	return cache, nil
}

// storePath returns the file behind a store, if it has one
func storePath(store httpcache.Store) string {
	if p, ok := store.(interface{ Path() string }); ok {
		return p.Path()
	}
	return "(in memory)"
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cache, err := cacheFromFlags(cmd)
	if err != nil {
		return err
	}
	defer cache.Close()

	stats, err := cache.Stats(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	output.Header.Fprintf(w, "%s\n", storePath(cache.Backend()))
	fmt.Fprintf(w, "  %-8s %s\n", "total:", report.Commas(stats.Total))
	fmt.Fprintf(w, "  %-8s %s\n", "fresh:", output.Success.Sprint(report.Commas(stats.Fresh)))
	fmt.Fprintf(w, "  %-8s %s\n", "stale:", output.Warning.Sprint(report.Commas(stats.Stale)))
	fmt.Fprintf(w, "  %-8s %s\n", "ttl:", ttlText(cache.TTL()))
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	cache, err := cacheFromFlags(cmd)
	if err != nil {
		return err
	}
	defer cache.Close()

	removed, err := cache.Purge(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s expired %s\n",
		report.Commas(removed), pluralResponses(removed))
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cache, err := cacheFromFlags(cmd)
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
	return nil
}

// ttlText describes how long new responses stay fresh
func ttlText(ttl time.Duration) string {
	switch {
	case ttl < 0:
		return "never expire"
	case ttl == 0:
		return "not stored"
	default:
		return ttl.String()
	}
}

func pluralResponses(n int) string {
	if n == 1 {
		return "response"
	}
	return "responses"
}
