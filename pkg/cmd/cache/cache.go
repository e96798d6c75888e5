package cache

import (
	"fmt"
	"os"
	"time"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1telemetry-compare-go/pkg/config"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache/resultcache"
)

func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "commands for the computed result cache",
	}
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newClearCmd())
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "prints statistics about the computed result cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := openCache()
			if err != nil {
				return err
			}
			data, err := oj.Marshal(map[string]any{
				"stats":   results.Stats(),
				"entries": results.Sessions(),
			}, 2)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "removes all entries from the computed result cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := openCache()
			if err != nil {
				return err
			}
			count, err := results.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "removed %d entries\n", count)
			return nil
		},
	}
}

func openCache() (*resultcache.Cache, error) {
	return resultcache.New(config.CacheDir,
		resultcache.WithMaxBytes(
			int64(config.ResultCacheMaxGB*float64(1<<30))),
		resultcache.WithTTL(
			time.Duration(config.ResultCacheTTLDays)*24*time.Hour))
}
