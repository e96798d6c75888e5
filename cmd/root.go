package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	cacheCmd "github.com/mpapenbr/f1telemetry-compare-go/pkg/cmd/cache"
	compareCmd "github.com/mpapenbr/f1telemetry-compare-go/pkg/cmd/compare"
	serverCmd "github.com/mpapenbr/f1telemetry-compare-go/pkg/cmd/server"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/config"
	"github.com/mpapenbr/f1telemetry-compare-go/version"
)

const envPrefix = "F1CMP"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "f1cmp",
	Short:   "Comparative telemetry backend for F1 sessions",
	Long:    ``,
	Version: version.FullVersion,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.f1cmp.yml)")

	rootCmd.PersistentFlags().StringVar(&config.DataDir, "data-dir",
		"session_data",
		"Directory containing recorded session data")
	rootCmd.PersistentFlags().StringVar(&config.CacheDir, "cache-dir",
		"computed_data",
		"Directory for the computed result cache")
	rootCmd.PersistentFlags().IntVar(&config.SessionCacheSize,
		"session-cache-size",
		20,
		"Max number of cached session handles")
	rootCmd.PersistentFlags().Float64Var(&config.ResultCacheMaxGB,
		"result-cache-max-gb",
		10.0,
		"Max size of the computed result cache in GB")
	rootCmd.PersistentFlags().IntVar(&config.ResultCacheTTLDays,
		"result-cache-ttl-days",
		365,
		"Time-to-live for computed cache entries in days")
	rootCmd.PersistentFlags().IntVar(&config.InterpolationPoints,
		"interpolation-points",
		1000,
		"Number of points for telemetry resampling")
	rootCmd.PersistentFlags().IntVar(&config.MaxWorkers,
		"max-workers",
		20,
		"Cap for parallel per-driver aggregation")

	// add commands here
	rootCmd.AddCommand(serverCmd.NewServerCmd())
	rootCmd.AddCommand(compareCmd.NewCompareCmd())
	rootCmd.AddCommand(cacheCmd.NewCacheCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".f1cmp" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".f1cmp")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --cache-dir to F1CMP_CACHE_DIR
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
