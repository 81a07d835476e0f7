// Package cmd provides the command-line interface for folio with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. FOLIO_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (FOLIO_SERVER_PORT, etc.)
//	4. Configuration files (.folio.yml) - lowest priority
//
// Environment Variables:
//
//	FOLIO_CONFIG_FILE: Path to custom configuration file
//	FOLIO_SERVER_PORT: Override server port
//	FOLIO_PREFERENCES_BACKEND: file, sqlite or memory
//	And many more following the FOLIO_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/folio/internal/config"
)

var cfgFile string

// flagBindings maps flags onto configuration keys. They are applied in
// initConfig so that every run binds against the current viper state.
var flagBindings = map[string]*pflag.Flag{}

func bindFlag(key string, flag *pflag.Flag) {
	if flag != nil {
		flagBindings[key] = flag
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "A bilingual portfolio site backed by Markdown content",
	Long: `Folio loads projects, learnings and podcast episodes from Markdown files
with front-matter, renders them as a bilingual (zh/en) themed site and keeps the
reader's locale and theme preferences.

Quick Start:
  folio list projects             List project records
  folio validate                  Check every content file
  folio serve                     Start the live-reload preview server
  folio build                     Export the static site
  folio prefs get                 Show the stored locale and theme

Command Aliases (for faster typing):
  list (l, ls), serve (s), build (b), validate (v)`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .folio.yml, can also use FOLIO_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	bindFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig selects the configuration file and binds the environment.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. FOLIO_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .folio.yml in current directory
//
// A missing or unreadable file is not an error; defaults apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".folio")
	}

	config.BindEnv()
	for key, flag := range flagBindings {
		_ = viper.BindPFlag(key, flag)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Using config file:", viper.ConfigFileUsed())
	}
}
