package cmd

import (
	"fmt"
	"os"

	"github.com/endorses/watchcat/cmd/monitor"
	"github.com/endorses/watchcat/cmd/status"
	"github.com/endorses/watchcat/cmd/top"
	"github.com/endorses/watchcat/internal/pkg/logger"
	"github.com/endorses/watchcat/internal/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "watchcat",
	Short:   "watchcat keeps an eye on your host",
	Long:    fmt.Sprintf("watchcat %s - Host metrics monitor and alerter", version.GetVersion()),
	Version: version.GetFullVersion(),
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func addSubCommandPalattes() {
	rootCmd.AddCommand(monitor.MonitorCmd)
	rootCmd.AddCommand(status.StatusCmd)
	rootCmd.AddCommand(top.TopCmd)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Initialize structured logging
	logger.Initialize()

	addSubCommandPalattes()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/watchcat/config.yaml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Priority order for config files:
		// 1. ~/.config/watchcat/config.yaml (preferred, with directory for other files)
		// 2. ~/.config/watchcat.yaml (XDG standard)
		// 3. ~/.watchcat.yaml (legacy)
		viper.AddConfigPath(home + "/.config/watchcat")
		viper.AddConfigPath(home + "/.config")
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")

		// Try "config" name first (in ~/.config/watchcat/config.yaml)
		viper.SetConfigName("config")
		if err := viper.ReadInConfig(); err != nil {
			// Fall back to "watchcat" name
			viper.SetConfigName("watchcat")
		}
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	if lvl := viper.GetString("log_level"); lvl != "" {
		logger.SetLevel(lvl)
	}
}
