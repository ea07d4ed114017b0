package commands

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "lwar",
	Short:         "Lwar protocol demo server and client",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(joinCmd)
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func setup() (Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return Config{}, err
	}

	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return Config{}, err
	}
	logrus.SetLevel(lvl)

	return cfg, nil
}
