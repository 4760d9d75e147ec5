package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	logFormat string

	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "ghsync",
	Short: "Sync GitHub repository settings from declarative configuration",
	Long: `ghsync keeps GitHub repository settings in line with a declarative
configuration. Labels, branch protection rules and deployment environments
are read from INPUT_CONFIG (or a file) and reconciled through GitHub's
GraphQL API, one repository or many at a time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return configureLogger(logger, cmd.ErrOrStderr(), verbose, logFormat)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(validateCmd)
}
