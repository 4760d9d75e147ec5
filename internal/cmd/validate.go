package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ghsync/pkg/config"
)

var validateConfigFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration without contacting GitHub",
	Long: `Validate the configuration offline.

Label names and colors, branch patterns and review counts, environment
names, wait timers and reviewer logins are checked. Every problem is
reported, not only the first one.

Examples:
  ghsync validate --config settings.yaml
  INPUT_CONFIG="$(cat settings.yaml)" ghsync validate`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfigFile, "config", "c", "", "Configuration file (defaults to INPUT_CONFIG)")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	svc, err := loadConfig(validateConfigFile)
	if err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			fmt.Fprintf(out, "❌ Configuration has %d error(s):\n", len(verrs))
			for _, verr := range verrs {
				fmt.Fprintf(out, "  • %s\n", verr.Error())
			}
		}
		return err
	}

	cfg := svc.Config()
	fmt.Fprintf(out, "✓ Configuration is valid\n")
	fmt.Fprintf(out, "  • Labels: %d\n", len(cfg.Labels))
	fmt.Fprintf(out, "  • Branch protection rules: %d\n", len(cfg.Branches))
	fmt.Fprintf(out, "  • Environments: %d\n", len(cfg.Environments))
	if targets := svc.Targets(); len(targets) > 0 {
		fmt.Fprintf(out, "  • Repositories: %d\n", len(targets))
	}
	return nil
}
