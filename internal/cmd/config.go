package cmd

import (
	"github.com/codestack/cli/pkg/config"
	"github.com/codestack/cli/pkg/output"
	"github.com/spf13/cobra"
)

// shownKeys are listed by "config show". Secrets are masked.
var shownKeys = []struct {
	key    string
	secret bool
}{
	{"api.base_url", false},
	{"api.timeout", false},
	{"identity.base_url", false},
	{"identity.api_key", true},
	{"oauth.client_id", false},
	{"imagehost.cloud_name", false},
	{"imagehost.upload_preset", false},
	{"payment.publishable_key", true},
	{"payment.membership_amount", false},
	{"output.format", false},
	{"log.level", false},
	{"log.file", false},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := []output.Field{{Key: "config dir", Value: config.GetConfigDir()}}
		for _, k := range shownKeys {
			v := config.GetString(k.key)
			if k.secret && v != "" {
				v = "********"
			}
			fields = append(fields, output.Field{Key: k.key, Value: v})
		}
		return output.Stdout().PrintRecord("Configuration", fields)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetString(args[0], args[1]); err != nil {
			return err
		}
		output.Stdout().Success("Set %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
