package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"rocket-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage persistent configuration",
	Long: `Read and write the persistent config file. Values set here are
loaded on every invocation; environment variables still take precedence.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Set(args[0], args[1]); err != nil {
			return err
		}
		newRenderer().Success("%s saved", args[0])
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.Get(args[0])
		if err != nil {
			return err
		}
		newRenderer().Println(v)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a persisted configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Unset(args[0]); err != nil {
			return err
		}
		newRenderer().Success("%s removed", args[0])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted configuration values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := config.ReadFile()
		if err != nil {
			return err
		}
		r := newRenderer()
		if len(values) == 0 {
			r.Println("no persisted configuration; see `rocket config set`")
			return nil
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([][2]string, 0, len(keys))
		for _, k := range keys {
			v := values[k]
			if k == "OPENAI_API_KEY" || k == "ROCKET_GITHUB_TOKEN" {
				v = redact(v)
			}
			pairs = append(pairs, [2]string{k, v})
		}
		r.KeyValues(pairs)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		newRenderer().Println(config.File())
	},
}

func init() {
	configCmd.AddCommand(configSetCmd, configGetCmd, configUnsetCmd, configListCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func redact(v string) string {
	if len(v) <= 8 {
		return "********"
	}
	return v[:4] + "..." + v[len(v)-4:]
}
