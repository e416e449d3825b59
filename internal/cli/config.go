package cli

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/ppiankov/claimtriage/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage claimtriage configuration",
	Long: `Manage claimtriage configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (CLAIMTRIAGE_*, e.g. CLAIMTRIAGE_STORE_DRIVER)
3. Config file (~/.claimtriage/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after defaults, config file, env vars and .env are merged. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		configFile := viper.ConfigFileUsed()
		if configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("  Current Configuration")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()

		yamlData, err := yaml.Marshal(masked(cfg))
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		fmt.Println(string(yamlData))

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()
		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Environment variables (CLAIMTRIAGE_*, OPENAI_API_KEY, ANTHROPIC_API_KEY, OLLAMA_BASE_URL)")
		fmt.Println("  3. Config file (~/.claimtriage/config.yaml)")
		fmt.Println("  4. Defaults")
		fmt.Println()

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.claimtriage/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configDir := home + "/.claimtriage"
		configPath := configDir + "/config.yaml"

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'claimtriage config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close config file: %w", closeErr)
			}
		}()

		// Helper for writing with error checking
		printf := func(format string, a ...interface{}) {
			if err != nil {
				return
			}
			_, err = fmt.Fprintf(f, format, a...)
		}

		printf("# claimtriage configuration file\n")
		printf("#\n")
		printf("# Configuration hierarchy (highest to lowest priority):\n")
		printf("#   1. CLI flags\n")
		printf("#   2. Environment variables (CLAIMTRIAGE_<SECTION>_<KEY>)\n")
		printf("#   3. This config file\n")
		printf("#   4. Built-in defaults\n")
		printf("#\n")
		printf("# delegate.provider: openai, anthropic, ollama, or empty for rules only\n")
		printf("# store.driver:      memory, disk, layered, sqlite, postgres\n\n")

		yamlData, mErr := yaml.Marshal(model.DefaultConfig())
		if mErr != nil {
			return fmt.Errorf("error marshaling config: %w", mErr)
		}

		if err == nil {
			if _, wErr := f.Write(yamlData); wErr != nil {
				return fmt.Errorf("error writing config: %w", wErr)
			}
		}

		printf("\n# API keys (recommended to use environment variables or .env instead):\n")
		printf("#   export OPENAI_API_KEY=sk-...\n")
		printf("#   export ANTHROPIC_API_KEY=sk-ant-...\n")
		printf("#   export OLLAMA_BASE_URL=http://localhost:11434\n")

		if err != nil {
			return err
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  claimtriage config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n")
		fmt.Printf("  $EDITOR %s\n", configPath)
		fmt.Printf("\n")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// loadConfig merges defaults, the config file, the environment and the
// flags set on cmd into one configuration
func loadConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()

	// AutomaticEnv only sees keys viper already knows about
	for _, key := range configKeys(reflect.TypeOf(*cfg), "") {
		_ = viper.BindEnv(key)
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyFlagOverrides(cmd, cfg)

	resolveProviderEnv(&cfg.Delegate)
	return cfg, nil
}

// configKeys lists the dotted viper keys of a config struct
func configKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if f.Type.Kind() == reflect.Struct {
			keys = append(keys, configKeys(f.Type, key)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// addDelegateFlags registers the delegate flags shared by triage commands
func addDelegateFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "delegate provider (openai, anthropic, ollama); empty uses rules only")
	cmd.Flags().String("model", "", "delegate model name")
	cmd.Flags().String("http-proxy", "", "HTTP proxy URL for the delegate (overrides HTTP_PROXY env var)")
	cmd.Flags().String("https-proxy", "", "HTTPS proxy URL for the delegate (overrides HTTPS_PROXY env var)")
	cmd.Flags().String("no-proxy", "", "comma-separated hosts that bypass the proxy (overrides NO_PROXY env var)")
	cmd.Flags().Bool("no-cache", false, "disable the delegate response cache")
	cmd.Flags().String("locale-dir", "", "directory of extra <code>.yaml lexicons")
	cmd.Flags().String("reviewer", "", "reviewer assigned to escalated claims")
}

// addStoreFlags registers the claim store flags
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "", "claim store driver (memory, disk, layered, sqlite, postgres)")
	cmd.Flags().String("store-path", "", "directory or file of the disk, layered and sqlite stores")
	cmd.Flags().String("store-dsn", "", "postgres connection string")
}

// addEventFlags registers the NATS flags
func addEventFlags(cmd *cobra.Command) {
	cmd.Flags().String("nats-url", "", "NATS server URL (empty disables events)")
	cmd.Flags().String("subject-prefix", "", "NATS subject prefix")
}

// applyFlagOverrides copies explicitly set flags over cfg
func applyFlagOverrides(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}

	str("provider", &cfg.Delegate.Provider)
	str("model", &cfg.Delegate.Model)
	str("http-proxy", &cfg.Delegate.HTTPProxy)
	str("https-proxy", &cfg.Delegate.HTTPSProxy)
	str("no-proxy", &cfg.Delegate.NoProxy)
	str("locale-dir", &cfg.Locale.Dir)
	str("reviewer", &cfg.Routing.DefaultReviewer)
	str("store", &cfg.Store.Driver)
	str("store-path", &cfg.Store.Path)
	str("store-dsn", &cfg.Store.DSN)
	str("nats-url", &cfg.Events.NatsURL)
	str("subject-prefix", &cfg.Events.SubjectPrefix)

	if flags.Changed("no-cache") {
		noCache, _ := flags.GetBool("no-cache")
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("workers") {
		cfg.Concurrency.Workers, _ = flags.GetInt("workers")
	}
}

// resolveProviderEnv fills provider credentials from the usual variables.
// A provider left without a key fails when the delegate is built.
func resolveProviderEnv(d *model.DelegateConfig) {
	switch strings.ToLower(d.Provider) {
	case "openai":
		if d.APIKey == "" {
			d.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if d.APIKey == "" {
			d.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if d.BaseURL == "" {
			d.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
}

// masked returns a copy of cfg safe to print
func masked(cfg *model.Config) model.Config {
	out := *cfg
	if out.Delegate.APIKey != "" {
		out.Delegate.APIKey = "********"
	}
	if out.Events.Token != "" {
		out.Events.Token = "********"
	}
	if out.Store.DSN != "" {
		out.Store.DSN = "********"
	}
	return out
}
