package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/claimtriage/internal/locale"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// lexiconCmd represents the lexicon command
var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "List the keyword lexicons available for extraction",
	Long: `Lexicon lists the locales the rule extractor can read: the embedded
default plus any <code>.yaml file found in locale.dir.

Example:
  claimtriage lexicon
  claimtriage lexicon --locale-dir ./lexicons
  claimtriage lexicon show fr > my-locale.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		def := registry.Default().Code
		for _, code := range registry.Codes() {
			marker := ""
			if code == def {
				marker = " (default)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", code, marker)
		}
		return nil
	},
}

var lexiconShowCmd = &cobra.Command{
	Use:   "show <code>",
	Short: "Print a lexicon as YAML",
	Long:  `Print the lexicon of a locale as YAML. Unknown codes print the default lexicon.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		lex := registry.Get(args[0])
		if lex.Code != args[0] {
			fmt.Fprintf(os.Stderr, "No lexicon for %q, showing %q\n", args[0], lex.Code)
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(lex); err != nil {
			return fmt.Errorf("marshal lexicon: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(lexiconCmd)
	lexiconCmd.AddCommand(lexiconShowCmd)

	lexiconCmd.PersistentFlags().String("locale-dir", "", "directory of extra <code>.yaml lexicons")
}

// loadRegistry builds the lexicon registry from config
func loadRegistry(cmd *cobra.Command) (*locale.Registry, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	registry, err := locale.NewRegistry(cfg.Locale.Default)
	if err != nil {
		return nil, err
	}
	if cfg.Locale.Dir != "" {
		if _, err := registry.LoadDir(cfg.Locale.Dir); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
