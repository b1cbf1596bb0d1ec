package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/pav/internal/config"
)

// effectiveConfig is the YAML view of the loaded configuration. Keys match
// the config file so the output can be saved as .pav.yaml.
type effectiveConfig struct {
	LogLevel     string `yaml:"log-level"`
	LogFormat    string `yaml:"log-format"`
	NoColor      bool   `yaml:"no-color"`
	Quiet        bool   `yaml:"quiet"`
	Java         string `yaml:"java"`
	Jar          string `yaml:"jar"`
	Debounce     string `yaml:"debounce"`
	PollInterval string `yaml:"poll-interval"`
	MaxWait      string `yaml:"max-wait"`
}

func newEffectiveConfig(cfg *config.Config) effectiveConfig {
	return effectiveConfig{
		LogLevel:     cfg.LogLevel,
		LogFormat:    cfg.LogFormat,
		NoColor:      cfg.NoColor,
		Quiet:        cfg.Quiet,
		Java:         cfg.Java,
		Jar:          cfg.Jar,
		Debounce:     cfg.Debounce.String(),
		PollInterval: cfg.PollInterval.String(),
		MaxWait:      cfg.MaxWait.String(),
	}
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging the config file, PAV_*
environment variables and flags. The output is valid .pav.yaml content.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())

			data, err := yaml.Marshal(newEffectiveConfig(cfg))
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}

			w := cmd.OutOrStdout()

			if cfg.ConfigFile != "" {
				if _, err := fmt.Fprintf(w, "# source: %s\n", cfg.ConfigFile); err != nil {
					return err
				}
			}

			_, err = w.Write(data)

			return err
		},
	}

	registerPipelineFlags(cmd)

	return cmd
}
