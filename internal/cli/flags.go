package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/pav/internal/config"
)

// registerRendererFlags adds the renderer location flags as persistent flags.
func registerRendererFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String("java", config.DefaultJava, "executable used to launch the PlantUML archive")
	pf.String("jar", "", "path to plantuml.jar (default: next to the pav binary)")
}

// registerPipelineFlags adds the watch pipeline tuning flags to a command.
// Values are read back through the config so that env and file settings apply.
func registerPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Duration("debounce", config.DefaultDebounce, "quiet period merging the events of a single save (0 disables)")
	f.Duration("poll-interval", config.DefaultPollInterval, "retry interval while the file is temporarily unavailable")
	f.Duration("max-wait", config.DefaultMaxWait, "give up reading an unavailable file after this long")
}
