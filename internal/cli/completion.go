package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/pav/internal/renderer"
)

// plantUMLExtensions are the source file extensions offered when completing
// the file argument of watch and render.
var plantUMLExtensions = []string{"puml", "plantuml", "pu", "iuml", "wsd", "txt"}

// completePlantUMLFile completes a single PlantUML source file argument.
func completePlantUMLFile(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return plantUMLExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// completeFormat completes the image formats accepted by --format.
func completeFormat(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(renderer.FormatSVG) + "\tscalable vector graphics",
		string(renderer.FormatPNG) + "\tbitmap image",
	}, cobra.ShellCompDirectiveNoFileComp
}

func newCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pav.

Besides subcommands and flags, the scripts complete PlantUML source files
(.puml, .plantuml, .pu, .iuml, .wsd, .txt) for "pav watch" and
"pav render", and the image formats for --format.

To load completions:

Bash:
  $ source <(pav completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ pav completion bash > /etc/bash_completion.d/pav

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ pav completion zsh > "${fpath[1]}/_pav"

Fish:
  $ pav completion fish > ~/.config/fish/completions/pav.fish

PowerShell:
  PS> pav completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> pav completion powershell > pav.ps1
  # and source this file from your PowerShell profile.
`,
		// Override parent PersistentPreRunE: completion needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:         []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}

			return nil
		},
	}

	return cmd
}
