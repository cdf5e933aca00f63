package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/svgexport/pkg/render"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for svgexport.

To load completions:

Bash:
  $ source <(svgexport completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ svgexport completion bash > /etc/bash_completion.d/svgexport
  # macOS:
  $ svgexport completion bash > $(brew --prefix)/etc/bash_completion.d/svgexport

Zsh:
  $ svgexport completion zsh > "${fpath[1]}/_svgexport"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ svgexport completion fish > ~/.config/fish/completions/svgexport.fish

PowerShell:
  PS> svgexport completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// tokenSuggestions are offered after the output path.
var tokenSuggestions = []string{
	"1x\tnatural size",
	"2x\tdouble size",
	"0.5x\thalf size",
	"jpeg\tJPEG output",
	"png\tPNG output",
	"80%\tJPEG quality",
	"pad\tfit inside width:height",
}

// completeExportArgs completes the SVG input, then the output path, then tokens.
func completeExportArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return []string{"svg"}, cobra.ShellCompDirectiveFilterFileExt
	case 1:
		return []string{"png", "jpg", "jpeg"}, cobra.ShellCompDirectiveFilterFileExt
	}
	var out []string
	for _, s := range tokenSuggestions {
		if strings.HasPrefix(s, toComplete) {
			out = append(out, s)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// registerExportCompletions adds completions for the export flags on cmd.
func registerExportCompletions(cmd *cobra.Command) {
	cmd.MarkFlagFilename("file", "json", "toml")
	cmd.RegisterFlagCompletionFunc("engine", completeEngines)
}

func completeEngines(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return render.Engines, cobra.ShellCompDirectiveNoFileComp
}
