package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/svgexport/pkg/exportspec"
	"github.com/matzehuels/svgexport/pkg/inspect"
	"github.com/matzehuels/svgexport/pkg/job"
)

// planEntry is the JSON form of one planned job.
type planEntry struct {
	Input   string          `json:"input"`
	Output  string          `json:"output"`
	Natural inspect.Natural `json:"natural"`
	Spec    exportspec.Spec `json:"spec"`
	Ignored []string        `json:"ignored,omitempty"`
}

// planCommand creates the plan command, which resolves tokens without rendering.
func (c *CLI) planCommand() *cobra.Command {
	var (
		datafile string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "plan <input.svg> <output> [tokens...]",
		Short: "Show how an export would be sized without rendering it",
		Long: `Plan reads the SVG's width, height and viewBox and resolves the tokens
exactly as export would, then prints the result instead of rendering.

SVGs without a usable size or viewBox need the browser to measure them and
cannot be planned.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := loadJobs(args, datafile)
			if err != nil {
				return err
			}
			entries, err := planJobs(jobs)
			if err != nil {
				return err
			}
			if asJSON {
				return writePlanJSON(cmd.OutOrStdout(), entries)
			}
			printPlan(entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&datafile, "file", "f", "", "read jobs from a JSON or TOML datafile")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	cmd.ValidArgsFunction = completeExportArgs
	cmd.MarkFlagFilename("file", "json", "toml")
	return cmd
}

func planJobs(jobs []job.Job) ([]planEntry, error) {
	entries := make([]planEntry, 0, len(jobs))
	for _, j := range jobs {
		natural, err := inspect.StaticFile(j.Input)
		if err != nil {
			return nil, err
		}
		spec, ignored, err := exportspec.Resolve(natural.Box, j.Tokens, j.Output)
		if err != nil {
			return nil, err
		}
		entries = append(entries, planEntry{
			Input:   j.Input,
			Output:  j.Output,
			Natural: natural,
			Spec:    spec,
			Ignored: ignored.Tokens(),
		})
	}
	return entries, nil
}

func writePlanJSON(w io.Writer, entries []planEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func printPlan(entries []planEntry) {
	for i, e := range entries {
		if i > 0 {
			printNewline()
		}
		printInfo("%s", StyleTitle.Render(e.Input))
		printFile(e.Output)
		printKeyValue("natural", fmt.Sprintf("%s (%s)", e.Natural.Box, e.Natural.Kind))
		printKeyValue("spec", StyleHighlight.Render(e.Spec.String()))
		if len(e.Ignored) > 0 {
			printWarning("ignored tokens: %s", strings.Join(e.Ignored, " "))
		}
	}
}
