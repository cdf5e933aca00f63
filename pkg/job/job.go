// Package job turns command-line arguments and datafiles into export jobs.
//
// A job is one (input SVG, output image, tokens) triple. Jobs come from
//
//   - the command line: svgexport <input.svg> <output> [tokens...]
//   - a datafile: a JSON or TOML list of entries, each with one input and one
//     or more outputs
//
// Inputs may be doublestar glob patterns ("icons/**/*.svg"). Outputs may use
// the {name} and {dir} placeholders, which are replaced with the base name
// (without extension) and the directory of each matched input.
package job

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/matzehuels/svgexport/pkg/errors"
	"github.com/matzehuels/svgexport/pkg/token"
)

// Job is a single export: render Input to Output with Tokens.
type Job struct {
	ID     string
	Input  string
	Output string
	Tokens token.List
}

// Entry is one datafile record before expansion. Input is the SVG path
// followed by tokens; each Output is an image path followed by tokens.
type Entry struct {
	Input  []string
	Output [][]string
}

// FromArgs builds the jobs for a command-line invocation:
// <input> <output> [tokens...].
func FromArgs(args []string) ([]Job, error) {
	if len(args) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "need an input and an output file, got %d argument(s)", len(args))
	}
	entry := Entry{
		Input:  []string{args[0]},
		Output: [][]string{append([]string{args[1]}, args[2:]...)},
	}
	return Expand([]Entry{entry})
}

// Expand validates entries and turns them into jobs, one per output and
// matched input. Tokens after the input come before tokens after the output.
func Expand(entries []Entry) ([]Job, error) {
	var jobs []Job
	for i, e := range entries {
		if len(e.Input) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidDatafile, "entry %d: missing input", i)
		}
		if len(e.Output) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidDatafile, "entry %d: missing output", i)
		}
		pattern := e.Input[0]
		if err := errors.ValidateInputPath(pattern); err != nil {
			return nil, err
		}
		inputs, err := Inputs(pattern)
		if err != nil {
			return nil, err
		}
		inTokens := token.New(e.Input[1:]...)

		for _, out := range e.Output {
			if len(out) == 0 {
				return nil, errors.New(errors.ErrCodeInvalidDatafile, "entry %d: empty output", i)
			}
			if len(inputs) > 1 && !hasPlaceholder(out[0]) {
				return nil, errors.New(errors.ErrCodeInvalidInput,
					"%q matches %d files; output %q needs a {name} or {dir} placeholder", pattern, len(inputs), out[0])
			}
			for _, in := range inputs {
				output := Substitute(out[0], in)
				if err := errors.ValidateOutputPath(output); err != nil {
					return nil, err
				}
				jobs = append(jobs, Job{
					ID:     uuid.NewString(),
					Input:  in,
					Output: output,
					Tokens: inTokens.Concat(token.New(out[1:]...)),
				})
			}
		}
	}
	return jobs, nil
}

// Inputs expands a glob pattern to the files it matches, sorted. A plain path
// is returned as is, whether or not it exists; a pattern that matches
// nothing is an error.
func Inputs(pattern string) ([]string, error) {
	if !IsGlob(pattern) {
		return []string{pattern}, nil
	}
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, errors.New(errors.ErrCodeInvalidPath, "invalid glob pattern %q", pattern)
	}
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "expand %q", pattern)
	}
	if len(matches) == 0 {
		return nil, errors.New(errors.ErrCodeFileNotFound, "no files match %q", pattern)
	}
	slices.Sort(matches)
	return matches, nil
}

// IsGlob reports whether path contains glob metacharacters.
func IsGlob(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

// Substitute replaces the {name} and {dir} placeholders in output with the
// corresponding parts of input.
func Substitute(output, input string) string {
	if !hasPlaceholder(output) {
		return output
	}
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	r := strings.NewReplacer("{name}", name, "{dir}", filepath.Dir(input))
	return r.Replace(output)
}

func hasPlaceholder(s string) bool {
	return strings.Contains(s, "{name}") || strings.Contains(s, "{dir}")
}
