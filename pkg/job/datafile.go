package job

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/svgexport/pkg/errors"
)

// ReadDatafile loads the jobs described by a JSON or TOML datafile.
//
// JSON datafiles hold one entry or an array of entries:
//
//	[
//	  {"input": ["icon.svg", "#fff"], "output": [["icon.png", "2x"], ["icon.jpg", "64:"]]},
//	  {"input": "logo.svg", "output": ["logo.png", "pad", "200:100"]}
//	]
//
// TOML datafiles list entries as [[export]] tables:
//
//	[[export]]
//	input = "icons/*.svg"
//	output = [["out/{name}.png", "2x"]]
//
// An input is a path or a path followed by tokens. An output is a path, a
// path followed by tokens, or a list of those. Relative paths are resolved
// against the datafile's directory.
func ReadDatafile(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "datafile %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read datafile %s", path)
	}

	var entries []Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		entries, err = ParseTOML(data)
	default:
		entries, err = ParseJSON(data)
	}
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i := range entries {
		entries[i] = entries[i].relativeTo(base)
	}
	return Expand(entries)
}

// ParseJSON decodes a JSON datafile.
func ParseJSON(data []byte) ([]Entry, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDatafile, err, "parse json")
	}
	switch v := v.(type) {
	case []any:
		return entriesFrom(v)
	case map[string]any:
		e, err := entryFrom(v)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDatafile, err, "entry 0")
		}
		return []Entry{e}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidDatafile, "datafile must hold an object or an array of objects")
	}
}

// ParseTOML decodes a TOML datafile.
func ParseTOML(data []byte) ([]Entry, error) {
	var doc struct {
		Export []map[string]any `toml:"export"`
	}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDatafile, err, "parse toml")
	}
	if len(doc.Export) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDatafile, "no [[export]] tables")
	}
	entries := make([]Entry, 0, len(doc.Export))
	for i, m := range doc.Export {
		e, err := entryFrom(m)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDatafile, err, "export %d", i)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func entriesFrom(list []any) ([]Entry, error) {
	entries := make([]Entry, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidDatafile, "entry %d is not an object", i)
		}
		e, err := entryFrom(m)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDatafile, err, "entry %d", i)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func entryFrom(m map[string]any) (Entry, error) {
	in, err := stringsFrom(m["input"])
	if err != nil {
		return Entry{}, errors.Wrap(errors.ErrCodeInvalidDatafile, err, "input")
	}
	out, err := outputsFrom(m["output"])
	if err != nil {
		return Entry{}, errors.Wrap(errors.ErrCodeInvalidDatafile, err, "output")
	}
	if len(in) == 0 || len(out) == 0 {
		return Entry{}, errors.New(errors.ErrCodeInvalidDatafile, "input and output are required")
	}
	return Entry{Input: in, Output: out}, nil
}

// stringsFrom accepts "path" or ["path", "token", ...].
func stringsFrom(v any) ([]string, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidDatafile, "expected a string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return v, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidDatafile, "expected a string or a list of strings, got %T", v)
	}
}

// outputsFrom accepts "path", ["path", "token", ...] or a list of those.
func outputsFrom(v any) ([][]string, error) {
	list, ok := v.([]any)
	if !ok {
		one, err := stringsFrom(v)
		if err != nil || one == nil {
			return nil, err
		}
		return [][]string{one}, nil
	}

	if flat, err := stringsFrom(list); err == nil {
		return [][]string{flat}, nil
	}

	out := make([][]string, 0, len(list))
	for i, item := range list {
		s, err := stringsFrom(item)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDatafile, err, "output %d", i)
		}
		if len(s) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidDatafile, "output %d is empty", i)
		}
		out = append(out, s)
	}
	return out, nil
}

func (e Entry) relativeTo(dir string) Entry {
	rel := func(p string) string {
		if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "{dir}") {
			return p
		}
		return filepath.Join(dir, p)
	}
	in := append([]string(nil), e.Input...)
	in[0] = rel(in[0])
	out := make([][]string, len(e.Output))
	for i, o := range e.Output {
		o = append([]string(nil), o...)
		o[0] = rel(o[0])
		out[i] = o
	}
	return Entry{Input: in, Output: out}
}
