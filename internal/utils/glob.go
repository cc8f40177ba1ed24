package utils

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/shlex"
)

// ExpandPaths resolves each argument as a file path or a doublestar glob
// (`scans/**/*.pdf`). A leading `~` is expanded first, and an argument naming
// an existing file is taken literally even if it contains glob characters
// (`report [1].pdf`). Order follows the arguments; matches of a single glob
// are sorted. Duplicates are dropped, directories are skipped.
func ExpandPaths(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(args))

	for _, arg := range args {
		resolved, err := ResolvePath(arg)
		if err != nil {
			return nil, fmt.Errorf("bad path %q: %w", arg, err)
		}

		var matches []string
		if FileExists(resolved) {
			matches = []string{resolved}
		} else {
			matches, err = doublestar.FilepathGlob(resolved, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %q", arg)
			}
			sort.Strings(matches)
		}

		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, err
			}
			if _, ok := seen[abs]; ok {
				continue
			}
			seen[abs] = struct{}{}
			out = append(out, abs)
		}
	}

	return out, nil
}

// SplitPathList splits picker input into path arguments. Whitespace separates
// arguments unless quoted or escaped (`"my scans/*.pdf"`, `a\ b.pdf`). Input
// that names one existing file is returned whole, so unquoted paths with
// spaces work too.
func SplitPathList(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	if resolved, err := ResolvePath(input); err == nil && FileExists(resolved) {
		return []string{input}, nil
	}

	args, err := shlex.Split(input)
	if err != nil {
		return nil, fmt.Errorf("bad input: %w", err)
	}
	return args, nil
}
