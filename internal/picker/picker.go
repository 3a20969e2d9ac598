// Package picker asks the user for workbooks on the terminal when a command
// is run without file arguments.
package picker

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/klytics/sheetkit/internal/fs"
)

// Picker collects paths, globs or directories one per line until an empty
// line or Ctrl+D. Ctrl+C cancels the selection.
type Picker struct {
	Title      string
	Extensions []string
	Recursive  bool
	Out        io.Writer
}

// Interactive reports whether stdin and stdout are both terminals.
func Interactive() bool {
	in, out := os.Stdin.Fd(), os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}

// Pick runs the prompt and returns the selected files in entry order.
func (p *Picker) Pick() ([]string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "file> ",
		AutoComplete:    &pathCompleter{exts: p.Extensions},
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return nil, err
	}
	defer rl.Close()

	return p.collect(rl.Readline)
}

func (p *Picker) collect(next func() (string, error)) ([]string, error) {
	out := p.Out
	if out == nil {
		out = os.Stdout
	}

	color.New(color.FgCyan, color.Bold).Fprintln(out, p.Title)
	fmt.Fprintf(out, "Enter a file, folder or pattern (%s). Tab completes, empty line finishes.\n", strings.Join(p.Extensions, " "))

	var files []string
	seen := make(map[string]bool)
	for {
		line, err := next()
		if errors.Is(err, readline.ErrInterrupt) {
			return nil, nil
		}
		if err != nil {
			break
		}
		line = strings.Trim(strings.TrimSpace(line), `"'`)
		if line == "" {
			break
		}

		found, err := fs.Resolve([]string{line}, p.Extensions, p.Recursive)
		if err != nil {
			color.New(color.FgYellow).Fprintf(out, "  %v\n", err)
			continue
		}
		added := 0
		for _, f := range found {
			if _, err := os.Stat(f); err != nil {
				continue
			}
			if seen[f] {
				continue
			}
			seen[f] = true
			files = append(files, f)
			added++
		}
		if added == 0 {
			color.New(color.FgYellow).Fprintf(out, "  no matching files for %s\n", line)
			continue
		}
		fmt.Fprintf(out, "  + %d file(s), %d selected\n", added, len(files))
	}

	return files, nil
}

type pathCompleter struct {
	exts []string
}

// Do completes the last path element of the line against the filesystem.
func (c *pathCompleter) Do(line []rune, pos int) ([][]rune, int) {
	typed := string(line[:pos])
	_, prefix := filepath.Split(typed)

	cands := Complete(typed, c.exts)
	out := make([][]rune, 0, len(cands))
	for _, cand := range cands {
		out = append(out, []rune(strings.TrimPrefix(cand, prefix)))
	}
	return out, len([]rune(prefix))
}

// Complete lists entry names in the directory of typed that start with its
// last element. Directories end in a separator; files are limited to exts.
func Complete(typed string, exts []string) []string {
	dir, prefix := filepath.Split(typed)
	readDir := dir
	if readDir == "" {
		readDir = "."
	}

	entries, err := os.ReadDir(readDir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || fs.IsTempFile(name) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}
		if e.IsDir() {
			names = append(names, name+string(filepath.Separator))
			continue
		}
		if fs.MatchesExt(name, exts) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Select resolves args into files. With no args it prompts when the
// terminal is interactive and returns nothing otherwise.
func Select(args, exts []string, recursive bool, title string) ([]string, error) {
	if len(args) > 0 {
		return fs.Resolve(args, exts, recursive)
	}
	if !Interactive() {
		return nil, nil
	}
	p := &Picker{Title: title, Extensions: exts, Recursive: recursive}
	return p.Pick()
}
