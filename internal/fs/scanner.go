// Package fs finds the workbooks a command should process.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// WorkbookFormats names the spreadsheet extensions sheetkit knows about.
var WorkbookFormats = map[string]string{
	".xlsx": "Excel",
	".xlsm": "Excel (Macro-Enabled)",
	".xls":  "Excel (Legacy)",
}

// FileInfo describes one workbook found by Scan.
type FileInfo struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Extension  string    `json:"extension"`
	Format     string    `json:"format"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// ScanResult holds the workbooks under a directory.
type ScanResult struct {
	RootDir   string     `json:"rootDir"`
	Files     []FileInfo `json:"files"`
	TotalSize int64      `json:"totalSize"`
}

// ScanOptions configures a directory scan.
type ScanOptions struct {
	Recursive  bool
	Extensions []string // empty means every workbook format
}

// IsTempFile reports whether name is an Office lock or temp file
// such as "~$Book1.xlsx" or ".~lock.Book1.xlsx#".
func IsTempFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, "~") || strings.HasPrefix(base, ".~")
}

// MatchesExt reports whether path has one of exts, ignoring case. An empty
// list matches any workbook format.
func MatchesExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if len(exts) == 0 {
		_, ok := WorkbookFormats[ext]
		return ok
	}
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if e == ext {
			return true
		}
	}
	return false
}

// Scan walks root and returns the matching workbooks sorted by path.
// Unreadable entries and Office temp files are skipped.
func Scan(root string, opts ScanOptions) (*ScanResult, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("could not resolve path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("could not access %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	result := &ScanResult{RootDir: root}

	walkFn := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if !opts.Recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if IsTempFile(d.Name()) || !MatchesExt(path, opts.Extensions) {
			return nil
		}

		finfo, err := d.Info()
		if err != nil {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		result.Files = append(result.Files, FileInfo{
			Path:       path,
			Name:       d.Name(),
			Extension:  ext,
			Format:     WorkbookFormats[ext],
			Size:       finfo.Size(),
			ModifiedAt: finfo.ModTime(),
		})
		result.TotalSize += finfo.Size()
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})

	return result, nil
}

// Resolve expands command arguments into a file list. A directory
// contributes its workbooks filtered by exts, a glob its matches filtered
// by exts, and any other argument is taken as given so that unsupported
// files still reach the command. Argument order is kept and repeated paths
// are dropped.
func Resolve(args []string, exts []string, recursive bool) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := p
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, p)
	}

	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			res, err := Scan(arg, ScanOptions{Recursive: recursive, Extensions: exts})
			if err != nil {
				return nil, err
			}
			for _, f := range res.Files {
				add(f.Path)
			}
			continue
		}

		if strings.ContainsAny(arg, "*?[") {
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			for _, m := range matches {
				if IsTempFile(m) || !MatchesExt(m, exts) {
					continue
				}
				add(m)
			}
			continue
		}

		add(arg)
	}

	return files, nil
}

// FormatSize returns a human-readable size.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
