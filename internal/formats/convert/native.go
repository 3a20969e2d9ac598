package convert

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// vbaReference matches relationship and content type entries pointing at
// the VBA project, in self-closing or empty element form.
var vbaReference = regexp.MustCompile(`<(?:Relationship|Override|Default)\b[^>]*vbaProject[^>]*?(?:/>|>\s*</(?:Relationship|Override|Default)>)`)

// Native converts macro-enabled workbooks in pure Go. It cannot read the
// binary .xls format.
type Native struct{}

// NewNative returns the excelize backend.
func NewNative() *Native { return &Native{} }

func (n *Native) Name() string { return "excelize" }

// Convert re-saves an .xlsm package with the .xlsx content type and drops
// its VBA project.
func (n *Native) Convert(ctx context.Context, src, dst string) error {
	if strings.ToLower(filepath.Ext(src)) != ".xlsm" {
		return fmt.Errorf("%w: %s (install LibreOffice to convert .xls)", ErrUnsupportedSource, filepath.Ext(src))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := excelize.OpenFile(src)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", src, err)
	}
	defer f.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".sheetkit-*.xlsx")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := f.SaveAs(tmpPath); err != nil {
		return fmt.Errorf("could not save %s: %w", dst, err)
	}

	return stripVBA(tmpPath, dst)
}

func (n *Native) Close() error { return nil }

// stripVBA copies the package at src to dst without its VBA project parts
// and the references to them.
func stripVBA(src, dst string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("could not reopen converted package: %w", err)
	}
	defer zr.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", dst, err)
	}
	zw := zip.NewWriter(out)

	for _, entry := range zr.File {
		name := entry.Name
		if strings.HasPrefix(name, "xl/vbaProject") || name == "xl/_rels/vbaProject.bin.rels" {
			continue
		}
		if err := copyEntry(zw, entry); err != nil {
			zw.Close()
			out.Close()
			return fmt.Errorf("could not write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyEntry(zw *zip.Writer, entry *zip.File) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     entry.Name,
		Method:   zip.Deflate,
		Modified: entry.Modified,
	})
	if err != nil {
		return err
	}

	switch entry.Name {
	case "xl/_rels/workbook.xml.rels", "[Content_Types].xml":
		data, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		_, err = w.Write(vbaReference.ReplaceAll(data, nil))
		return err
	default:
		_, err = io.Copy(w, rc)
		return err
	}
}
