package convert

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/klytics/sheetkit/internal/config"
)

const sofficeFilter = "xlsx:Calc MS Excel 2007 XML"

// Soffice converts through a headless LibreOffice. One private user
// profile is created at acquisition and shared by every conversion.
type Soffice struct {
	bin     string
	profile string
	staging string
	timeout time.Duration
}

// OpenSoffice finds the soffice binary (explicit path first, then PATH),
// checks that it starts and prepares its profile directory.
func OpenSoffice(ctx context.Context, explicit string, timeout time.Duration) (*Soffice, error) {
	bin := config.FindSoffice(explicit)
	if bin == "" {
		return nil, fmt.Errorf("%w: soffice not found on PATH", ErrNoOfficeApp)
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if out, err := exec.CommandContext(probeCtx, bin, "--version").CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: %s --version failed: %v %s", ErrNoOfficeApp, bin, err, strings.TrimSpace(string(out)))
	}

	profile, err := os.MkdirTemp("", "sheetkit-profile-")
	if err != nil {
		return nil, fmt.Errorf("could not create office profile: %w", err)
	}
	staging, err := os.MkdirTemp("", "sheetkit-staging-")
	if err != nil {
		os.RemoveAll(profile)
		return nil, fmt.Errorf("could not create staging directory: %w", err)
	}

	return &Soffice{bin: bin, profile: profile, staging: staging, timeout: timeout}, nil
}

func (s *Soffice) Name() string { return "soffice" }

// Convert runs one headless conversion into the staging directory and moves
// the result to dst.
func (s *Soffice) Convert(ctx context.Context, src, dst string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profileURL := url.URL{Scheme: "file", Path: filepath.ToSlash(s.profile)}
	cmd := exec.CommandContext(ctx, s.bin,
		"-env:UserInstallation="+profileURL.String(),
		"--headless", "--norestore", "--nolockcheck",
		"--convert-to", sofficeFilter,
		"--outdir", s.staging,
		abs,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("soffice timed out after %s", s.timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("soffice failed: %s", msg)
	}

	stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	produced := filepath.Join(s.staging, stem+".xlsx")
	if _, err := os.Stat(produced); err != nil {
		msg := strings.TrimSpace(stderr.String())
		return fmt.Errorf("soffice produced no output for %s: %s", filepath.Base(src), msg)
	}
	defer os.Remove(produced)

	return copyFile(produced, dst, false)
}

// Close removes the profile and staging directories.
func (s *Soffice) Close() error {
	err := os.RemoveAll(s.staging)
	if perr := os.RemoveAll(s.profile); perr != nil && err == nil {
		err = perr
	}
	return err
}
