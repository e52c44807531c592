// Package viewer hands generated panels to the platform image viewer.
package viewer

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"runtime"

	"github.com/disintegration/imaging"
)

// Opener starts an external program for path.
type Opener func(ctx context.Context, path string) error

// Viewer shows images with an Opener.
type Viewer struct {
	open Opener
}

// New returns a Viewer that uses the system viewer. A nil opener selects the
// platform default.
func New(open Opener) *Viewer {
	if open == nil {
		open = SystemOpen
	}
	return &Viewer{open: open}
}

// Open shows an image file that already exists on disk.
func (v *Viewer) Open(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot show %s: %w", path, err)
	}
	return v.open(ctx, path)
}

// Show writes img to a temporary PNG and opens it. The file is left behind
// for the viewer, which usually outlives the process.
func (v *Viewer) Show(ctx context.Context, img image.Image) (string, error) {
	f, err := os.CreateTemp("", "panelgen-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()

	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to encode preview: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write preview: %w", err)
	}

	return path, v.open(ctx, path)
}

// SystemOpen opens path with the default application for its type. The
// viewer is not tied to ctx once started.
func SystemOpen(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path) //nolint:noctx
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", path) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path) //nolint:noctx
	default:
		return fmt.Errorf("no image viewer known for %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start viewer: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
