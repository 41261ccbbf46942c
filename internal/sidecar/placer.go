package sidecar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"funbatch/internal/services"
	"funbatch/internal/stash"
)

var errNotProduced = errors.New("funscript not produced")

// IsNotProduced reports whether an error means the tool exited cleanly but no
// script could be located under any known placement convention.
func IsNotProduced(err error) bool {
	return errors.Is(err, errNotProduced)
}

// Placer normalizes where a generated funscript ends up. The external tool's
// own placement is authoritative: if it already wrote the script next to the
// video, nothing is copied. Otherwise the script is looked up in the tool's
// output directory and copied to the canonical sidecar path unless copying is
// suppressed.
type Placer struct {
	// OutputDir is the tool-defined directory scripts land in when the tool
	// does not place them next to the video. Empty means adjacent placement
	// is the only convention checked.
	OutputDir string
	// NoCopy leaves the script wherever the tool put it.
	NoCopy bool
}

// Place resolves the final sidecar location for a successfully generated
// video. It returns the path of the script the user should find, or an
// io-tagged error when no script was produced or the copy failed. A
// successful generation with a failed copy is an error for the item: the
// user-visible contract is a sidecar next to the video.
func (p Placer) Place(videoPath string) (string, error) {
	canonical := stash.SidecarPathFor(videoPath)
	if canonical == "" {
		return "", services.Wrap(services.ErrValidation, "sidecar", "place", "video path required", nil)
	}

	if fileExists(canonical) {
		return canonical, nil
	}

	produced := p.producedPath(videoPath)
	if produced == "" {
		return "", services.Wrap(services.ErrIO, "sidecar", "place", videoPath, errNotProduced)
	}

	if p.NoCopy {
		return produced, nil
	}

	if err := copyFileContents(produced, canonical); err != nil {
		return "", services.Wrap(services.ErrIO, "sidecar", "copy", canonical, err)
	}
	return canonical, nil
}

// producedPath looks for the script under the tool's own placement
// conventions, canonical location excluded (the caller already checked it).
func (p Placer) producedPath(videoPath string) string {
	if p.OutputDir == "" {
		return ""
	}
	base := filepath.Base(videoPath)
	name := base[:len(base)-len(filepath.Ext(base))] + stash.SidecarExtension
	candidate := filepath.Join(p.OutputDir, name)
	if fileExists(candidate) {
		return candidate
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func copyFileContents(sourcePath, targetPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dest, err := os.OpenFile(targetPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		return fmt.Errorf("copy data: %w", err)
	}
	if err := dest.Sync(); err != nil {
		dest.Close()
		return fmt.Errorf("sync destination: %w", err)
	}
	if err := dest.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}
	return nil
}
