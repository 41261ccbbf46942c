package stash

import (
	"os"
	"path/filepath"
	"strings"
)

// SidecarExtension is the extension of the interactive-script sidecar files
// funbatch produces next to library videos.
const SidecarExtension = ".funscript"

// Scene is the subset of a Stash scene funbatch needs: its identifier and the
// absolute path of its primary video file.
type Scene struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// SidecarPath returns the canonical sidecar location for the scene's video:
// same directory, same base name, .funscript extension.
func (s Scene) SidecarPath() string {
	return SidecarPathFor(s.Path)
}

// HasSidecar reports whether a sidecar already exists at the canonical
// location. The check hits the filesystem so callers get the state at decision
// time, not at enumeration time.
func (s Scene) HasSidecar() bool {
	if s.Path == "" {
		return false
	}
	info, err := os.Stat(s.SidecarPath())
	return err == nil && !info.IsDir()
}

// SidecarPathFor derives the canonical sidecar path for an arbitrary video path.
func SidecarPathFor(videoPath string) string {
	if videoPath == "" {
		return ""
	}
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + SidecarExtension
}
