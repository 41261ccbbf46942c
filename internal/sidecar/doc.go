// Package sidecar resolves where generated funscript files end up.
//
// The external tool's own placement is authoritative. When the script is not
// written next to the video, the placer finds it in the configured output
// directory and copies it to the canonical sidecar path.
package sidecar
