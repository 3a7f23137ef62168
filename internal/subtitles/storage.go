// Package subtitles writes downloaded subtitle payloads next to their
// video files.
package subtitles

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/subwatch/subwatch/internal/media"
)

// Storage persists subtitle files beside the media they belong to. Writes
// go through a temp file and rename so a failed write never leaves a
// half-written subtitle behind.
type Storage struct {
	logger zerolog.Logger
}

// NewStorage creates a subtitle storage.
func NewStorage(logger zerolog.Logger) *Storage {
	return &Storage{
		logger: logger.With().Str("component", "subtitle-storage").Logger(),
	}
}

// PathFor returns the on-disk path for a subtitle of the given video:
// "<video>.<lang>.srt", with ".forced" or ".hi" between language and
// extension for those variants.
func PathFor(videoPath string, tag media.LanguageTag) string {
	base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	switch {
	case tag.Forced:
		return fmt.Sprintf("%s.%s.forced.srt", base, tag.Language)
	case tag.HI:
		return fmt.Sprintf("%s.%s.hi.srt", base, tag.Language)
	default:
		return fmt.Sprintf("%s.%s.srt", base, tag.Language)
	}
}

// Write stores the subtitle payload for a video and returns the final path.
// The video file must exist; the caller treats its absence as a metadata
// inconsistency, not a storage failure.
func (s *Storage) Write(videoPath string, tag media.LanguageTag, payload []byte) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("video file not available: %w", err)
	}

	target := PathFor(videoPath, tag)
	tmp := filepath.Join(filepath.Dir(target), "."+uuid.NewString()+".srt.tmp")

	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("failed to write subtitle file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move subtitle into place: %w", err)
	}

	s.logger.Debug().
		Str("path", target).
		Str("language", tag.Key()).
		Int("bytes", len(payload)).
		Msg("Stored subtitle")
	return target, nil
}

// Remove deletes a stored subtitle file. A missing file is not an error.
func (s *Storage) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove subtitle file: %w", err)
	}
	return nil
}

// Exists reports whether a subtitle file is still on disk.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
