package acquisition

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/subwatch/subwatch/internal/history"
	"github.com/subwatch/subwatch/internal/media"
	"github.com/subwatch/subwatch/internal/notify"
	"github.com/subwatch/subwatch/internal/profile"
	"github.com/subwatch/subwatch/internal/subtitles"
)

// UploadSubtitle stores a user-provided subtitle payload for an item and
// language, replacing any existing subtitle for that language.
func (s *Service) UploadSubtitle(ctx context.Context, itemID int64, languageKey string, payload []byte) (string, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return "", err
	}

	tag, err := media.ParseTag(languageKey)
	if err != nil {
		return "", err
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty subtitle payload")
	}

	if _, err := os.Stat(item.Path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrMediaFileMissing, item.Path)
	}

	path, err := s.storage.Write(item.Path, tag, payload)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrMediaFileMissing, item.Path)
		}
		return "", &PersistenceError{Path: subtitles.PathFor(item.Path, tag), Err: err}
	}

	subs := item.Subtitles.Upsert(media.SubtitleDescriptor{LanguageTag: tag, Path: path})
	prof, err := s.profileFor(ctx, item)
	if err != nil {
		return "", err
	}
	missing := profile.ComputeMissing(prof, subs, item.AudioLanguages)
	if err := s.items.UpdateSubtitles(ctx, item.ID, subs, missing); err != nil {
		s.storage.Remove(path)
		return "", &PersistenceError{Path: path, Err: err}
	}

	if _, err := s.history.Create(ctx, history.CreateInput{
		Action:       history.ActionManuallyUploaded,
		Kind:         item.Kind,
		ItemID:       item.ID,
		Language:     tag.Key(),
		VideoPath:    item.Path,
		SubtitlePath: path,
	}); err != nil {
		s.logger.Error().Err(err).Msg("Failed to append upload history event")
	}

	s.logger.Info().
		Int64("itemId", item.ID).
		Str("language", tag.Key()).
		Str("path", path).
		Msg("Stored manually uploaded subtitle")
	return path, nil
}

// DeleteSubtitle removes a stored subtitle from disk and from the item,
// which puts the language back into the missing set when the profile still
// wants it.
func (s *Service) DeleteSubtitle(ctx context.Context, itemID int64, languageKey string) error {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return err
	}

	tag, err := media.ParseTag(languageKey)
	if err != nil {
		return err
	}

	desc, ok := item.Subtitles.Find(tag)
	if !ok {
		return fmt.Errorf("no %s subtitle on item %d", languageKey, itemID)
	}
	if err := s.storage.Remove(desc.Path); err != nil {
		return err
	}

	subs := item.Subtitles.Remove(tag)
	prof, err := s.profileFor(ctx, item)
	if err != nil {
		return err
	}
	missing := profile.ComputeMissing(prof, subs, item.AudioLanguages)
	if err := s.items.UpdateSubtitles(ctx, item.ID, subs, missing); err != nil {
		return err
	}

	if _, err := s.history.Create(ctx, history.CreateInput{
		Action:       history.ActionDeleted,
		Kind:         item.Kind,
		ItemID:       item.ID,
		Language:     tag.Key(),
		VideoPath:    item.Path,
		SubtitlePath: desc.Path,
	}); err != nil {
		s.logger.Error().Err(err).Msg("Failed to append delete history event")
	}
	return nil
}

// Blacklist records a provider subtitle as unusable for an item, removes
// it from disk if it is the stored subtitle for its language, and appends
// a history event. A re-search for the language is left to the caller.
func (s *Service) Blacklist(ctx context.Context, itemID int64, providerName, subtitleID, languageKey string) error {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return err
	}

	tag, err := media.ParseTag(languageKey)
	if err != nil {
		return err
	}

	if err := s.blacklist.Add(ctx, item.ID, providerName, subtitleID, tag); err != nil {
		return err
	}

	if desc, ok := item.Subtitles.Find(tag); ok {
		if err := s.storage.Remove(desc.Path); err != nil {
			s.logger.Warn().Err(err).Str("path", desc.Path).Msg("Failed to remove blacklisted subtitle file")
		}
		subs := item.Subtitles.Remove(tag)
		prof, err := s.profileFor(ctx, item)
		if err != nil {
			return err
		}
		missing := profile.ComputeMissing(prof, subs, item.AudioLanguages)
		if err := s.items.UpdateSubtitles(ctx, item.ID, subs, missing); err != nil {
			return err
		}
	}

	if _, err := s.history.Create(ctx, history.CreateInput{
		Action:      history.ActionBlacklisted,
		Kind:        item.Kind,
		ItemID:      item.ID,
		Language:    tag.Key(),
		Provider:    providerName,
		VideoPath:   item.Path,
		Description: subtitleID,
	}); err != nil {
		s.logger.Error().Err(err).Msg("Failed to append blacklist history event")
	}

	s.notifier.Notify(ctx, notify.EventBlacklisted, map[string]any{
		"itemId":     item.ID,
		"title":      item.DisplayTitle(),
		"language":   tag.Key(),
		"provider":   providerName,
		"subtitleId": subtitleID,
	})
	return nil
}
