package service

import (
	"bytes"
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/griffin/internal/ai"
	"github.com/xxxsen/griffin/internal/filestore"
	"github.com/xxxsen/griffin/internal/model"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
	"github.com/xxxsen/griffin/internal/pkg/timeutil"
	"github.com/xxxsen/griffin/internal/repo"
)

type MediaService struct {
	media   *repo.MediaRepo
	notes   *repo.NoteRepo
	store   filestore.Store
	manager *ai.Manager
}

type MediaUploadInput struct {
	NoteID      string
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
	Transcribe  bool
}

type SpeechInput struct {
	NoteID string
	Text   string
	Voice  string
}

func NewMediaService(media *repo.MediaRepo, notes *repo.NoteRepo, store filestore.Store, manager *ai.Manager) *MediaService {
	return &MediaService{media: media, notes: notes, store: store, manager: manager}
}

// Upload stores the content and records it. When Transcribe is set on audio
// uploads a transcription failure is logged and the media is still returned.
func (s *MediaService) Upload(ctx context.Context, userID string, input MediaUploadInput) (*model.Media, error) {
	if input.Reader == nil || input.Size <= 0 {
		return nil, appErr.ErrInvalid
	}
	if err := s.requireNote(ctx, userID, input.NoteID); err != nil {
		return nil, err
	}
	contentType := normalizeContentType(input.ContentType, input.Filename)
	item, err := s.save(ctx, userID, input.NoteID, input.Filename, contentType, input.Size, input.Reader)
	if err != nil {
		return nil, err
	}
	if input.Transcribe && item.Kind == model.MediaKindAudio {
		if _, err := s.Transcribe(ctx, userID, item.ID); err != nil {
			logutil.GetLogger(ctx).Warn("transcribe upload failed", zap.String("media_id", item.ID), zap.Error(err))
		} else if fresh, err := s.media.GetByID(ctx, userID, item.ID); err == nil {
			item = fresh
		}
	}
	return item, nil
}

func (s *MediaService) Get(ctx context.Context, userID, id string) (*model.Media, error) {
	return s.media.GetByID(ctx, userID, id)
}

// Open returns the media record with a reader over its content. The caller
// closes the reader.
func (s *MediaService) Open(ctx context.Context, userID, id string) (*model.Media, io.ReadCloser, error) {
	item, err := s.media.GetByID(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, item.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return item, rc, nil
}

// OpenByKey serves raw store objects by key for the owning user.
func (s *MediaService) OpenByKey(ctx context.Context, userID, key string) (*model.Media, io.ReadCloser, error) {
	if !filestore.ValidKey(key) {
		return nil, nil, appErr.ErrInvalid
	}
	item, err := s.media.GetByStorageKey(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if item.UserID != userID {
		return nil, nil, appErr.ErrNotFound
	}
	rc, err := s.store.Open(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	return item, rc, nil
}

func (s *MediaService) StoreType() string {
	return s.store.Type()
}

func (s *MediaService) Delete(ctx context.Context, userID, id string) error {
	item, err := s.media.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.media.Delete(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, item.StorageKey); err != nil {
		logutil.GetLogger(ctx).Warn("delete media object failed", zap.String("key", item.StorageKey), zap.Error(err))
	}
	return nil
}

func (s *MediaService) Transcribe(ctx context.Context, userID, id string) (*model.Media, error) {
	item, err := s.media.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if item.Kind != model.MediaKindAudio {
		return nil, appErr.ErrInvalid
	}
	rc, err := s.store.Open(ctx, item.StorageKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	text, err := s.manager.Transcribe(ctx, item.Filename, rc)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if err := s.media.UpdateTranscript(ctx, userID, id, text); err != nil {
		return nil, err
	}
	item.Transcript = text
	return item, nil
}

// Speech synthesizes text and stores the audio as a media item whose
// transcript is the source text.
func (s *MediaService) Speech(ctx context.Context, userID string, input SpeechInput) (*model.Media, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, appErr.ErrInvalid
	}
	if err := s.requireNote(ctx, userID, input.NoteID); err != nil {
		return nil, err
	}
	audio, err := s.manager.Speech(ctx, input.Voice, text)
	if err != nil {
		return nil, err
	}
	ext := audio.Extension
	if ext == "" {
		ext = "mp3"
	}
	contentType := audio.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	item, err := s.save(ctx, userID, input.NoteID, "speech."+strings.TrimPrefix(ext, "."), contentType, int64(len(audio.Data)), bytes.NewReader(audio.Data))
	if err != nil {
		return nil, err
	}
	if err := s.media.UpdateTranscript(ctx, userID, item.ID, text); err != nil {
		return nil, err
	}
	item.Transcript = text
	return item, nil
}

func (s *MediaService) save(ctx context.Context, userID, noteID, filename, contentType string, size int64, r io.Reader) (*model.Media, error) {
	id := newID()
	key := id + storageExt(filename)
	if err := s.store.Save(ctx, key, r, size, contentType); err != nil {
		return nil, err
	}
	item := &model.Media{
		ID:          id,
		UserID:      userID,
		NoteID:      noteID,
		Kind:        mediaKind(contentType),
		StorageKey:  key,
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		Size:        size,
		Ctime:       timeutil.NowUnix(),
	}
	if err := s.media.Create(ctx, item); err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, err
	}
	return item, nil
}

func (s *MediaService) requireNote(ctx context.Context, userID, noteID string) error {
	if noteID == "" {
		return nil
	}
	if _, err := s.notes.GetByID(ctx, userID, noteID); err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrInvalid
		}
		return err
	}
	return nil
}

func mediaKind(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return model.MediaKindImage
	case strings.HasPrefix(contentType, "audio/"):
		return model.MediaKindAudio
	default:
		return model.MediaKindFile
	}
}

func normalizeContentType(contentType, filename string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType != "application/octet-stream" {
		return mediaType
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			return mediaType
		}
	}
	return "application/octet-stream"
}

func storageExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}
