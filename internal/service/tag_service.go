package service

import (
	"context"
	"strings"

	"github.com/xxxsen/griffin/internal/model"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
	"github.com/xxxsen/griffin/internal/pkg/timeutil"
	"github.com/xxxsen/griffin/internal/repo"
)

const maxTagNameLen = 64

type TagService struct {
	tags     *repo.TagRepo
	noteTags *repo.NoteTagRepo
}

func NewTagService(tags *repo.TagRepo, noteTags *repo.NoteTagRepo) *TagService {
	return &TagService{tags: tags, noteTags: noteTags}
}

func (s *TagService) Create(ctx context.Context, userID, name string) (*model.Tag, error) {
	name, ok := normalizeTagName(name)
	if !ok {
		return nil, appErr.ErrInvalid
	}
	now := timeutil.NowUnix()
	tag := &model.Tag{
		ID:     newID(),
		UserID: userID,
		Name:   name,
		Ctime:  now,
		Mtime:  now,
	}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// EnsureByNames returns the tags with the given names, creating the missing
// ones. Result order follows the first occurrence of each name.
func (s *TagService) EnsureByNames(ctx context.Context, userID string, names []string) ([]model.Tag, error) {
	wanted := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name, ok := normalizeTagName(raw)
		if !ok {
			return nil, appErr.ErrInvalid
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		wanted = append(wanted, name)
	}
	if len(wanted) == 0 {
		return []model.Tag{}, nil
	}
	existing, err := s.tags.ListByNames(ctx, userID, wanted)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]model.Tag, len(existing))
	for _, tag := range existing {
		byName[tag.Name] = tag
	}
	now := timeutil.NowUnix()
	missing := make([]model.Tag, 0)
	for _, name := range wanted {
		if _, ok := byName[name]; ok {
			continue
		}
		tag := model.Tag{ID: newID(), UserID: userID, Name: name, Ctime: now, Mtime: now}
		missing = append(missing, tag)
		byName[name] = tag
	}
	if err := s.tags.CreateBatch(ctx, missing); err != nil {
		if !appErr.IsConflict(err) {
			return nil, err
		}
		// lost a race with a concurrent create; reload what is there now
		existing, err = s.tags.ListByNames(ctx, userID, wanted)
		if err != nil {
			return nil, err
		}
		for _, tag := range existing {
			byName[tag.Name] = tag
		}
	}
	out := make([]model.Tag, 0, len(wanted))
	for _, name := range wanted {
		out = append(out, byName[name])
	}
	return out, nil
}

func (s *TagService) List(ctx context.Context, userID string) ([]model.Tag, error) {
	return s.tags.List(ctx, userID)
}

func (s *TagService) Rename(ctx context.Context, userID, tagID, name string) (*model.Tag, error) {
	name, ok := normalizeTagName(name)
	if !ok {
		return nil, appErr.ErrInvalid
	}
	if err := s.tags.Rename(ctx, userID, tagID, name, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	return s.tags.GetByID(ctx, userID, tagID)
}

func (s *TagService) Delete(ctx context.Context, userID, tagID string) error {
	if _, err := s.tags.GetByID(ctx, userID, tagID); err != nil {
		return err
	}
	cnt, err := s.noteTags.CountByTag(ctx, userID, tagID)
	if err != nil {
		return err
	}
	if cnt > 0 {
		return appErr.ErrConflict
	}
	return s.tags.Delete(ctx, userID, tagID)
}

func normalizeTagName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxTagNameLen {
		return "", false
	}
	return name, true
}
