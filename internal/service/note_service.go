package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/griffin/internal/model"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
	"github.com/xxxsen/griffin/internal/pkg/frontmatter"
	"github.com/xxxsen/griffin/internal/pkg/timeutil"
	"github.com/xxxsen/griffin/internal/repo"
)

const maxNoteTitleLen = 200

type NoteService struct {
	notes      *repo.NoteRepo
	notebooks  *repo.NotebookRepo
	noteTags   *repo.NoteTagRepo
	tags       *repo.TagRepo
	tasks      *repo.TaskRepo
	embeddings *repo.EmbeddingRepo
	tagSvc     *TagService
}

type NoteDetail struct {
	model.Note
	Tags []model.Tag `json:"tags"`
}

type NoteCreateInput struct {
	NotebookID string
	Title      string
	Content    string
	TagIDs     []string
	TagNames   []string
	Pinned     bool
}

type NoteUpdateInput struct {
	NotebookID *string
	Title      *string
	Content    *string
	TagIDs     []string
	TagNames   []string
}

type NoteListInput struct {
	NotebookID string
	TagID      string
	Pinned     *bool
	Limit      int
	Offset     int
}

func NewNoteService(
	notes *repo.NoteRepo,
	notebooks *repo.NotebookRepo,
	noteTags *repo.NoteTagRepo,
	tags *repo.TagRepo,
	tasks *repo.TaskRepo,
	embeddings *repo.EmbeddingRepo,
	tagSvc *TagService,
) *NoteService {
	return &NoteService{
		notes:      notes,
		notebooks:  notebooks,
		noteTags:   noteTags,
		tags:       tags,
		tasks:      tasks,
		embeddings: embeddings,
		tagSvc:     tagSvc,
	}
}

func (s *NoteService) Create(ctx context.Context, userID string, input NoteCreateInput) (*NoteDetail, error) {
	title, ok := normalizeNoteTitle(input.Title)
	if !ok {
		return nil, appErr.ErrInvalid
	}
	if err := s.requireNotebook(ctx, userID, input.NotebookID); err != nil {
		return nil, err
	}
	tagIDs, err := s.resolveTags(ctx, userID, input.TagIDs, input.TagNames)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	note := &model.Note{
		ID:          newID(),
		UserID:      userID,
		NotebookID:  input.NotebookID,
		Title:       title,
		Content:     input.Content,
		ContentText: PlainText(input.Content),
		State:       repo.StateNormal,
		Ctime:       now,
		Mtime:       now,
	}
	if input.Pinned {
		note.Pinned = 1
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}
	if err := s.linkTags(ctx, userID, note.ID, tagIDs, now); err != nil {
		return nil, err
	}
	return s.detail(ctx, note)
}

func (s *NoteService) Get(ctx context.Context, userID, noteID string) (*NoteDetail, error) {
	note, err := s.notes.GetByID(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, note)
}

func (s *NoteService) List(ctx context.Context, userID string, input NoteListInput) ([]model.Note, error) {
	filter := repo.NoteFilter{
		NotebookID: input.NotebookID,
		Pinned:     input.Pinned,
		Limit:      input.Limit,
		Offset:     input.Offset,
	}
	if input.TagID != "" {
		ids, err := s.noteTags.ListNoteIDsByTag(ctx, userID, input.TagID)
		if err != nil {
			return nil, err
		}
		filter.NoteIDs = ids
		if filter.NoteIDs == nil {
			filter.NoteIDs = []string{}
		}
	}
	return s.notes.List(ctx, userID, filter)
}

func (s *NoteService) Update(ctx context.Context, userID, noteID string, input NoteUpdateInput) (*NoteDetail, error) {
	note, err := s.notes.GetByID(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title, ok := normalizeNoteTitle(*input.Title)
		if !ok {
			return nil, appErr.ErrInvalid
		}
		note.Title = title
	}
	if input.NotebookID != nil && *input.NotebookID != note.NotebookID {
		if err := s.requireNotebook(ctx, userID, *input.NotebookID); err != nil {
			return nil, err
		}
		note.NotebookID = *input.NotebookID
	}
	if input.Content != nil {
		note.Content = *input.Content
		note.ContentText = PlainText(note.Content)
	}
	now := timeutil.NowUnix()
	note.Mtime = now
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, err
	}
	if input.TagIDs != nil || input.TagNames != nil {
		if err := s.replaceTags(ctx, userID, noteID, input.TagIDs, input.TagNames, now); err != nil {
			return nil, err
		}
	}
	return s.detail(ctx, note)
}

func (s *NoteService) SetPinned(ctx context.Context, userID, noteID string, pinned bool) error {
	value := 0
	if pinned {
		value = 1
	}
	return s.notes.UpdatePinned(ctx, userID, noteID, value, timeutil.NowUnix())
}

func (s *NoteService) SetTags(ctx context.Context, userID, noteID string, tagIDs, tagNames []string) (*NoteDetail, error) {
	note, err := s.notes.GetByID(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	if err := s.replaceTags(ctx, userID, noteID, tagIDs, tagNames, now); err != nil {
		return nil, err
	}
	if err := s.notes.Touch(ctx, userID, noteID, now); err != nil {
		return nil, err
	}
	note.Mtime = now
	return s.detail(ctx, note)
}

func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	now := timeutil.NowUnix()
	if err := s.notes.Delete(ctx, userID, noteID, now); err != nil {
		return err
	}
	if err := s.noteTags.DeleteByNote(ctx, userID, noteID); err != nil {
		return err
	}
	if err := s.tasks.ClearNote(ctx, userID, noteID, now); err != nil {
		return err
	}
	if err := s.embeddings.DeleteByNote(ctx, noteID); err != nil {
		logutil.GetLogger(ctx).Warn("delete note embedding failed", zap.String("note_id", noteID), zap.Error(err))
	}
	return nil
}

func (s *NoteService) RenderHTML(ctx context.Context, userID, noteID string) (string, error) {
	note, err := s.notes.GetByID(ctx, userID, noteID)
	if err != nil {
		return "", err
	}
	return RenderHTML(note.Content)
}

// Export renders the note as markdown with a YAML header and returns the
// suggested file name alongside.
func (s *NoteService) Export(ctx context.Context, userID, noteID string) ([]byte, string, error) {
	detail, err := s.Get(ctx, userID, noteID)
	if err != nil {
		return nil, "", err
	}
	meta := frontmatter.Meta{
		Title:   detail.Title,
		Pinned:  detail.Pinned == 1,
		Created: formatUnix(detail.Ctime),
		Updated: formatUnix(detail.Mtime),
	}
	if nb, err := s.notebooks.GetByID(ctx, userID, detail.NotebookID); err == nil {
		meta.Notebook = nb.Title
	}
	for _, tag := range detail.Tags {
		meta.Tags = append(meta.Tags, tag.Name)
	}
	data, err := frontmatter.Format(meta, detail.Content)
	if err != nil {
		return nil, "", err
	}
	return data, exportFileName(detail.Title, detail.ID), nil
}

func (s *NoteService) requireNotebook(ctx context.Context, userID, notebookID string) error {
	if notebookID == "" {
		return appErr.ErrInvalid
	}
	if _, err := s.notebooks.GetByID(ctx, userID, notebookID); err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrInvalid
		}
		return err
	}
	return nil
}

func (s *NoteService) resolveTags(ctx context.Context, userID string, tagIDs, tagNames []string) ([]string, error) {
	ids := uniqueStrings(tagIDs)
	if len(ids) > 0 {
		found, err := s.tags.ListByIDs(ctx, userID, ids)
		if err != nil {
			return nil, err
		}
		if len(found) != len(ids) {
			return nil, appErr.ErrInvalid
		}
	}
	if len(tagNames) > 0 {
		named, err := s.tagSvc.EnsureByNames(ctx, userID, tagNames)
		if err != nil {
			return nil, err
		}
		for _, tag := range named {
			ids = append(ids, tag.ID)
		}
	}
	return uniqueStrings(ids), nil
}

func (s *NoteService) replaceTags(ctx context.Context, userID, noteID string, tagIDs, tagNames []string, now int64) error {
	ids, err := s.resolveTags(ctx, userID, tagIDs, tagNames)
	if err != nil {
		return err
	}
	if err := s.noteTags.DeleteByNote(ctx, userID, noteID); err != nil {
		return err
	}
	return s.linkTags(ctx, userID, noteID, ids, now)
}

func (s *NoteService) linkTags(ctx context.Context, userID, noteID string, tagIDs []string, now int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	items := make([]model.NoteTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		items = append(items, model.NoteTag{UserID: userID, NoteID: noteID, TagID: tagID, Ctime: now})
	}
	return s.noteTags.AddBatch(ctx, items)
}

func (s *NoteService) detail(ctx context.Context, note *model.Note) (*NoteDetail, error) {
	tagIDs, err := s.noteTags.ListTagIDs(ctx, note.UserID, note.ID)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ListByIDs(ctx, note.UserID, tagIDs)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{Note: *note, Tags: tags}, nil
}

func normalizeNoteTitle(title string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" || len([]rune(title)) > maxNoteTitleLen {
		return "", false
	}
	return title, true
}

func uniqueStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func formatUnix(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func exportFileName(title, id string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = id
	}
	return name + ".md"
}
