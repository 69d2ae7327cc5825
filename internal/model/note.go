package model

type Note struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	NotebookID  string `json:"notebook_id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	ContentText string `json:"content_text"`
	Pinned      int    `json:"pinned"`
	State       int    `json:"state"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}

type NoteTag struct {
	UserID string `json:"user_id"`
	NoteID string `json:"note_id"`
	TagID  string `json:"tag_id"`
	Ctime  int64  `json:"ctime"`
}
