package model

type Question struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	NoteID   string `json:"note_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Ctime    int64  `json:"ctime"`
	Mtime    int64  `json:"mtime"`
}
