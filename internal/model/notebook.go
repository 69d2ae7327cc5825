package model

type Notebook struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	ParentID string `json:"parent_id"`
	Title    string `json:"title"`
	State    int    `json:"state"`
	Ctime    int64  `json:"ctime"`
	Mtime    int64  `json:"mtime"`
}
