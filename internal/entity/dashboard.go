package entity

import "time"

type WeeklyTarget struct {
	ID          string    `db:"id" json:"id"`
	Task        string    `db:"task" json:"task"`
	Category    string    `db:"category" json:"category"`
	Position    int       `db:"position" json:"-"`
	IsCompleted bool      `db:"completed" json:"is_completed"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type ChecklistList string

const (
	ChecklistDailyOS   ChecklistList = "daily_os"
	ChecklistSpiritual ChecklistList = "spiritual"
)

type ChecklistItem struct {
	List    ChecklistList `json:"list"`
	Index   int           `json:"index"`
	Label   string        `json:"label"`
	Checked bool          `json:"checked"`
}

type FocusRating struct {
	Title  string `db:"title" json:"title"`
	Rating int    `db:"rating" json:"rating"`
}
