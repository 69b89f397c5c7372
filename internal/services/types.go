package services

import "time"

type Question struct {
	ID      int64          `json:"id" yaml:"id" db:"id"`
	Text    string         `json:"text" yaml:"text" db:"text"`
	Order   int            `json:"order" yaml:"order" db:"position"`
	Options []AnswerOption `json:"options" yaml:"options" db:"-"`
}

type AnswerOption struct {
	ID         int64  `json:"id" yaml:"id" db:"id"`
	QuestionID int64  `json:"question_id" yaml:"question_id" db:"question_id"`
	Text       string `json:"text" yaml:"text" db:"text"`
	Score      int    `json:"score" yaml:"score" db:"score"`
}

// ResponseRecord is one completed questionnaire. Records are never updated.
type ResponseRecord struct {
	ID        int64     `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Total     int       `json:"total" yaml:"total"`
	Profile   Profile   `json:"profile" yaml:"profile"`
}

type SchoolCategory string

const (
	CategoryPublic  SchoolCategory = "publica"
	CategoryPrivate SchoolCategory = "privada"
)

type School struct {
	ID       int64          `json:"id" db:"id"`
	Name     string         `json:"name" db:"name"`
	Category SchoolCategory `json:"category" db:"category"`
	Region   string         `json:"region" db:"region"`
	District string         `json:"district" db:"district"`
}

type User struct {
	ID        int64     `json:"id" db:"id"`
	SchoolID  int64     `json:"school_id" db:"school_id"`
	Name      string    `json:"name" db:"name"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Post struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	SchoolID  int64     `json:"school_id" db:"school_id"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Resolved  bool      `json:"resolved" db:"resolved"`
}

type Comment struct {
	ID        int64     `json:"id" db:"id"`
	PostID    int64     `json:"post_id" db:"post_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type SchoolFilter struct {
	Region   string
	Category SchoolCategory
}

type PostFilter struct {
	SchoolID int64
	Resolved *bool
}
