package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// BoardStore persists the school bulletin board. Lookups of missing rows return
// a NotFound *ServiceError; unique violations return a Conflict *ServiceError.
type BoardStore interface {
	ListSchools(ctx context.Context, f SchoolFilter) ([]School, error)
	GetSchool(ctx context.Context, id int64) (*School, error)
	InsertUser(ctx context.Context, u *User) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	InsertPost(ctx context.Context, p *Post) (*Post, error)
	GetPost(ctx context.Context, id int64) (*Post, error)
	ListPosts(ctx context.Context, f PostFilter) ([]Post, error)
	SetPostResolved(ctx context.Context, id int64, resolved bool) error
	InsertComment(ctx context.Context, c *Comment) (*Comment, error)
	ListComments(ctx context.Context, postID int64) ([]Comment, error)
}

type NewUser struct {
	SchoolID int64  `json:"school_id" validate:"required,gt=0"`
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,max=20"`
	Email    string `json:"email" validate:"required,email,max=100"`
}

type NewPost struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	SchoolID int64  `json:"school_id" validate:"required,gt=0"`
	Title    string `json:"title" validate:"required,max=200"`
	Body     string `json:"body" validate:"required"`
}

type NewComment struct {
	PostID int64  `json:"post_id" validate:"required,gt=0"`
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Body   string `json:"body" validate:"required"`
}

type BoardService struct {
	store    BoardStore
	validate *validator.Validate
	now      func() time.Time
}

func NewBoardService(store BoardStore) *BoardService {
	return &BoardService{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ValidateStruct runs the `validate` tags of v and converts failures to a
// ValidationError naming the offending fields.
func ValidateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return NewValidationError("invalid input (" + strings.Join(parts, ", ") + ")")
	}
	return NewValidationError(err.Error())
}

func (s *BoardService) ListSchools(ctx context.Context, f SchoolFilter) ([]School, error) {
	f.Region = strings.ToUpper(strings.TrimSpace(f.Region))
	if f.Category != "" && f.Category != CategoryPublic && f.Category != CategoryPrivate {
		return nil, NewValidationError("category must be publica or privada")
	}
	out, err := s.store.ListSchools(ctx, f)
	if err != nil {
		return nil, NewPersistenceError(err)
	}
	return out, nil
}

func (s *BoardService) GetSchool(ctx context.Context, id int64) (*School, error) {
	sc, err := s.store.GetSchool(ctx, id)
	return sc, NewPersistenceError(err)
}

func (s *BoardService) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetSchool(ctx, in.SchoolID); err != nil {
		return nil, NewPersistenceError(err)
	}
	u, err := s.store.InsertUser(ctx, &User{
		SchoolID:  in.SchoolID,
		Name:      in.Name,
		Username:  in.Username,
		Email:     in.Email,
		CreatedAt: s.now(),
	})
	return u, NewPersistenceError(err)
}

func (s *BoardService) GetUser(ctx context.Context, id int64) (*User, error) {
	u, err := s.store.GetUser(ctx, id)
	return u, NewPersistenceError(err)
}

func (s *BoardService) CreatePost(ctx context.Context, in NewPost) (*Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, in.UserID); err != nil {
		return nil, NewPersistenceError(err)
	}
	if _, err := s.store.GetSchool(ctx, in.SchoolID); err != nil {
		return nil, NewPersistenceError(err)
	}
	p, err := s.store.InsertPost(ctx, &Post{
		UserID:    in.UserID,
		SchoolID:  in.SchoolID,
		Title:     in.Title,
		Body:      in.Body,
		CreatedAt: s.now(),
	})
	return p, NewPersistenceError(err)
}

func (s *BoardService) GetPost(ctx context.Context, id int64) (*Post, error) {
	p, err := s.store.GetPost(ctx, id)
	return p, NewPersistenceError(err)
}

// ListPosts returns posts newest first.
func (s *BoardService) ListPosts(ctx context.Context, f PostFilter) ([]Post, error) {
	if f.SchoolID > 0 {
		if _, err := s.store.GetSchool(ctx, f.SchoolID); err != nil {
			return nil, NewPersistenceError(err)
		}
	}
	out, err := s.store.ListPosts(ctx, f)
	if err != nil {
		return nil, NewPersistenceError(err)
	}
	return out, nil
}

func (s *BoardService) ResolvePost(ctx context.Context, id int64) (*Post, error) {
	if err := s.store.SetPostResolved(ctx, id, true); err != nil {
		return nil, NewPersistenceError(err)
	}
	return s.GetPost(ctx, id)
}

func (s *BoardService) AddComment(ctx context.Context, in NewComment) (*Comment, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPost(ctx, in.PostID); err != nil {
		return nil, NewPersistenceError(err)
	}
	if _, err := s.store.GetUser(ctx, in.UserID); err != nil {
		return nil, NewPersistenceError(err)
	}
	c, err := s.store.InsertComment(ctx, &Comment{
		PostID:    in.PostID,
		UserID:    in.UserID,
		Body:      in.Body,
		CreatedAt: s.now(),
	})
	return c, NewPersistenceError(err)
}

// ListComments returns the thread of a post, oldest first.
func (s *BoardService) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, NewPersistenceError(err)
	}
	out, err := s.store.ListComments(ctx, postID)
	if err != nil {
		return nil, NewPersistenceError(err)
	}
	return out, nil
}
