package db

import (
	"context"
	"strings"

	"github.com/soaringjerry/Empatia/internal/services"
)

type userRow struct {
	ID        int64  `db:"id"`
	SchoolID  int64  `db:"school_id"`
	Name      string `db:"name"`
	Username  string `db:"username"`
	Email     string `db:"email"`
	CreatedAt string `db:"created_at"`
}

func (r userRow) user() *services.User {
	return &services.User{
		ID:        r.ID,
		SchoolID:  r.SchoolID,
		Name:      r.Name,
		Username:  r.Username,
		Email:     r.Email,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

type postRow struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	SchoolID  int64  `db:"school_id"`
	Title     string `db:"title"`
	Body      string `db:"body"`
	CreatedAt string `db:"created_at"`
	Resolved  int64  `db:"resolved"`
}

func (r postRow) post() services.Post {
	return services.Post{
		ID:        r.ID,
		UserID:    r.UserID,
		SchoolID:  r.SchoolID,
		Title:     r.Title,
		Body:      r.Body,
		CreatedAt: parseTime(r.CreatedAt),
		Resolved:  int64ToBool(r.Resolved),
	}
}

type commentRow struct {
	ID        int64  `db:"id"`
	PostID    int64  `db:"post_id"`
	UserID    int64  `db:"user_id"`
	Body      string `db:"body"`
	CreatedAt string `db:"created_at"`
}

func (r commentRow) comment() services.Comment {
	return services.Comment{
		ID:        r.ID,
		PostID:    r.PostID,
		UserID:    r.UserID,
		Body:      r.Body,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

func (s *SQLiteStore) ListSchools(ctx context.Context, f services.SchoolFilter) ([]services.School, error) {
	var (
		where []string
		args  []any
	)
	if f.Region != "" {
		where = append(where, "region = ?")
		args = append(args, f.Region)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	q := `SELECT id, name, category, region, district FROM schools`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY region, name"
	out := []services.School{}
	if err := s.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, s.fail(ctx, "querying schools", err)
	}
	return out, nil
}

func (s *SQLiteStore) GetSchool(ctx context.Context, id int64) (*services.School, error) {
	var sc services.School
	if err := s.db.GetContext(ctx, &sc,
		`SELECT id, name, category, region, district FROM schools WHERE id = ?`, id); err != nil {
		return nil, s.fail(ctx, "school", err)
	}
	return &sc, nil
}

func (s *SQLiteStore) InsertUser(ctx context.Context, u *services.User) (*services.User, error) {
	row := userRow{
		SchoolID:  u.SchoolID,
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: formatTime(u.CreatedAt),
	}
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO users(school_id, name, username, email, created_at)
		 VALUES (:school_id, :name, :username, :email, :created_at)`, row)
	if err != nil {
		return nil, s.fail(ctx, "user", err)
	}
	if row.ID, err = res.LastInsertId(); err != nil {
		return nil, s.fail(ctx, "reading user id", err)
	}
	return row.user(), nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*services.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT id, school_id, name, username, email, created_at FROM users WHERE id = ?`, id); err != nil {
		return nil, s.fail(ctx, "user", err)
	}
	return row.user(), nil
}

func (s *SQLiteStore) InsertPost(ctx context.Context, p *services.Post) (*services.Post, error) {
	row := postRow{
		UserID:    p.UserID,
		SchoolID:  p.SchoolID,
		Title:     p.Title,
		Body:      p.Body,
		CreatedAt: formatTime(p.CreatedAt),
		Resolved:  boolToInt64(p.Resolved),
	}
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO posts(user_id, school_id, title, body, created_at, resolved)
		 VALUES (:user_id, :school_id, :title, :body, :created_at, :resolved)`, row)
	if err != nil {
		return nil, s.fail(ctx, "post", err)
	}
	if row.ID, err = res.LastInsertId(); err != nil {
		return nil, s.fail(ctx, "reading post id", err)
	}
	out := row.post()
	return &out, nil
}

func (s *SQLiteStore) GetPost(ctx context.Context, id int64) (*services.Post, error) {
	var row postRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT id, user_id, school_id, title, body, created_at, resolved FROM posts WHERE id = ?`, id); err != nil {
		return nil, s.fail(ctx, "post", err)
	}
	out := row.post()
	return &out, nil
}

// ListPosts returns posts newest first.
func (s *SQLiteStore) ListPosts(ctx context.Context, f services.PostFilter) ([]services.Post, error) {
	var (
		where []string
		args  []any
	)
	if f.SchoolID > 0 {
		where = append(where, "school_id = ?")
		args = append(args, f.SchoolID)
	}
	if f.Resolved != nil {
		where = append(where, "resolved = ?")
		args = append(args, boolToInt64(*f.Resolved))
	}
	q := `SELECT id, user_id, school_id, title, body, created_at, resolved FROM posts`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, s.fail(ctx, "querying posts", err)
	}
	out := make([]services.Post, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.post())
	}
	return out, nil
}

func (s *SQLiteStore) SetPostResolved(ctx context.Context, id int64, resolved bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE posts SET resolved = ? WHERE id = ?`, boolToInt64(resolved), id)
	if err != nil {
		return s.fail(ctx, "updating post", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.NewNotFoundError("post: not found")
	}
	return nil
}

func (s *SQLiteStore) InsertComment(ctx context.Context, c *services.Comment) (*services.Comment, error) {
	row := commentRow{
		PostID:    c.PostID,
		UserID:    c.UserID,
		Body:      c.Body,
		CreatedAt: formatTime(c.CreatedAt),
	}
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO comments(post_id, user_id, body, created_at)
		 VALUES (:post_id, :user_id, :body, :created_at)`, row)
	if err != nil {
		return nil, s.fail(ctx, "comment", err)
	}
	if row.ID, err = res.LastInsertId(); err != nil {
		return nil, s.fail(ctx, "reading comment id", err)
	}
	out := row.comment()
	return &out, nil
}

// ListComments returns the thread of a post, oldest first.
func (s *SQLiteStore) ListComments(ctx context.Context, postID int64) ([]services.Comment, error) {
	var rows []commentRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, post_id, user_id, body, created_at FROM comments WHERE post_id = ? ORDER BY created_at, id`, postID); err != nil {
		return nil, s.fail(ctx, "querying comments", err)
	}
	out := make([]services.Comment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.comment())
	}
	return out, nil
}
