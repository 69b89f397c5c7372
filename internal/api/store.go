package api

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/soaringjerry/Empatia/internal/services"
)

// MemoryStore keeps everything in process memory. It mirrors the SQLite store's
// ordering and error semantics and is used for tests and storage "memory".
type MemoryStore struct {
	mu        sync.RWMutex
	now       func() time.Time
	questions []services.Question
	responses []services.ResponseRecord
	nextResp  int64

	schools  map[int64]services.School
	users    map[int64]services.User
	posts    map[int64]services.Post
	comments []services.Comment
	nextUser int64
	nextPost int64
	nextCmt  int64
}

func NewMemoryStore(questions []services.Question, schools []services.School) *MemoryStore {
	s := &MemoryStore{
		now:       func() time.Time { return time.Now().UTC() },
		questions: append([]services.Question(nil), questions...),
		schools:   map[int64]services.School{},
		users:     map[int64]services.User{},
		posts:     map[int64]services.Post{},
	}
	for _, sc := range schools {
		s.schools[sc.ID] = sc
	}
	sort.SliceStable(s.questions, func(i, j int) bool { return s.questions[i].Order < s.questions[j].Order })
	return s
}

// SetClock replaces the timestamp source used by AppendResponse.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) ListQuestions(_ context.Context) ([]services.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]services.Question, len(s.questions))
	for i, q := range s.questions {
		q.Options = append([]services.AnswerOption{}, q.Options...)
		out[i] = q
	}
	return out, nil
}

func (s *MemoryStore) AppendResponse(_ context.Context, total int, profile services.Profile) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextResp++
	s.responses = append(s.responses, services.ResponseRecord{
		ID:        s.nextResp,
		CreatedAt: s.now().UTC(),
		Total:     total,
		Profile:   profile,
	})
	return s.nextResp, nil
}

// ListResponses returns a copy, most recent first; equal timestamps keep id order.
func (s *MemoryStore) ListResponses(_ context.Context) ([]services.ResponseRecord, error) {
	s.mu.RLock()
	out := append([]services.ResponseRecord(nil), s.responses...)
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ClearResponses(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = nil
	s.nextResp = 0
	return nil
}

func (s *MemoryStore) ImportRecords(_ context.Context, rs []services.ResponseRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rs {
		s.nextResp++
		r.ID = s.nextResp
		if r.CreatedAt.IsZero() {
			r.CreatedAt = s.now()
		}
		r.CreatedAt = r.CreatedAt.UTC()
		s.responses = append(s.responses, r)
	}
	return len(rs), nil
}

func (s *MemoryStore) ListSchools(_ context.Context, f services.SchoolFilter) ([]services.School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []services.School{}
	for _, sc := range s.schools {
		if f.Region != "" && sc.Region != f.Region {
			continue
		}
		if f.Category != "" && sc.Category != f.Category {
			continue
		}
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemoryStore) GetSchool(_ context.Context, id int64) (*services.School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schools[id]
	if !ok {
		return nil, services.NewNotFoundError("school: not found")
	}
	return &sc, nil
}

func (s *MemoryStore) InsertUser(_ context.Context, u *services.User) (*services.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schools[u.SchoolID]; !ok {
		return nil, services.NewNotFoundError("user: referenced row does not exist")
	}
	for _, existing := range s.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return nil, services.NewConflictError("user: already exists")
		}
	}
	s.nextUser++
	cp := *u
	cp.ID = s.nextUser
	s.users[cp.ID] = cp
	return &cp, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id int64) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, services.NewNotFoundError("user: not found")
	}
	return &u, nil
}

func (s *MemoryStore) InsertPost(_ context.Context, p *services.Post) (*services.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, userOK := s.users[p.UserID]
	_, schoolOK := s.schools[p.SchoolID]
	if !userOK || !schoolOK {
		return nil, services.NewNotFoundError("post: referenced row does not exist")
	}
	s.nextPost++
	cp := *p
	cp.ID = s.nextPost
	s.posts[cp.ID] = cp
	return &cp, nil
}

func (s *MemoryStore) GetPost(_ context.Context, id int64) (*services.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, services.NewNotFoundError("post: not found")
	}
	return &p, nil
}

func (s *MemoryStore) ListPosts(_ context.Context, f services.PostFilter) ([]services.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []services.Post{}
	for _, p := range s.posts {
		if f.SchoolID > 0 && p.SchoolID != f.SchoolID {
			continue
		}
		if f.Resolved != nil && p.Resolved != *f.Resolved {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) SetPostResolved(_ context.Context, id int64, resolved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return services.NewNotFoundError("post: not found")
	}
	p.Resolved = resolved
	s.posts[id] = p
	return nil
}

func (s *MemoryStore) InsertComment(_ context.Context, c *services.Comment) (*services.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, postOK := s.posts[c.PostID]
	_, userOK := s.users[c.UserID]
	if !postOK || !userOK {
		return nil, services.NewNotFoundError("comment: referenced row does not exist")
	}
	s.nextCmt++
	cp := *c
	cp.ID = s.nextCmt
	s.comments = append(s.comments, cp)
	return &cp, nil
}

func (s *MemoryStore) ListComments(_ context.Context, postID int64) ([]services.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []services.Comment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
