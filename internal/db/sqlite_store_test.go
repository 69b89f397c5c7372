package db

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/soaringjerry/Empatia/internal/services"
)

func openTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empatia.db")
	store, err := Open(context.Background(), path, "", opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMigrationsAreIdempotent(t *testing.T) {
	store := openTestStore(t)
	if err := RunMigrations(context.Background(), store.db, ""); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
	var n int
	if err := store.db.Get(&n, `SELECT COUNT(*) FROM schema_migrations`); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 recorded migrations, got %d", n)
	}
}

func TestQuestionPositionIsUnique(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	if _, err := store.db.ExecContext(ctx, `INSERT INTO questions(text, position) VALUES ('a', 1)`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := store.db.ExecContext(ctx, `INSERT INTO questions(text, position) VALUES ('b', 1)`); err == nil {
		t.Fatalf("duplicate display order accepted")
	}
}

func TestAppendListClear(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	store := openTestStore(t, WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))

	for i, total := range []int{12, 20, 27} {
		id, err := store.AppendResponse(ctx, total, services.ProfileFor(total))
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if id != int64(i+1) {
			t.Fatalf("expected id %d, got %d", i+1, id)
		}
	}
	rs, err := store.ListResponses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rs) != 3 || rs[0].Total != 27 || rs[2].Total != 12 {
		t.Fatalf("expected most recent first, got %+v", rs)
	}
	if !rs[0].CreatedAt.Equal(base.Add(3*time.Minute)) {
		t.Fatalf("timestamp did not round-trip: %v", rs[0].CreatedAt)
	}
	if rs[1].Profile != services.ProfileCautious {
		t.Fatalf("unexpected profile %q", rs[1].Profile)
	}

	if err := store.ClearResponses(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.ClearResponses(ctx); err != nil {
		t.Fatalf("clear on empty table: %v", err)
	}
	if n, _ := store.CountResponses(ctx); n != 0 {
		t.Fatalf("expected empty table, got %d", n)
	}
	id, err := store.AppendResponse(ctx, 15, services.ProfileOblivious)
	if err != nil {
		t.Fatalf("append after clear: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected sequence reset, got id %d", id)
	}
}

func TestConcurrentAppendsGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	const writers = 8
	ids := make(chan int64, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := store.AppendResponse(ctx, 20, services.ProfileCautious)
			if err != nil {
				t.Errorf("append: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != writers {
		t.Fatalf("expected %d ids, got %d", writers, len(seen))
	}
}

func TestImportRecordsKeepsTimestamps(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	in := []services.ResponseRecord{
		{CreatedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), Total: 12, Profile: services.ProfileOblivious},
		{CreatedAt: time.Date(2024, 1, 21, 9, 40, 0, 0, time.UTC), Total: 27, Profile: services.ProfileActive},
	}
	n, err := store.ImportRecords(ctx, in)
	if err != nil || n != 2 {
		t.Fatalf("import: %d %v", n, err)
	}
	rs, err := store.ListResponses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !rs[0].CreatedAt.Equal(in[1].CreatedAt) || !rs[1].CreatedAt.Equal(in[0].CreatedAt) {
		t.Fatalf("unexpected order or timestamps: %+v", rs)
	}
}

func TestSeedCatalogAndSchools(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	if err := store.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Seed(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	qs, err := store.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(qs) != DefaultQuestionCount {
		t.Fatalf("expected %d questions, got %d", DefaultQuestionCount, len(qs))
	}
	for i, q := range qs {
		if q.Order != i+1 || len(q.Options) != 3 {
			t.Fatalf("unexpected question %d: %+v", i, q)
		}
	}
	if lo, hi := services.ScoreRange(qs); lo != 10 || hi != 30 {
		t.Fatalf("unexpected score range %d..%d", lo, hi)
	}
	if got := qs[3].Options[0]; got.Text != "Nunca" || got.Score != 3 {
		t.Fatalf("unexpected option %+v", got)
	}

	all, err := store.ListSchools(ctx, services.SchoolFilter{})
	if err != nil {
		t.Fatalf("list schools: %v", err)
	}
	if len(all) != DefaultSchoolCount {
		t.Fatalf("expected %d schools, got %d", DefaultSchoolCount, len(all))
	}
	rjPublic, err := store.ListSchools(ctx, services.SchoolFilter{Region: "RJ", Category: services.CategoryPublic})
	if err != nil {
		t.Fatalf("filter schools: %v", err)
	}
	if len(rjPublic) != 5 {
		t.Fatalf("expected 5 public RJ schools, got %d", len(rjPublic))
	}
}

func TestBoardStore(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	if err := store.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	u, err := store.InsertUser(ctx, &services.User{SchoolID: 1, Name: "Ana", Username: "ana", Email: "ana@example.com", CreatedAt: now})
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := store.InsertUser(ctx, &services.User{SchoolID: 1, Name: "Outra", Username: "ana", Email: "x@example.com", CreatedAt: now}); !services.IsCode(err, services.ErrorConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := store.InsertUser(ctx, &services.User{SchoolID: 999, Name: "X", Username: "x", Email: "y@example.com", CreatedAt: now}); !services.IsCode(err, services.ErrorNotFound) {
		t.Fatalf("expected not found for missing school, got %v", err)
	}
	if _, err := store.GetUser(ctx, 42); !services.IsCode(err, services.ErrorNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	first, err := store.InsertPost(ctx, &services.Post{UserID: u.ID, SchoolID: 1, Title: "Primeiro", Body: "a", CreatedAt: now})
	if err != nil {
		t.Fatalf("insert post: %v", err)
	}
	second, err := store.InsertPost(ctx, &services.Post{UserID: u.ID, SchoolID: 1, Title: "Segundo", Body: "b", CreatedAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("insert post: %v", err)
	}
	if err := store.SetPostResolved(ctx, first.ID, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := store.SetPostResolved(ctx, 999, true); !services.IsCode(err, services.ErrorNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	posts, err := store.ListPosts(ctx, services.PostFilter{SchoolID: 1})
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != second.ID || !posts[1].Resolved {
		t.Fatalf("unexpected posts: %+v", posts)
	}
	open := false
	posts, err = store.ListPosts(ctx, services.PostFilter{Resolved: &open})
	if err != nil || len(posts) != 1 || posts[0].ID != second.ID {
		t.Fatalf("unexpected open posts: %v %+v", err, posts)
	}

	for i, body := range []string{"um", "dois"} {
		if _, err := store.InsertComment(ctx, &services.Comment{PostID: second.ID, UserID: u.ID, Body: body, CreatedAt: now.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("insert comment: %v", err)
		}
	}
	cs, err := store.ListComments(ctx, second.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(cs) != 2 || cs[0].Body != "um" {
		t.Fatalf("expected oldest first, got %+v", cs)
	}
}

func TestParseTimeAcceptsShortForm(t *testing.T) {
	got := parseTime("2024-01-15 10:30:00")
	if !got.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parse: %v", got)
	}
	if !parseTime("garbage").IsZero() {
		t.Fatalf("expected zero time for invalid input")
	}
}

func TestListResponsesTieBreak(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := openTestStore(t, WithClock(func() time.Time { return at }))
	for _, total := range []int{12, 20, 27} {
		if _, err := store.AppendResponse(ctx, total, services.ProfileFor(total)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	rs, err := store.ListResponses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, r := range rs {
		if r.ID != int64(i+1) {
			t.Fatalf("equal timestamps should keep id order, got %+v", rs)
		}
	}
}
