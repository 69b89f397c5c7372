package api

import (
	"net/http"
	"strconv"

	"github.com/soaringjerry/Empatia/internal/services"
)

func (rt *Router) handleListSchools(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := rt.deps.Board.ListSchools(r.Context(), services.SchoolFilter{
		Region:   q.Get("region"),
		Category: services.SchoolCategory(q.Get("category")),
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schools": out})
}

func (rt *Router) handleGetSchool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	sc, err := rt.deps.Board.GetSchool(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// GET /api/schools/{id}/posts?resolved=true|false
func (rt *Router) handleSchoolPosts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	f, err := postFilter(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	f.SchoolID = id
	rt.writePosts(w, r, f)
}

// GET /api/posts?school_id=N&resolved=true|false
func (rt *Router) handleListPosts(w http.ResponseWriter, r *http.Request) {
	f, err := postFilter(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("school_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			rt.writeError(w, r, services.NewValidationError("invalid school_id"))
			return
		}
		f.SchoolID = id
	}
	rt.writePosts(w, r, f)
}

func (rt *Router) writePosts(w http.ResponseWriter, r *http.Request, f services.PostFilter) {
	out, err := rt.deps.Board.ListPosts(r.Context(), f)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": out})
}

func postFilter(r *http.Request) (services.PostFilter, error) {
	var f services.PostFilter
	if raw := r.URL.Query().Get("resolved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, services.NewValidationError("resolved must be true or false")
		}
		f.Resolved = &v
	}
	return f, nil
}

func (rt *Router) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in services.NewUser
	if err := decodeJSON(w, r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	u, err := rt.deps.Board.CreateUser(r.Context(), in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (rt *Router) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	u, err := rt.deps.Board.GetUser(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (rt *Router) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in services.NewPost
	if err := decodeJSON(w, r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	p, err := rt.deps.Board.CreatePost(r.Context(), in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (rt *Router) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	p, err := rt.deps.Board.GetPost(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (rt *Router) handleResolvePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	p, err := rt.deps.Board.ResolvePost(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (rt *Router) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	out, err := rt.deps.Board.ListComments(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": out})
}

// POST /api/posts/{id}/comments {"user_id":N,"body":"..."}
func (rt *Router) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var in services.NewComment
	if err := decodeJSON(w, r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	in.PostID = id
	c, err := rt.deps.Board.AddComment(r.Context(), in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
