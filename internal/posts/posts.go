// Package posts serves the community feed and its moderation.
package posts

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/denguechat/denguechat-admin/internal/audit"
	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/lookup"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/rbac"
	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/internal/view"
)

// Path is the dashboard and backend path of the collection.
const Path = "/posts"

const excerptLen = 80

// Post is a community post.
type Post struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	CreatedAt     string    `json:"createdAt"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	User          *crud.Ref `json:"user"`
	Team          *crud.Ref `json:"team"`
	Comments      []Comment `json:"comments"`
}

// Comment is a reply to a post.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt string    `json:"createdAt"`
	User      *crud.Ref `json:"user"`
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= excerptLen {
		return s
	}
	return string(r[:excerptLen]) + "…"
}

// Handler serves the post screens and comment moderation.
type Handler struct {
	deps crud.Deps
	res  *crud.Resource[Post]
}

// NewHandler wires the community screens. Reading is open to every
// signed-in user; deleting needs the moderation permission.
func NewHandler(deps crud.Deps) *Handler {
	res := &crud.Resource[Post]{
		Deps:     deps,
		Entity:   "post",
		Path:     Path,
		Singular: "Post",
		Plural:   "Community",
		EditPerm: shared.PermPostsModerate,
		Ops:      crud.OpDelete,
		Store:    crud.Store[Post]{Client: deps.Client, Path: Path, Include: "user,team,comments,comments.user"},
		Table: datatable.Definition[Post]{
			Path: Path,
			Columns: []datatable.Column[Post]{
				{Key: "content", Label: "Post", Value: func(p Post) string { return excerpt(p.Content) },
					Link: func(p Post) string { return Path + "/" + url.PathEscape(p.ID) }},
				{Key: "user", Label: "Author", Value: func(p Post) string { return p.User.Label() }},
				{Key: "team", Label: "Team", Value: func(p Post) string { return p.Team.Label() }},
				{Key: "likes_count", Label: "Likes", Sortable: true, Class: "numeric", Value: func(p Post) string { return strconv.Itoa(p.LikesCount) }},
				{Key: "comments_count", Label: "Comments", Sortable: true, Class: "numeric", Value: func(p Post) string { return strconv.Itoa(p.CommentsCount) }},
				{Key: "created_at", Label: "Published", Sortable: true, Value: func(p Post) string { return view.FormatDate(p.CreatedAt) },
					SortValue: func(p Post) string { return p.CreatedAt }},
			},
			Filters: []datatable.Filter{
				{Name: "q", Label: "Search", Kind: datatable.FilterText, Param: "search"},
				{Name: "team", Label: "Team", Kind: datatable.FilterSelect, Param: "team_id"},
			},
			DefaultSort:  "created_at",
			DefaultOrder: datatable.OrderDesc,
			RowID:        func(p Post) string { return p.ID },
		},
		Label: func(p Post) string { return excerpt(p.Content) },
	}
	h := &Handler{deps: deps, res: res}
	res.FilterOptions = func(r *http.Request) map[string][]form.Option {
		return map[string][]form.Option{"team": deps.Lookup.MustOptions(r.Context(), lookup.Teams, crud.OrgScope(r))}
	}
	res.Details = func(_ *http.Request, p Post) []crud.Detail {
		return []crud.Detail{
			{Label: "Author", Value: p.User.Label()},
			{Label: "Team", Value: p.Team.Label()},
			{Label: "Published", Value: view.FormatDate(p.CreatedAt)},
			{Label: "Likes", Value: strconv.Itoa(p.LikesCount)},
			{Label: "Content", Value: p.Content},
		}
	}
	res.Sections = h.comments
	return h
}

// MountRoutes registers the post routes on a router scoped to Path.
func (h *Handler) MountRoutes(r chi.Router) {
	h.res.Mount(r)
	r.With(h.deps.RBAC.RequireAll(shared.PermPostsModerate)).
		Post("/{id}/comments/{cid}/delete", h.deleteComment)
}

func postURL(id string) string {
	return Path + "/" + url.PathEscape(id)
}

func (h *Handler) comments(r *http.Request, p Post) []crud.Section {
	def := datatable.Definition[Comment]{
		Path: postURL(p.ID),
		Columns: []datatable.Column[Comment]{
			{Key: "content", Label: "Comment", Value: func(c Comment) string { return c.Content }},
			{Key: "user", Label: "Author", Value: func(c Comment) string { return c.User.Label() }},
			{Key: "created_at", Label: "Published", Sortable: true, Value: func(c Comment) string { return view.FormatDate(c.CreatedAt) },
				SortValue: func(c Comment) string { return c.CreatedAt }},
		},
		DefaultSort: "created_at",
		RowID:       func(c Comment) string { return c.ID },
	}
	if profile, ok := shared.ProfileFromContext(r.Context()); ok && rbac.Can(profile, shared.PermPostsModerate) {
		def.Actions = func(c Comment) []datatable.Action {
			return []datatable.Action{{
				Label:   "Delete",
				Href:    postURL(p.ID) + "/comments/" + url.PathEscape(c.ID) + "/delete",
				Method:  "post",
				Confirm: "Delete this comment?",
				Class:   "danger",
			}}
		}
	}
	state := def.Parse(r.URL.Query())
	rows, total := def.Local(state, p.Comments)
	return []crud.Section{{Heading: "Comments", Table: def.Build(state, rows, total)}}
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	postID, id := chi.URLParam(r, "id"), chi.URLParam(r, "cid")
	back := postURL(postID)
	store := crud.Store[Comment]{Client: h.deps.Client, Path: back + "/comments"}
	if err := store.Delete(r.Context(), id); err != nil {
		if api.IsUnauthorized(err) {
			h.deps.Renderer.Fail(w, r, err)
			return
		}
		h.deps.Renderer.RedirectWithFlash(w, r, back, "error", h.deps.Renderer.Message(r, err))
		return
	}
	h.deps.Audit.Record(r.Context(), audit.Event{
		Action:   audit.ActionDelete,
		Entity:   "comment",
		EntityID: id,
		Summary:  id,
		Meta:     map[string]any{"post_id": postID},
	})
	h.deps.Renderer.RedirectWithFlash(w, r, back, "success", "Comment deleted")
}
