package api

import (
	"context"
	"net/http"
	"time"

	"note-taker/internal/credentials"
	"note-taker/internal/workspace"

	"resty.dev/v3"
)

var _ workspace.Persistence = (*Client)(nil)

// User is the account returned by the auth endpoints.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"token"`
}

type note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CategoryID *string   `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (n note) toWorkspace() workspace.Note {
	out := workspace.Note{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.CategoryID != nil {
		out.CategoryID = *n.CategoryID
	}
	return out
}

type noteResponse struct {
	Note note `json:"note"`
}

type listNotesResponse struct {
	Notes []note `json:"notes"`
}

type noteBody struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	CategoryID *string `json:"category_id"`
}

// Category is a category as listed by the server, with its note count.
type Category struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ThemeID    string    `json:"theme_id"`
	NotesCount int64     `json:"notes_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c Category) toWorkspace() workspace.Category {
	return workspace.Category{ID: c.ID, Name: c.Name, ThemeID: c.ThemeID}
}

type categoryResponse struct {
	Category Category `json:"category"`
}

type listCategoriesResponse struct {
	Categories []Category `json:"categories"`
}

type categoryBody struct {
	Name    string `json:"name"`
	ThemeID string `json:"theme_id"`
}

type bulkMoveBody struct {
	NoteIDs    []string `json:"note_ids"`
	CategoryID string   `json:"category_id"`
}

type moveAndDeleteBody struct {
	TargetCategoryID string `json:"target_category_id"`
}

// AffectedResponse reports how many notes an operation touched.
type AffectedResponse struct {
	Affected int64 `json:"affected"`
}

// Health is the /healthz payload.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// SignUp registers an account and stores the returned credential.
func (c *Client) SignUp(ctx context.Context, email, password string) (credentials.Credential, error) {
	return c.authenticate(ctx, "/auth/sign-up", email, password)
}

// SignIn authenticates and stores the returned credential.
func (c *Client) SignIn(ctx context.Context, email, password string) (credentials.Credential, error) {
	return c.authenticate(ctx, "/auth/sign-in", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (credentials.Credential, error) {
	var out authResponse
	err := c.do(ctx, http.MethodPost, path, func(r *resty.Request) {
		r.SetBody(authRequest{Email: email, Password: password}).SetResult(&out)
	})
	if err != nil {
		return credentials.Credential{}, err
	}

	cred := credentials.Credential{
		Token:    out.AccessToken,
		UserID:   out.User.ID,
		Email:    out.User.Email,
		IssuedAt: time.Now().UTC(),
	}
	if c.creds != nil {
		if err := c.creds.Set(cred); err != nil {
			return credentials.Credential{}, err
		}
	}
	return cred, nil
}

// Me returns the account of the current credential.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, "/me", func(r *resty.Request) { r.SetResult(&out) })
	return out, err
}

// Health checks the server. /healthz lives outside the API base, so callers
// usually pass an absolute URL.
func (c *Client) Health(ctx context.Context, path string) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, path, func(r *resty.Request) { r.SetResult(&out) })
	return out, err
}

// ListNotes returns the notes, most recently updated first.
func (c *Client) ListNotes(ctx context.Context) ([]workspace.Note, error) {
	var out listNotesResponse
	if err := c.do(ctx, http.MethodGet, "/notes", func(r *resty.Request) { r.SetResult(&out) }); err != nil {
		return nil, err
	}
	notes := make([]workspace.Note, 0, len(out.Notes))
	for _, n := range out.Notes {
		notes = append(notes, n.toWorkspace())
	}
	return notes, nil
}

// SaveNote creates the note when its id is provisional and updates it otherwise.
func (c *Client) SaveNote(ctx context.Context, n workspace.Note) (workspace.Note, error) {
	body := noteBody{Title: n.Title, Content: n.Content, CategoryID: &n.CategoryID}

	var out noteResponse
	var err error
	if workspace.IsProvisional(n.ID) {
		if n.CategoryID == "" {
			body.CategoryID = nil
		}
		err = c.do(ctx, http.MethodPost, "/notes", func(r *resty.Request) {
			r.SetBody(body).SetResult(&out)
		})
	} else {
		err = c.do(ctx, http.MethodPatch, "/notes/{id}", func(r *resty.Request) {
			r.SetPathParam("id", n.ID).SetBody(body).SetResult(&out)
		})
	}
	if err != nil {
		return workspace.Note{}, err
	}
	return out.Note.toWorkspace(), nil
}

// DeleteNote deletes one note.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notes/{id}", func(r *resty.Request) { r.SetPathParam("id", id) })
}

// BulkReassignNotes moves the notes to targetCategoryID.
func (c *Client) BulkReassignNotes(ctx context.Context, noteIDs []string, targetCategoryID string) error {
	return c.do(ctx, http.MethodPost, "/notes/bulk-move", func(r *resty.Request) {
		r.SetBody(bulkMoveBody{NoteIDs: noteIDs, CategoryID: targetCategoryID})
	})
}

// ListCategoriesWithCounts returns the categories in creation order with their note counts.
func (c *Client) ListCategoriesWithCounts(ctx context.Context) ([]Category, error) {
	var out listCategoriesResponse
	if err := c.do(ctx, http.MethodGet, "/categories", func(r *resty.Request) { r.SetResult(&out) }); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// ListCategories returns the categories in creation order.
func (c *Client) ListCategories(ctx context.Context) ([]workspace.Category, error) {
	cats, err := c.ListCategoriesWithCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]workspace.Category, 0, len(cats))
	for _, cat := range cats {
		out = append(out, cat.toWorkspace())
	}
	return out, nil
}

// SaveCategory creates the category when its id is provisional and updates it otherwise.
func (c *Client) SaveCategory(ctx context.Context, cat workspace.Category) (workspace.Category, error) {
	body := categoryBody{Name: cat.Name, ThemeID: cat.ThemeID}

	var out categoryResponse
	var err error
	if workspace.IsProvisional(cat.ID) {
		err = c.do(ctx, http.MethodPost, "/categories", func(r *resty.Request) {
			r.SetBody(body).SetResult(&out)
		})
	} else {
		err = c.do(ctx, http.MethodPatch, "/categories/{id}", func(r *resty.Request) {
			r.SetPathParam("id", cat.ID).SetBody(body).SetResult(&out)
		})
	}
	if err != nil {
		return workspace.Category{}, err
	}
	return out.Category.toWorkspace(), nil
}

// DeleteCategory deletes the category; its notes become uncategorized server-side.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/categories/{id}", func(r *resty.Request) { r.SetPathParam("id", id) })
}

// DeleteCategoryWithNotes deletes the category and all of its notes in one transaction.
func (c *Client) DeleteCategoryWithNotes(ctx context.Context, id string) (int64, error) {
	var out AffectedResponse
	err := c.do(ctx, http.MethodPost, "/categories/{id}/delete-with-notes", func(r *resty.Request) {
		r.SetPathParam("id", id).SetResult(&out)
	})
	return out.Affected, err
}

// MoveNotesAndDeleteCategory moves every note of id to target, then deletes id, in one transaction.
func (c *Client) MoveNotesAndDeleteCategory(ctx context.Context, id, target string) (int64, error) {
	var out AffectedResponse
	err := c.do(ctx, http.MethodPost, "/categories/{id}/move-notes-and-delete", func(r *resty.Request) {
		r.SetPathParam("id", id).SetBody(moveAndDeleteBody{TargetCategoryID: target}).SetResult(&out)
	})
	return out.Affected, err
}
