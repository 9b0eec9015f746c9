package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/localtourx-api/internal/application/media"
	"github.com/localtourx-api/internal/application/post"
	"github.com/localtourx-api/internal/domain"
	"github.com/localtourx-api/internal/transport/http/middleware"
)

const (
	photoField  = "photo"
	maxFormSize = media.MaxImageSize + 1<<20
)

// PostHandler handles post endpoints. Create and update accept either JSON
// with a photo reference or multipart/form-data with a photo file part.
type PostHandler struct {
	posts post.Service
	media media.Service
}

func NewPostHandler(posts post.Service, mediaSvc media.Service) *PostHandler {
	return &PostHandler{posts: posts, media: mediaSvc}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	var req domain.CreatePostRequest
	var uploaded string
	if isMultipart(r) {
		form, err := h.readForm(w, r, caller.UserID)
		if err != nil {
			httpError(w, r, err)
			return
		}
		req = domain.CreatePostRequest{Title: form.value("title"), Body: form.value("body"), Photo: form.value(photoField)}
		uploaded = form.uploaded
	} else if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.posts.Create(r.Context(), caller.UserID, req)
	if err != nil {
		h.discardUpload(r, uploaded)
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, PostEnvelope{Success: true, Message: "post created successfully", Post: p})
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	res, err := h.posts.List(r.Context(), page, limit)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FeedEnvelope{Success: true, PostPage: res})
}

func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	posts, err := h.posts.ListMine(r.Context(), caller.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	writeJSON(w, http.StatusOK, PostsEnvelope{Success: true, Posts: posts})
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PostEnvelope{Success: true, Post: p})
}

func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, h.posts.Like, "post liked")
}

func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, h.posts.Unlike, "post unliked")
}

func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	var req domain.CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.posts.Comment(r.Context(), chi.URLParam(r, "id"), caller.UserID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PostEnvelope{Success: true, Message: "comment added", Post: p})
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	var req domain.UpdatePostRequest
	var uploaded string
	if isMultipart(r) {
		form, err := h.readForm(w, r, caller.UserID)
		if err != nil {
			httpError(w, r, err)
			return
		}
		req = domain.UpdatePostRequest{Title: form.ptr("title"), Body: form.ptr("body"), Photo: form.ptr(photoField)}
		uploaded = form.uploaded
	} else if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.posts.Update(r.Context(), chi.URLParam(r, "id"), caller.UserID, req)
	if err != nil {
		h.discardUpload(r, uploaded)
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PostEnvelope{Success: true, Message: "post updated successfully", Post: p})
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	if err := h.posts.Delete(r.Context(), chi.URLParam(r, "id"), caller.UserID); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "post deleted successfully"})
}

func (h *PostHandler) react(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, postID, userID string) (*domain.Post, error), msg string) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	p, err := fn(r.Context(), chi.URLParam(r, "id"), caller.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PostEnvelope{Success: true, Message: msg, Post: p})
}

// postForm is a parsed multipart post body. A photo file part, when present,
// has already been uploaded and its reference replaces any photo text value.
type postForm struct {
	values   map[string][]string
	uploaded string
}

func (f *postForm) value(key string) string {
	if key == photoField && f.uploaded != "" {
		return f.uploaded
	}
	if v := f.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// ptr returns nil when the form omits key, so partial updates skip it.
func (f *postForm) ptr(key string) *string {
	if key == photoField && f.uploaded != "" {
		return &f.uploaded
	}
	if v, ok := f.values[key]; ok && len(v) > 0 {
		return &v[0]
	}
	return nil
}

func (h *PostHandler) readForm(w http.ResponseWriter, r *http.Request, ownerID string) (*postForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", domain.ErrBadRequest)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	form := &postForm{values: r.MultipartForm.Value}
	f, header, err := r.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid photo part: %w", domain.ErrBadRequest)
	}
	defer f.Close()

	ref, err := h.media.Upload(r.Context(), media.UploadInput{
		Reader:      f,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		OwnerID:     ownerID,
	})
	if err != nil {
		return nil, err
	}
	form.uploaded = ref
	return form, nil
}

// discardUpload removes media uploaded for a request that then failed.
func (h *PostHandler) discardUpload(r *http.Request, ref string) {
	if ref == "" {
		return
	}
	if err := h.media.Delete(r.Context(), ref); err != nil {
		slog.Warn("failed to remove orphaned upload", "ref", ref, "err", err)
	}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// decodeBody reads JSON without running validate tags; the post service
// trims and validates itself.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return false
	}
	return true
}
