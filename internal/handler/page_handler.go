package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"styleGallery/internal/models"
)

// Visibility toggles the two screens of the page. Exactly one is shown.
type Visibility struct {
	TryOn   bool
	Gallery bool
}

func ShowGallery() Visibility {
	return Visibility{TryOn: false, Gallery: true}
}

func ShowTryOn() Visibility {
	return Visibility{TryOn: true, Gallery: false}
}

type GalleryItem struct {
	Index int
	Post  models.Post
}

type PageData struct {
	View         Visibility
	Description  string
	AutoMask     bool
	AutoCrop     bool
	Output       string
	OutputURL    template.URL
	Status       string
	Error        string
	Posts        []GalleryItem
	GalleryError string
}

const jpegDataURI = "data:image/jpeg;base64,"

func (d *PageData) setOutput(encoded string) {
	d.Output = encoded
	if encoded != "" {
		d.OutputURL = template.URL(jpegDataURI + encoded)
	}
}

// ImageURL turns a stored image location into something a browser can load.
func ImageURL(location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	return "/outfits/" + url.PathEscape(filepath.Base(location))
}

func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	view := ShowTryOn()
	if r.URL.Query().Get("view") == "gallery" {
		view = ShowGallery()
	}

	h.renderPage(w, r, http.StatusOK, PageData{View: view, AutoMask: true})
}

// renderPage builds the whole page, gallery included, from the posts
// stored at the time of the request.
func (h *Handlers) renderPage(w http.ResponseWriter, r *http.Request, status int, data PageData) {
	posts, err := h.PostService.ListPosts(r.Context())
	if err != nil {
		h.Log.Error("failed to load posts for gallery", zap.Error(err))
		_, data.GalleryError, _ = describeError(err)
	}

	data.Posts = make([]GalleryItem, 0, len(posts))
	for i, post := range posts {
		data.Posts = append(data.Posts, GalleryItem{Index: i, Post: post})
	}

	var buf bytes.Buffer
	if err := h.Pages.ExecuteTemplate(&buf, "index.html", data); err != nil {
		h.Log.Error("failed to render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := h.PostService.ListPosts(r.Context())
	if err != nil {
		h.Log.Warn("health check failed", zap.Error(err))
		writeSuccess(w, map[string]interface{}{
			"status": "unavailable",
			"error":  err.Error(),
		}, http.StatusServiceUnavailable)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"status": "ok",
		"posts":  len(posts),
	}, http.StatusOK)
}
