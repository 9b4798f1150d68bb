package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"styleGallery/internal/models"
	"styleGallery/internal/service"
)

type PostResponse struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Image    string `json:"image"`
	ImageURL string `json:"imageUrl"`
	Likes    int    `json:"likes"`
	Dislikes int    `json:"dislikes"`
}

type PostsGetResponse struct {
	Posts []PostResponse `json:"posts"`
	Total int            `json:"total"`
}

type VoteRequest struct {
	Action string `json:"action" validate:"required"`
}

type VoteResponse struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Counters string `json:"counters"`
}

// PostOutfitPage publishes the output currently previewed on the page.
func (h *Handlers) PostOutfitPage(w http.ResponseWriter, r *http.Request) {
	data := PageData{View: ShowTryOn(), AutoMask: true}

	r.Body = http.MaxBytesReader(w, r.Body, 2*h.Cfg.MaxUploadSize)
	if err := r.ParseForm(); err != nil {
		data.Error = "Could not read the outfit to post"
		h.renderPage(w, r, http.StatusBadRequest, data)
		return
	}

	encoded := strings.TrimPrefix(strings.TrimSpace(r.PostFormValue("output")), jpegDataURI)
	data.Description = r.PostFormValue("description")

	img, err := decodeOutput(encoded)
	if err != nil {
		data.Error = "The previewed outfit is not a valid image"
		h.renderPage(w, r, http.StatusBadRequest, data)
		return
	}

	msg, err := h.PostService.PostOutfit(r.Context(), img)
	if err != nil {
		h.Log.Error("failed to post outfit", zap.Error(err))
		status, errMsg, _ := describeError(err)
		data.setOutput(encoded)
		data.Error = errMsg
		h.renderPage(w, r, status, data)
		return
	}

	data.setOutput(encoded)
	data.Status = msg
	h.renderPage(w, r, http.StatusOK, data)
}

// GalleryVote is the form fallback of the gallery vote buttons.
func (h *Handlers) GalleryVote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPage(w, r, http.StatusBadRequest, PageData{View: ShowGallery(), Error: "Invalid vote"})
		return
	}

	postID := r.PostFormValue("id")
	action := models.VoteAction(r.PostFormValue("action"))

	var err error
	if postID != "" {
		_, _, err = h.PostService.RecordVoteByID(r.Context(), postID, action)
	} else {
		// posts stored before ids existed are addressed by position
		var index int
		index, err = strconv.Atoi(r.PostFormValue("index"))
		if err != nil {
			err = models.NewValidationError("post index must be an integer")
		} else {
			_, err = h.PostService.RecordVote(r.Context(), index, action)
		}
	}
	if err != nil {
		status, msg, _ := describeError(err)
		h.renderPage(w, r, status, PageData{View: ShowGallery(), Error: msg})
		return
	}

	target := "/?view=gallery"
	if postID != "" {
		target += "#post-" + url.QueryEscape(postID)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handlers) GetPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.PostService.ListPosts(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}

	response := PostsGetResponse{
		Posts: make([]PostResponse, 0, len(posts)),
		Total: len(posts),
	}
	for i, post := range posts {
		response.Posts = append(response.Posts, PostResponse{
			Index:    i,
			ID:       post.ID,
			Image:    post.Image,
			ImageURL: ImageURL(post.Image),
			Likes:    post.Likes,
			Dislikes: post.Dislikes,
		})
	}

	writeSuccess(w, response, http.StatusOK)
}

// CreatePost posts an uploaded image. A request without an image is
// answered with the nothing-to-post message and changes nothing.
func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		WriteError(w, "Could not read the uploaded form", http.StatusBadRequest)
		return
	}

	var img image.Image
	if r.MultipartForm != nil {
		file, _, err := r.FormFile("image")
		if err != nil && !errors.Is(err, http.ErrMissingFile) {
			WriteError(w, "Could not read the image", http.StatusBadRequest)
			return
		}
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				WriteError(w, "Could not read the image", http.StatusBadRequest)
				return
			}
			if len(data) > 0 {
				img, err = models.DecodeImage(data)
				if errors.Is(err, models.ErrImageTooLarge) {
					WriteAppError(w, models.NewValidationError("image dimensions are too large"))
					return
				}
				if err != nil {
					WriteError(w, "Unsupported image", http.StatusBadRequest)
					return
				}
			}
		}
	}

	msg, err := h.PostService.PostOutfit(r.Context(), img)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	status := http.StatusCreated
	if msg == service.MsgNothingToPost {
		status = http.StatusOK
	}
	writeSuccess(w, MessageResponse{Message: msg}, status)
}

func (h *Handlers) Vote(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		WriteAppError(w, models.NewValidationError("post index must be an integer"))
		return
	}

	req, err := h.decodeVote(r)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	counters, err := h.PostService.RecordVote(r.Context(), index, models.VoteAction(req.Action))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, VoteResponse{Index: index, Counters: counters}, http.StatusOK)
}

func (h *Handlers) VoteByID(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["id"]

	req, err := h.decodeVote(r)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	index, counters, err := h.PostService.RecordVoteByID(r.Context(), postID, models.VoteAction(req.Action))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, VoteResponse{Index: index, ID: postID, Counters: counters}, http.StatusOK)
}

func (h *Handlers) decodeVote(r *http.Request) (*VoteRequest, error) {
	var req VoteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
		return nil, models.NewValidationError("invalid request format")
	}
	if err := h.Validate.Struct(req); err != nil {
		return nil, models.NewValidationError("vote action is required")
	}
	return &req, nil
}

// decodeOutput turns the base64 JPEG carried by the page back into an
// image. An empty value means there is nothing to post.
func decodeOutput(encoded string) (image.Image, error) {
	if encoded == "" {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	return models.DecodeImage(data)
}
