package handlers

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"styleGallery/internal/models"
)

const outputQuality = 95

type TryOnForm struct {
	Description string `validate:"max=500"`
}

// allowedTypes are the upload formats accepted for person and garment.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// TryOnPage handles the try-on form and renders the page with the output
// preview.
func (h *Handlers) TryOnPage(w http.ResponseWriter, r *http.Request) {
	data := PageData{View: ShowTryOn(), AutoMask: true}

	req, err := h.parseTryOnRequest(w, r)
	if err != nil {
		status, msg, _ := describeError(err)
		data.Error = msg
		h.renderPage(w, r, status, data)
		return
	}

	data.Description = req.Description
	data.AutoMask = req.AutoMask
	data.AutoCrop = req.AutoCrop

	img, err := h.TryOnService.TryOn(r.Context(), *req)
	if err != nil {
		status, msg, _ := describeError(err)
		data.Error = msg
		h.renderPage(w, r, status, data)
		return
	}

	encoded, err := encodeJPEG(img)
	if err != nil {
		h.Log.Error("failed to encode try-on output", zap.Error(err))
		data.Error = "Could not display the try-on result"
		h.renderPage(w, r, http.StatusInternalServerError, data)
		return
	}

	data.setOutput(base64.StdEncoding.EncodeToString(encoded))
	h.renderPage(w, r, http.StatusOK, data)
}

// TryOnAPI runs a try-on and answers with the composite as JPEG.
func (h *Handlers) TryOnAPI(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseTryOnRequest(w, r)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	img, err := h.TryOnService.TryOn(r.Context(), *req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	encoded, err := encodeJPEG(img)
	if err != nil {
		WriteError(w, "Could not encode the try-on result", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(encoded)))
	w.WriteHeader(http.StatusOK)
	w.Write(encoded)
}

func (h *Handlers) parseTryOnRequest(w http.ResponseWriter, r *http.Request) (*models.TryOnRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.Cfg.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, models.NewValidationError(fmt.Sprintf("Upload too large (max %d MB per image)",
				h.Cfg.MaxUploadSize/(1024*1024)))
		}
		return nil, models.NewValidationError("Could not read the uploaded form")
	}

	form := TryOnForm{Description: r.FormValue("description")}
	if err := h.Validate.Struct(form); err != nil {
		return nil, models.NewValidationError("Garment description is too long")
	}

	person, err := h.readImage(r, "person")
	if err != nil {
		return nil, err
	}
	garment, err := h.readImage(r, "garment")
	if err != nil {
		return nil, err
	}

	return &models.TryOnRequest{
		Person:      person,
		Garment:     garment,
		Description: form.Description,
		AutoMask:    formBool(r.FormValue("auto_mask")),
		AutoCrop:    formBool(r.FormValue("auto_crop")),
	}, nil
}

// readImage returns nil when the field was left empty.
func (h *Handlers) readImage(r *http.Request, field string) (*models.InputImage, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("Could not read the %s image", field))
	}
	defer file.Close()

	if header.Size > h.Cfg.MaxUploadSize {
		return nil, models.NewValidationError(fmt.Sprintf("The %s image is too large (max %d MB)",
			field, h.Cfg.MaxUploadSize/(1024*1024)))
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("Could not read the %s image", field))
	}
	if len(data) == 0 {
		return nil, nil
	}

	if !allowedTypes[http.DetectContentType(data)] {
		return nil, models.NewValidationError(fmt.Sprintf(
			"Unsupported %s image type. Allowed: JPEG, PNG, GIF, WebP", field))
	}

	return &models.InputImage{FileName: header.Filename, Data: data}, nil
}

func formBool(value string) bool {
	switch value {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: outputQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
