package tryon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"styleGallery/internal/config"
	"styleGallery/internal/models"
)

// Client performs one virtual try-on on the remote model.
type Client interface {
	TryOn(ctx context.Context, req models.TryOnRequest) (image.Image, error)
}

const maxOutputSize = 32 * 1024 * 1024

// GradioClient talks to a hosted Gradio app over its HTTP API: inputs are
// uploaded, the job is queued, its result is read from the event stream and
// the composite image is downloaded.
type GradioClient struct {
	httpClient   *http.Client
	baseURL      string
	apiPrefix    string
	apiName      string
	token        string
	denoiseSteps int
	seed         int
	log          *zap.Logger
}

func NewGradioClient(cfg config.TryOn, httpClient *http.Client, log *zap.Logger) *GradioClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &GradioClient{
		httpClient:   httpClient,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiPrefix:    apiPrefix(cfg.APIPrefix),
		apiName:      strings.Trim(cfg.APIName, "/"),
		token:        cfg.Token,
		denoiseSteps: cfg.DenoiseSteps,
		seed:         cfg.Seed,
		log:          log,
	}
}

func (c *GradioClient) TryOn(ctx context.Context, req models.TryOnRequest) (image.Image, error) {
	start := time.Now()

	person, err := c.upload(ctx, req.Person)
	if err != nil {
		return nil, remoteError("failed to upload person image", err)
	}
	garment, err := c.upload(ctx, req.Garment)
	if err != nil {
		return nil, remoteError("failed to upload garment image", err)
	}

	eventID, err := c.call(ctx, []any{
		editorValue{Background: person, Layers: []*fileData{}, Composite: nil},
		garment,
		req.Description,
		req.AutoMask,
		req.AutoCrop,
		c.denoiseSteps,
		c.seed,
	})
	if err != nil {
		return nil, remoteError("failed to start try-on", err)
	}

	raw, err := c.result(ctx, eventID)
	if err != nil {
		return nil, remoteError("try-on failed", err)
	}

	out, err := firstOutput(raw)
	if err != nil {
		return nil, remoteError("try-on returned a bad response", err)
	}

	img, err := c.download(ctx, out)
	if err != nil {
		return nil, remoteError("failed to read try-on output", err)
	}

	c.log.Info("try-on completed",
		zap.String("event_id", eventID),
		zap.Duration("duration", time.Since(start)),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	return img, nil
}

// apiPrefix normalises the configured route prefix to "/name" or "".
func apiPrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

func (c *GradioClient) endpoint(parts ...string) string {
	return c.baseURL + c.apiPrefix + "/" + strings.Join(parts, "/")
}

func (c *GradioClient) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *GradioClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s %s: status %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp, nil
}

// upload sends one input image and returns its server side reference.
// An absent image is sent to the model as null.
func (c *GradioClient) upload(ctx context.Context, img *models.InputImage) (*fileData, error) {
	if !img.Present() {
		return nil, nil
	}

	fileName := img.FileName
	if fileName == "" {
		fileName = "image.jpg"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("upload"), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var paths []string
	if err := json.NewDecoder(resp.Body).Decode(&paths); err != nil {
		return nil, fmt.Errorf("malformed upload response: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("upload response has no files")
	}

	return newFileData(paths[0], fileName, int64(len(img.Data))), nil
}

func (c *GradioClient) call(ctx context.Context, data []any) (string, error) {
	payload, err := json.Marshal(callRequest{Data: data})
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("call", c.apiName), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out callResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("malformed call response: %w", err)
	}
	if out.EventID == "" {
		return "", fmt.Errorf("call response has no event id")
	}

	return out.EventID, nil
}

func (c *GradioClient) result(ctx context.Context, eventID string) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("call", c.apiName, url.PathEscape(eventID)), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return readResult(resp.Body)
}

func (c *GradioClient) fileURL(out *fileData) string {
	if out.URL != "" {
		return out.URL
	}
	return c.baseURL + c.apiPrefix + "/file=" + out.Path
}

func (c *GradioClient) download(ctx context.Context, out *fileData) (image.Image, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.fileURL(out), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxOutputSize))
	if err != nil {
		return nil, err
	}

	img, err := models.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode output image: %w", err)
	}

	return ToRGB(img), nil
}

// ToRGB flattens img onto an opaque white canvas so every pixel carries
// three meaningful 8-bit channels.
func ToRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgb := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgb, rgb.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(rgb, rgb.Bounds(), img, bounds.Min, draw.Over)
	return rgb
}

func remoteError(msg string, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "try-on service timed out"
	}
	return models.NewRemoteServiceError(msg, err)
}
