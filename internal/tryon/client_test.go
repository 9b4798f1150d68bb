package tryon

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"styleGallery/internal/config"
	"styleGallery/internal/models"
)

// fakeSpace imitates the HTTP API of a hosted Gradio app.
type fakeSpace struct {
	mu       sync.Mutex
	uploads  []string
	callBody map[string]any
	auth     string

	events      string
	output      []byte
	callStatus  int
	uploadDelay time.Duration
}

func (f *fakeSpace) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/gradio_api/upload", func(w http.ResponseWriter, r *http.Request) {
		if f.uploadDelay > 0 {
			select {
			case <-time.After(f.uploadDelay):
			case <-r.Context().Done():
				return
			}
		}
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		io.Copy(io.Discard, file)

		f.mu.Lock()
		f.uploads = append(f.uploads, header.Filename)
		f.auth = r.Header.Get("Authorization")
		n := len(f.uploads)
		f.mu.Unlock()

		json.NewEncoder(w).Encode([]string{fmt.Sprintf("/tmp/gradio/upload-%d/%s", n, header.Filename)})
	})

	mux.HandleFunc("/gradio_api/call/tryon", func(w http.ResponseWriter, r *http.Request) {
		if f.callStatus != 0 {
			http.Error(w, "queue is full", f.callStatus)
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.callBody = body
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"event_id": "evt-1"})
	})

	mux.HandleFunc("/gradio_api/call/tryon/evt-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, f.events)
	})

	mux.HandleFunc("/gradio_api/file=/tmp/gradio/out/result.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(f.output)
	})

	return mux
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// hugePNG returns a tiny PNG whose header claims w x h pixels.
func hugePNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := pngBytes(t, 1, 1)
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

const completeEvents = "event: generating\ndata: null\n\n" +
	"event: complete\n" +
	`data: [{"path": "/tmp/gradio/out/result.png", "url": null}, {"path": "/tmp/gradio/out/mask.png"}]` +
	"\n\n"

func newTestClient(t *testing.T, space *fakeSpace, token string) *GradioClient {
	srv := httptest.NewServer(space.handler(t))
	t.Cleanup(srv.Close)

	return NewGradioClient(config.TryOn{
		BaseURL:      srv.URL,
		APIPrefix:    "/gradio_api",
		APIName:      "tryon",
		Token:        token,
		DenoiseSteps: 30,
		Seed:         42,
	}, srv.Client(), zap.NewNop())
}

func testRequest(t *testing.T) models.TryOnRequest {
	return models.TryOnRequest{
		Person:      &models.InputImage{FileName: "person.png", Data: pngBytes(t, 4, 4)},
		Garment:     &models.InputImage{FileName: "shirt.png", Data: pngBytes(t, 4, 4)},
		Description: "Short Sleeve Round Neck T-shirts",
		AutoMask:    true,
		AutoCrop:    false,
	}
}

func TestGradioClient_TryOn(t *testing.T) {
	space := &fakeSpace{events: completeEvents, output: pngBytes(t, 6, 8)}
	client := newTestClient(t, space, "hf_secret")

	img, err := client.TryOn(context.Background(), testRequest(t))

	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())
	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, [4]uint32{200 * 0x101, 10 * 0x101, 10 * 0x101, 0xffff}, [4]uint32{r, g, b, a})

	assert.Equal(t, []string{"person.png", "shirt.png"}, space.uploads)
	assert.Equal(t, "Bearer hf_secret", space.auth)

	data, ok := space.callBody["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 7)

	editor := data[0].(map[string]any)
	background := editor["background"].(map[string]any)
	assert.Equal(t, "/tmp/gradio/upload-1/person.png", background["path"])
	assert.Equal(t, []any{}, editor["layers"])
	assert.Nil(t, editor["composite"])

	garment := data[1].(map[string]any)
	assert.Equal(t, "/tmp/gradio/upload-2/shirt.png", garment["path"])

	assert.Equal(t, "Short Sleeve Round Neck T-shirts", data[2])
	assert.Equal(t, true, data[3])
	assert.Equal(t, false, data[4])
	assert.Equal(t, float64(30), data[5])
	assert.Equal(t, float64(42), data[6])
}

func TestGradioClient_TryOnMissingGarmentIsSentAsNull(t *testing.T) {
	space := &fakeSpace{events: completeEvents, output: pngBytes(t, 2, 2)}
	client := newTestClient(t, space, "")

	req := testRequest(t)
	req.Garment = nil

	_, err := client.TryOn(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, []string{"person.png"}, space.uploads)
	assert.Empty(t, space.auth)
	data := space.callBody["data"].([]any)
	assert.Nil(t, data[1])
}

func TestGradioClient_TryOnFailures(t *testing.T) {
	tests := []struct {
		name    string
		space   *fakeSpace
		wantMsg string
	}{
		{
			name:    "Model reports an error",
			space:   &fakeSpace{events: "event: error\ndata: \"GPU quota exceeded\"\n\n"},
			wantMsg: "GPU quota exceeded",
		},
		{
			name:    "Error event without a message",
			space:   &fakeSpace{events: "event: error\ndata: null\n\n"},
			wantMsg: "the model reported an error",
		},
		{
			name:    "Queue rejects the call",
			space:   &fakeSpace{callStatus: http.StatusServiceUnavailable},
			wantMsg: "status 503",
		},
		{
			name:    "Stream ends early",
			space:   &fakeSpace{events: "event: generating\ndata: null\n\n"},
			wantMsg: "event stream ended without a result",
		},
		{
			name:    "Output claims huge dimensions",
			space:   &fakeSpace{events: completeEvents, output: hugePNG(t, 16000, 16000)},
			wantMsg: "image dimensions too large",
		},
		{
			name:    "Output is not an image",
			space:   &fakeSpace{events: completeEvents, output: []byte("<html>sleeping</html>")},
			wantMsg: "failed to decode output image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.space, "")

			img, err := client.TryOn(context.Background(), testRequest(t))

			assert.Nil(t, img)
			assert.ErrorIs(t, err, models.ErrRemoteService)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestGradioClient_TryOnTimeout(t *testing.T) {
	space := &fakeSpace{events: completeEvents, uploadDelay: time.Second}
	client := newTestClient(t, space, "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.TryOn(ctx, testRequest(t))

	assert.ErrorIs(t, err, models.ErrRemoteService)
	assert.Contains(t, err.Error(), "timed out")
}

func TestReadResult(t *testing.T) {
	tests := []struct {
		name    string
		stream  string
		want    string
		wantErr string
	}{
		{
			name:   "Complete after progress events",
			stream: "event: heartbeat\ndata: null\n\nevent: complete\ndata: [\"a.png\"]\n\n",
			want:   `["a.png"]`,
		},
		{
			name:   "Complete without trailing blank line",
			stream: "event: complete\ndata: [1]",
			want:   `[1]`,
		},
		{
			name:   "Multi-line data",
			stream: "event: complete\ndata: [1,\ndata: 2]\n\n",
			want:   "[1,\n2]",
		},
		{
			name:    "Error event",
			stream:  "event: error\ndata: \"boom\"\n\n",
			wantErr: "boom",
		},
		{
			name:    "Empty stream",
			stream:  "",
			wantErr: "event stream ended without a result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := readResult(strings.NewReader(tt.stream))

			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(raw))
		})
	}
}

func TestFirstOutput(t *testing.T) {
	out, err := firstOutput(json.RawMessage(`[{"path":"/tmp/x.webp","url":"https://host/file=/tmp/x.webp"},{"path":"/tmp/m.png"}]`))
	require.NoError(t, err)
	assert.Equal(t, "https://host/file=/tmp/x.webp", out.URL)

	out, err = firstOutput(json.RawMessage(`["/tmp/plain.png"]`))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/plain.png", out.Path)

	_, err = firstOutput(json.RawMessage(`[]`))
	assert.EqualError(t, err, "result has no outputs")

	_, err = firstOutput(json.RawMessage(`[null]`))
	assert.EqualError(t, err, "result has no output image")

	_, err = firstOutput(json.RawMessage(`{"path":"x"}`))
	assert.Error(t, err)
}

func TestToRGBFlattensTransparency(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 12, 12))
	src.Set(10, 10, color.NRGBA{A: 0})
	src.Set(11, 11, color.NRGBA{R: 0, G: 0, B: 255, A: 255})

	rgb := ToRGB(src)

	assert.Equal(t, image.Rect(0, 0, 2, 2), rgb.Bounds())
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, rgb.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, rgb.RGBAAt(1, 1))
}

func TestGradioClient_EndpointsWithoutPrefix(t *testing.T) {
	client := NewGradioClient(config.TryOn{
		BaseURL: "https://x.hf.space/",
		APIName: "tryon",
	}, nil, zap.NewNop())

	assert.Equal(t, "https://x.hf.space/upload", client.endpoint("upload"))
	assert.Equal(t, "https://x.hf.space/file=/tmp/out.png", client.fileURL(&fileData{Path: "/tmp/out.png"}))

	client = NewGradioClient(config.TryOn{BaseURL: "https://x.hf.space", APIPrefix: "gradio_api/"}, nil, zap.NewNop())
	assert.Equal(t, "https://x.hf.space/gradio_api/upload", client.endpoint("upload"))
}
