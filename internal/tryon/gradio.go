package tryon

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// fileData is how Gradio refers to a file that lives on the server, both
// for uploaded inputs and for generated outputs.
type fileData struct {
	Path     string            `json:"path"`
	URL      string            `json:"url,omitempty"`
	OrigName string            `json:"orig_name,omitempty"`
	Size     int64             `json:"size,omitempty"`
	MimeType string            `json:"mime_type,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

func newFileData(path, origName string, size int64) *fileData {
	return &fileData{
		Path:     path,
		OrigName: origName,
		Size:     size,
		Meta:     map[string]string{"_type": "gradio.FileData"},
	}
}

// editorValue is the input shape of an image editor component. Only the
// background is used, layers stay empty.
type editorValue struct {
	Background *fileData   `json:"background"`
	Layers     []*fileData `json:"layers"`
	Composite  *fileData   `json:"composite"`
}

type callRequest struct {
	Data []any `json:"data"`
}

type callResponse struct {
	EventID string `json:"event_id"`
}

type sseEvent struct {
	Name string
	Data string
}

const maxEventSize = 4 * 1024 * 1024

// readResult consumes a Gradio event stream until the job completes or
// fails and returns the raw data of the final event.
func readResult(body io.Reader) (json.RawMessage, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)

	var current sseEvent
	var data []string

	flush := func() (json.RawMessage, bool, error) {
		current.Data = strings.Join(data, "\n")
		data = data[:0]
		event := current
		current = sseEvent{}

		switch event.Name {
		case "complete":
			return json.RawMessage(event.Data), true, nil
		case "error":
			msg := strings.Trim(event.Data, `"`)
			if msg == "" || msg == "null" {
				msg = "the model reported an error"
			}
			return nil, true, fmt.Errorf("%s", msg)
		}
		return nil, false, nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if current.Name == "" && len(data) == 0 {
				continue
			}
			result, done, err := flush()
			if done {
				return result, err
			}
		case strings.HasPrefix(line, "event:"):
			current.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event stream: %w", err)
	}

	if current.Name != "" {
		result, done, err := flush()
		if done {
			return result, err
		}
	}

	return nil, fmt.Errorf("event stream ended without a result")
}

// firstOutput returns the composite image from a complete event, which
// carries [composite, mask].
func firstOutput(raw json.RawMessage) (*fileData, error) {
	var outputs []json.RawMessage
	if err := json.Unmarshal(raw, &outputs); err != nil {
		return nil, fmt.Errorf("malformed result: %w", err)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("result has no outputs")
	}

	var out fileData
	if err := json.Unmarshal(outputs[0], &out); err != nil {
		var path string
		if errPath := json.Unmarshal(outputs[0], &path); errPath != nil {
			return nil, fmt.Errorf("malformed output image: %w", err)
		}
		out.Path = path
	}
	if out.Path == "" && out.URL == "" {
		return nil, fmt.Errorf("result has no output image")
	}

	return &out, nil
}
