package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/whispa-ai/whispad/fault"
	"github.com/whispa-ai/whispad/internal/types"
)

// GenerateRequest carries the inputs for streamed note generation.
type GenerateRequest struct {
	ImageB64    string         `json:"image_b64"`
	VoiceText   string         `json:"voice_text"`
	PrivacyMode bool           `json:"privacy_mode"`
	Mode        types.NoteMode `json:"qa_type"`
}

// ChunkFunc receives each streamed chunk as it arrives.
type ChunkFunc func(chunk string)

// GenerateNotes streams a note body from the service. Chunks are relayed to
// onChunk as they arrive, never buffered; the return value is the full
// concatenation. A mid-stream failure terminates with an error while already
// relayed chunks stand.
func (c *Client) GenerateNotes(ctx context.Context, req GenerateRequest, onChunk ChunkFunc) (string, error) {
	if req.ImageB64 == "" {
		return "", fault.New(fault.PreconditionFailed, "no screen capture data available")
	}
	if req.VoiceText == "" {
		return "", fault.New(fault.PreconditionFailed, "no audio transcription available")
	}

	token, err := c.bearer()
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notes/generate/stream", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return "", fault.HTTP(resp.StatusCode, errorDetail(data))
	}

	var full bytes.Buffer
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			full.WriteString(chunk)
			if onChunk != nil {
				onChunk(chunk)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return full.String(), fault.Wrap(fault.HTTPError, "note stream interrupted", err)
		}
	}
	return full.String(), nil
}

// SaveRequest persists a generated note server side.
type SaveRequest struct {
	FinalMarkdown string `json:"final_markdown"`
	VoiceText     string `json:"voice_text"`
	SessionID     string `json:"session_id"`
	PrivacyMode   bool   `json:"privacy_mode"`
}

// SaveNotes stores a generated note remotely. Only invoked when the user's
// privacy mode is disabled.
func (c *Client) SaveNotes(ctx context.Context, req SaveRequest) error {
	token, err := c.bearer()
	if err != nil {
		return err
	}
	return c.postJSON(ctx, "/save_notes", token, req, nil)
}
