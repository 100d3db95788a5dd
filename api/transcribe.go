package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/whispa-ai/whispad/fault"
)

type transcribeResponse struct {
	AudioText string `json:"audio_text"`
}

// Transcribe uploads an audio clip as multipart form data and returns the
// transcript. The filename carries the recorder's negotiated container
// extension so the service can pick the right decoder.
func (c *Client) Transcribe(ctx context.Context, audio []byte, extension string) (string, error) {
	token, err := c.bearer()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio_file", fmt.Sprintf("recording.%s", extension))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcribe", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fault.HTTP(resp.StatusCode, errorDetail(body))
	}

	var apiResp transcribeResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if strings.TrimSpace(apiResp.AudioText) == "" {
		return "", fault.New(fault.EmptyResult, "transcription returned empty text")
	}
	return apiResp.AudioText, nil
}
