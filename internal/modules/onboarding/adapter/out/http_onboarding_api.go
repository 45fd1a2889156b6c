package out

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"poolintake/internal/modules/onboarding/domain"
	onboardingout "poolintake/internal/modules/onboarding/port/out"
	"poolintake/internal/platform/config"
	apperrors "poolintake/internal/platform/errors"
)

// HTTPOnboardingAPI talks to the remote onboarding service. Upload calls run
// under the longer upload timeout; finalize under the ordinary call timeout.
// Any non-success response is treated the same as a transport failure: the
// caller aborts, keeps local state, and surfaces the error.
type HTTPOnboardingAPI struct {
	baseURL       string
	apiKey        string
	client        *http.Client
	callTimeout   time.Duration
	uploadTimeout time.Duration
}

func NewHTTPOnboardingAPI(cfg config.API) *HTTPOnboardingAPI {
	return &HTTPOnboardingAPI{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.Key,
		client:        &http.Client{},
		callTimeout:   cfg.CallTimeout,
		uploadTimeout: cfg.UploadTimeout,
	}
}

var _ onboardingout.OnboardingAPI = (*HTTPOnboardingAPI)(nil)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type mediaData struct {
	URI string `json:"uri"`
}

func (a *HTTPOnboardingAPI) UploadVoiceNote(ctx context.Context, sessionID string, note domain.VoiceNote) (string, error) {
	payload, fileName, err := readLocalMedia(note.URI)
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}
	fields := map[string]string{"duration_seconds": strconv.Itoa(note.DurationSeconds)}
	return a.uploadMedia(ctx, sessionID, "voice-note", "audio", fileName, payload, fields)
}

func (a *HTTPOnboardingAPI) UploadPhoto(ctx context.Context, sessionID string, photo domain.MediaRef) (string, error) {
	payload, fileName, err := readLocalMedia(photo.URI)
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}
	fields := map[string]string{}
	if !photo.CapturedAt.IsZero() {
		fields["captured_at"] = photo.CapturedAt.UTC().Format(time.RFC3339)
	}
	return a.uploadMedia(ctx, sessionID, "photos", "photo", fileName, payload, fields)
}

func (a *HTTPOnboardingAPI) uploadMedia(ctx context.Context, sessionID, endpoint, partName, fileName string, payload []byte, fields map[string]string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("write form field: %w", err)
		}
	}
	part, err := writer.CreateFormFile(partName, fileName)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.uploadTimeout)
	defer cancel()
	url := fmt.Sprintf("%s/sessions/%s/%s", a.baseURL, sessionID, endpoint)
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	a.authorize(req)

	data := mediaData{}
	if err := a.do(req, &data); err != nil {
		return "", err
	}
	if data.URI == "" {
		return "", fmt.Errorf("%w: upload response missing uri", apperrors.ErrTransport)
	}
	return data.URI, nil
}

func (a *HTTPOnboardingAPI) CompleteSession(ctx context.Context, sessionID string, completedAt time.Time) error {
	payload, err := json.Marshal(map[string]string{"completed_at": completedAt.UTC().Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("encode finalize payload: %w", err)
	}
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()
	url := fmt.Sprintf("%s/sessions/%s/complete", a.baseURL, sessionID)
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build finalize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	a.authorize(req)
	return a.do(req, nil)
}

func (a *HTTPOnboardingAPI) authorize(req *http.Request) {
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
}

func (a *HTTPOnboardingAPI) do(req *http.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || req.Context().Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %s %s", apperrors.ErrTimeout, req.Method, req.URL.Path)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", apperrors.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %d", apperrors.ErrTransport, req.URL.Path, resp.StatusCode)
	}
	envelope := apiEnvelope{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: decode response: %v", apperrors.ErrTransport, err)
	}
	if !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = "request rejected"
		}
		return fmt.Errorf("%w: %s", apperrors.ErrTransport, msg)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: decode response data: %v", apperrors.ErrTransport, err)
		}
	}
	return nil
}

// readLocalMedia resolves a local media reference: a file path, file:// URI,
// or inline data: URI with base64 payload.
func readLocalMedia(uri string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(uri, "data:"):
		idx := strings.Index(uri, "base64,")
		if idx < 0 {
			return nil, "", fmt.Errorf("inline media must be base64 encoded")
		}
		payload, err := base64.StdEncoding.DecodeString(uri[idx+len("base64,"):])
		if err != nil {
			return nil, "", fmt.Errorf("decode inline media: %w", err)
		}
		return payload, "inline", nil
	case strings.HasPrefix(uri, "file://"):
		path := strings.TrimPrefix(uri, "file://")
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("read media file: %w", err)
		}
		return payload, fileBase(path), nil
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return nil, "", fmt.Errorf("media is already remote: %s", uri)
	default:
		payload, err := os.ReadFile(uri)
		if err != nil {
			return nil, "", fmt.Errorf("read media file: %w", err)
		}
		return payload, fileBase(uri), nil
	}
}

func fileBase(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
