package out_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	out "poolintake/internal/modules/onboarding/adapter/out"
	"poolintake/internal/modules/onboarding/domain"
	"poolintake/internal/platform/config"
	apperrors "poolintake/internal/platform/errors"
)

func apiFor(server *httptest.Server) *out.HTTPOnboardingAPI {
	return out.NewHTTPOnboardingAPI(config.API{
		BaseURL:       server.URL,
		Key:           "test-key",
		CallTimeout:   2 * time.Second,
		UploadTimeout: 2 * time.Second,
	})
}

func writeAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.m4a")
	if err := os.WriteFile(path, []byte("not really audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return "file://" + path
}

func TestUploadVoiceNoteSuccess(t *testing.T) {
	t.Parallel()
	var gotPath, gotAuth, gotDuration string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotDuration = r.FormValue("duration_seconds")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]string{"uri": "https://cdn.example/ses-1/voice.m4a"},
		})
	}))
	defer server.Close()

	api := apiFor(server)
	note := domain.VoiceNote{URI: writeAudioFile(t), DurationSeconds: 45}
	uri, err := api.UploadVoiceNote(context.Background(), "ses-1", note)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if uri != "https://cdn.example/ses-1/voice.m4a" {
		t.Fatalf("unexpected remote uri: %s", uri)
	}
	if gotPath != "/sessions/ses-1/voice-note" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("missing auth header: %q", gotAuth)
	}
	if gotDuration != "45" {
		t.Fatalf("duration field not sent: %q", gotDuration)
	}
}

func TestUploadInlineBlob(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]string{"uri": "https://cdn.example/ses-1/voice.m4a"},
		})
	}))
	defer server.Close()

	api := apiFor(server)
	note := domain.VoiceNote{URI: "data:audio/m4a;base64,aGVsbG8=", DurationSeconds: 30}
	if _, err := api.UploadVoiceNote(context.Background(), "ses-1", note); err != nil {
		t.Fatalf("inline upload: %v", err)
	}
}

func TestNonSuccessEnvelopeIsTransportError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "session unknown"})
	}))
	defer server.Close()

	api := apiFor(server)
	err := api.CompleteSession(context.Background(), "ses-1", time.Now().UTC())
	if !errors.Is(err, apperrors.ErrTransport) {
		t.Fatalf("got %v, want transport error", err)
	}
}

func TestNon2xxIsTransportError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	api := apiFor(server)
	err := api.CompleteSession(context.Background(), "ses-1", time.Now().UTC())
	if !errors.Is(err, apperrors.ErrTransport) {
		t.Fatalf("got %v, want transport error", err)
	}
}

func TestTimeoutSurfacesDistinctly(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	api := out.NewHTTPOnboardingAPI(config.API{
		BaseURL:       server.URL,
		CallTimeout:   50 * time.Millisecond,
		UploadTimeout: 50 * time.Millisecond,
	})
	err := api.CompleteSession(context.Background(), "ses-1", time.Now().UTC())
	if !errors.Is(err, apperrors.ErrTimeout) {
		t.Fatalf("got %v, want timeout error", err)
	}
}

func TestRemoteMediaRejectedBeforeRequest(t *testing.T) {
	t.Parallel()
	api := out.NewHTTPOnboardingAPI(config.API{BaseURL: "http://127.0.0.1:0", CallTimeout: time.Second, UploadTimeout: time.Second})
	note := domain.VoiceNote{URI: "https://cdn.example/done.m4a", DurationSeconds: 60}
	_, err := api.UploadVoiceNote(context.Background(), "ses-1", note)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("already-remote media must be rejected locally, got %v", err)
	}
}
