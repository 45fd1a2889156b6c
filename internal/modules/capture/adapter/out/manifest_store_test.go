package out

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"poolintake/internal/modules/capture/domain"
	apperrors "poolintake/internal/platform/errors"
)

func writeManifests(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, manifestFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write manifests: %v", err)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	store := NewFileManifestStore(t.TempDir())
	manifests, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(manifests) != 0 {
		t.Fatalf("manifests = %+v, want none", manifests)
	}
}

func TestLoadResolvesRelativeBinaries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifests(t, dir, `[
		{"name":"simcapture","version":"1.0.0","binary":"simcapture","enabled":true,"capabilities":["photo","voice"]},
		{"name":"usb-cam","version":"0.3.0","binary":"/usr/local/bin/usb-cam","enabled":false,"capabilities":["photo"]}
	]`)

	store := NewFileManifestStore(dir)
	manifests, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(manifests) != 2 {
		t.Fatalf("len = %d, want 2", len(manifests))
	}
	if want := filepath.Join(dir, "simcapture"); manifests[0].Binary != want {
		t.Fatalf("relative binary = %q, want %q", manifests[0].Binary, want)
	}
	if manifests[1].Binary != "/usr/local/bin/usb-cam" {
		t.Fatalf("absolute binary rewritten: %q", manifests[1].Binary)
	}
	if !manifests[0].HasCapability(domain.CapabilityVoice) {
		t.Fatal("simcapture should advertise voice")
	}
}

func TestLoadRejectsInvalidManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifests(t, dir, `[{"name":"","binary":"x","enabled":true,"capabilities":["photo"]}]`)

	store := NewFileManifestStore(dir)
	_, err := store.Load(context.Background())
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifests(t, dir, `{not json`)

	store := NewFileManifestStore(dir)
	_, err := store.Load(context.Background())
	if !errors.Is(err, apperrors.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
}
