package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const fileName = "poolintake.yaml"

// API holds connection settings for the remote onboarding service. Upload
// calls get a longer deadline than ordinary calls because media payloads are
// larger.
type API struct {
	BaseURL       string
	Key           string
	CallTimeout   time.Duration
	UploadTimeout time.Duration
}

// Config is assembled once at startup and passed down explicitly. Feature
// toggles live here rather than in process-wide state so tests can inject
// deterministic configurations.
type Config struct {
	BasePath string
	DBPath   string
	API      API

	// RequireEquipment gates step 3 on equipment completeness. Off by
	// default: field crews frequently finish equipment details after the
	// visit.
	RequireEquipment bool

	// UploadPhotos syncs pending local photos during completion.
	UploadPhotos bool
}

type fileConfig struct {
	APIBaseURL           string `yaml:"api_base_url"`
	APIKey               string `yaml:"api_key"`
	CallTimeoutSeconds   int    `yaml:"call_timeout_seconds"`
	UploadTimeoutSeconds int    `yaml:"upload_timeout_seconds"`
	RequireEquipment     *bool  `yaml:"require_equipment"`
	UploadPhotos         *bool  `yaml:"upload_photos"`
}

// New builds a Config rooted at basePath, applying overrides from
// poolintake.yaml in that directory when present.
func New(basePath string) (Config, error) {
	if basePath == "" {
		return Config{}, fmt.Errorf("base path is required")
	}
	cfg := Config{
		BasePath: basePath,
		DBPath:   filepath.Join(basePath, ".poolintake", "drafts.db"),
		API: API{
			BaseURL:       "https://api.claritypools.example",
			CallTimeout:   10 * time.Second,
			UploadTimeout: 60 * time.Second,
		},
		RequireEquipment: false,
		UploadPhotos:     true,
	}

	raw, err := os.ReadFile(filepath.Join(basePath, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	fc := fileConfig{}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if fc.APIBaseURL != "" {
		cfg.API.BaseURL = fc.APIBaseURL
	}
	if fc.APIKey != "" {
		cfg.API.Key = fc.APIKey
	}
	if fc.CallTimeoutSeconds > 0 {
		cfg.API.CallTimeout = time.Duration(fc.CallTimeoutSeconds) * time.Second
	}
	if fc.UploadTimeoutSeconds > 0 {
		cfg.API.UploadTimeout = time.Duration(fc.UploadTimeoutSeconds) * time.Second
	}
	if fc.RequireEquipment != nil {
		cfg.RequireEquipment = *fc.RequireEquipment
	}
	if fc.UploadPhotos != nil {
		cfg.UploadPhotos = *fc.UploadPhotos
	}
	return cfg, nil
}
