package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	pluginrpc "poolintake/internal/modules/capture/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

// simcapture stands in for a real camera and microphone. It writes small
// placeholder files so the intake flow can be exercised end to end on a
// machine with no devices attached.
type server struct{}

func (s *server) GetMetadata(_ context.Context, _ *pluginrpc.Empty) (*pluginrpc.Metadata, error) {
	return &pluginrpc.Metadata{
		Name:         "simcapture",
		Version:      "1.0.0",
		Capabilities: []string{"photo", "voice"},
	}, nil
}

func (s *server) CapturePhoto(_ context.Context, in *pluginrpc.PhotoRequest) (*pluginrpc.PhotoResponse, error) {
	path, err := writeStub(in.TargetDir, fmt.Sprintf("photo-%s-%d.jpg", in.SessionID, time.Now().UnixMilli()))
	if err != nil {
		return nil, err
	}
	return &pluginrpc.PhotoResponse{URI: "file://" + path}, nil
}

func (s *server) RecordVoice(_ context.Context, in *pluginrpc.VoiceRequest) (*pluginrpc.VoiceResponse, error) {
	started := time.Now()
	// Simulate a recording a little under the first valid length.
	simulated := 45 * time.Second
	if max := time.Duration(in.MaxSeconds) * time.Second; max > 0 && simulated > max {
		simulated = max
	}
	path, err := writeStub(in.TargetDir, fmt.Sprintf("voice-%s-%d.m4a", in.SessionID, started.UnixMilli()))
	if err != nil {
		return nil, err
	}
	stopped := started.Add(simulated)
	return &pluginrpc.VoiceResponse{
		URI:             "file://" + path,
		StartedAtUnixMS: started.UnixMilli(),
		StoppedAtUnixMS: stopped.UnixMilli(),
	}, nil
}

func writeStub(dir, name string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create target dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("simcapture placeholder media\n"), 0o644); err != nil {
		return "", fmt.Errorf("write media stub: %w", err)
	}
	return path, nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: pluginrpc.HandshakeConfig,
		Plugins:         pluginrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
