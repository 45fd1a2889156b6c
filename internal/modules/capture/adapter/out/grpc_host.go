package out

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	pluginrpc "poolintake/internal/modules/capture/adapter/out/rpc"
	"poolintake/internal/modules/capture/domain"
	captureout "poolintake/internal/modules/capture/port/out"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
	// Photo capture waits on the user framing a shot.
	photoCallTimeout = 2 * time.Minute
	// Recording can legitimately run for the full note plus handling time.
	voiceTimeoutMargin = 30 * time.Second
)

type GRPCHost struct{}

func NewGRPCHost() captureout.Host {
	return &GRPCHost{}
}

func (h *GRPCHost) GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	client, closeFn, err := h.connect(ctx, manifest, defaultStartTimeout)
	if err != nil {
		return domain.Metadata{}, err
	}
	defer closeFn()

	callCtx, cancel := h.callContext(ctx, defaultCallTimeout)
	defer cancel()
	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("get metadata: %w", err)
	}
	capabilities := make([]domain.Capability, 0, len(meta.Capabilities))
	for _, capability := range meta.Capabilities {
		capabilities = append(capabilities, domain.Capability(capability))
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version, Capabilities: capabilities}, nil
}

func (h *GRPCHost) CapturePhoto(ctx context.Context, manifest domain.Manifest, req domain.PhotoRequest) (domain.PhotoResult, error) {
	client, closeFn, err := h.connect(ctx, manifest, defaultStartTimeout)
	if err != nil {
		return domain.PhotoResult{}, err
	}
	defer closeFn()

	callCtx, cancel := h.callContext(ctx, photoCallTimeout)
	defer cancel()
	response, err := client.CapturePhoto(callCtx, &pluginrpc.PhotoRequest{
		SessionID: req.SessionID,
		TargetDir: req.TargetDir,
	})
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return domain.PhotoResult{}, fmt.Errorf("%w: photo capture", domain.ErrCaptureTimeout)
		}
		return domain.PhotoResult{}, fmt.Errorf("capture photo: %w", err)
	}
	return domain.PhotoResult{Cancelled: response.Cancelled, URI: response.URI}, nil
}

func (h *GRPCHost) RecordVoice(ctx context.Context, manifest domain.Manifest, req domain.VoiceRequest) (domain.VoiceResult, error) {
	client, closeFn, err := h.connect(ctx, manifest, defaultStartTimeout)
	if err != nil {
		return domain.VoiceResult{}, err
	}
	defer closeFn()

	timeout := time.Duration(req.MaxSeconds)*time.Second + voiceTimeoutMargin
	callCtx, cancel := h.callContext(ctx, timeout)
	defer cancel()
	response, err := client.RecordVoice(callCtx, &pluginrpc.VoiceRequest{
		SessionID:  req.SessionID,
		TargetDir:  req.TargetDir,
		MaxSeconds: int32(req.MaxSeconds),
	})
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return domain.VoiceResult{}, fmt.Errorf("%w: voice recording", domain.ErrCaptureTimeout)
		}
		return domain.VoiceResult{}, fmt.Errorf("record voice: %w", err)
	}
	return domain.VoiceResult{
		URI:       response.URI,
		StartedAt: time.UnixMilli(response.StartedAtUnixMS).UTC(),
		StoppedAt: time.UnixMilli(response.StoppedAtUnixMS).UTC(),
	}, nil
}

func (h *GRPCHost) connect(_ context.Context, manifest domain.Manifest, startTimeout time.Duration) (pluginrpc.CapturePluginClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  pluginrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          pluginrpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     startTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start capture plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(pluginrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense capture plugin: %w", err)
	}
	typed, ok := raw.(pluginrpc.CapturePluginClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("capture plugin rpc client type mismatch")
	}
	return typed, closeFn, nil
}

func (h *GRPCHost) callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
