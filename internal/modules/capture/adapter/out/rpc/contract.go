package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey       = "poolintake"
	serviceName        = "poolintake.capture.v1.CapturePlugin"
	jsonCodecName      = "json"
	methodGetMetadata  = "/" + serviceName + "/GetMetadata"
	methodCapturePhoto = "/" + serviceName + "/CapturePhoto"
	methodRecordVoice  = "/" + serviceName + "/RecordVoice"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "POOLINTAKE_CAPTURE",
	MagicCookieValue: "poolintake",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

type PhotoRequest struct {
	SessionID string `json:"session_id"`
	TargetDir string `json:"target_dir"`
}

type PhotoResponse struct {
	Cancelled bool   `json:"cancelled"`
	URI       string `json:"uri"`
}

type VoiceRequest struct {
	SessionID  string `json:"session_id"`
	TargetDir  string `json:"target_dir"`
	MaxSeconds int32  `json:"max_seconds"`
}

// VoiceResponse reports wall-clock start/stop in unix milliseconds so the
// host derives duration without trusting the plugin's arithmetic.
type VoiceResponse struct {
	URI             string `json:"uri"`
	StartedAtUnixMS int64  `json:"started_at_unix_ms"`
	StoppedAtUnixMS int64  `json:"stopped_at_unix_ms"`
}

type CapturePluginServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	CapturePhoto(ctx context.Context, in *PhotoRequest) (*PhotoResponse, error)
	RecordVoice(ctx context.Context, in *VoiceRequest) (*VoiceResponse, error)
}

type CapturePluginClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	CapturePhoto(ctx context.Context, in *PhotoRequest) (*PhotoResponse, error)
	RecordVoice(ctx context.Context, in *VoiceRequest) (*VoiceResponse, error)
}

type capturePluginClient struct {
	conn *grpc.ClientConn
}

func NewCapturePluginClient(conn *grpc.ClientConn) CapturePluginClient {
	return &capturePluginClient{conn: conn}
}

func (c *capturePluginClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *capturePluginClient) CapturePhoto(ctx context.Context, in *PhotoRequest) (*PhotoResponse, error) {
	out := &PhotoResponse{}
	if err := c.conn.Invoke(ctx, methodCapturePhoto, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *capturePluginClient) RecordVoice(ctx context.Context, in *VoiceRequest) (*VoiceResponse, error) {
	out := &VoiceResponse{}
	if err := c.conn.Invoke(ctx, methodRecordVoice, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterCapturePluginServer(server grpc.ServiceRegistrar, impl CapturePluginServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*CapturePluginServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetMetadata",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.GetMetadata(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetMetadata}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.GetMetadata(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "CapturePhoto",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &PhotoRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.CapturePhoto(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCapturePhoto}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*PhotoRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.CapturePhoto(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "RecordVoice",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &VoiceRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.RecordVoice(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRecordVoice}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*VoiceRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.RecordVoice(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/capture-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl CapturePluginServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterCapturePluginServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewCapturePluginClient(conn), nil
}

func PluginMap(impl CapturePluginServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
