package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	scandomain "vscan/internal/modules/scan/domain"
)

const (
	PluginMapKey      = "decoder"
	serviceName       = "vscan.decoder.v1.Decoder"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodDecode      = "/" + serviceName + "/Decode"

	// MaxMessageSize fits one 4096x4096 luminance frame plus envelope.
	MaxMessageSize = 64 << 20
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "VSCAN_DECODER_PLUGIN",
	MagicCookieValue: "vscan",
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
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Formats []string `json:"formats"`
}

// DecodeRequest carries one frame as 8-bit luminance, row major.
type DecodeRequest struct {
	Width     int                      `json:"width"`
	Height    int                      `json:"height"`
	Luminance []byte                   `json:"luminance"`
	Options   scandomain.ReaderOptions `json:"options"`
}

type DecodeResponse struct {
	Results []scandomain.ReadResult `json:"results"`
}

type DecoderServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Decode(ctx context.Context, in *DecodeRequest) (*DecodeResponse, error)
}

type DecoderClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Decode(ctx context.Context, in *DecodeRequest) (*DecodeResponse, error)
}

type decoderClient struct {
	conn *grpc.ClientConn
}

func NewDecoderClient(conn *grpc.ClientConn) DecoderClient {
	return &decoderClient{conn: conn}
}

func (c *decoderClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *decoderClient) Decode(ctx context.Context, in *DecodeRequest) (*DecodeResponse, error) {
	out := &DecodeResponse{}
	err := c.conn.Invoke(ctx, methodDecode, in, out,
		grpc.CallContentSubtype(jsonCodecName),
		grpc.MaxCallSendMsgSize(MaxMessageSize),
		grpc.MaxCallRecvMsgSize(MaxMessageSize),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterDecoderServer(server grpc.ServiceRegistrar, impl DecoderServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*DecoderServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("GetMetadata", methodGetMetadata, impl.GetMetadata),
			unary("Decode", methodDecode, impl.Decode),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/decoder-rpc-v1.proto",
	}, impl)
}

// unary adapts a typed handler to the untyped grpc method table, routing
// through the server interceptor when one is installed.
func unary[Req, Resp any](name, fullMethod string, call func(context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("%s: unexpected request type %T", fullMethod, req)
				}
				return call(ctx, typed)
			})
		},
	}
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl DecoderServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterDecoderServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewDecoderClient(conn), nil
}

func PluginMap(impl DecoderServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}

// ServerOptions raise the receive limit so full frames fit in one call.
func ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.MaxSendMsgSize(MaxMessageSize),
	}
}
