package out

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"

	decoderrpc "vscan/internal/modules/decoder/adapter/out/rpc"
	"vscan/internal/modules/decoder/adapter/out/zxing"
	"vscan/internal/modules/decoder/domain"
	decoderout "vscan/internal/modules/decoder/port/out"
	scandomain "vscan/internal/modules/scan/domain"
	"vscan/internal/platform/logging"
	"vscan/internal/platform/video"
)

const (
	defaultStartTimeout  = 3 * time.Second
	defaultCallTimeout   = 5 * time.Second
	defaultDecodeTimeout = 2 * time.Second
)

type GRPCHost struct {
	logger hclog.Logger
}

func NewGRPCHost(logger hclog.Logger) decoderout.Host {
	return &GRPCHost{logger: logging.OrDiscard(logger)}
}

func (h *GRPCHost) CheckLifecycle(ctx context.Context, manifest domain.Manifest) error {
	_, err := h.GetMetadata(ctx, manifest)
	return err
}

func (h *GRPCHost) GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	client, typed, err := h.connect(manifest)
	if err != nil {
		return domain.Metadata{}, err
	}
	defer client.Kill()
	return fetchMetadata(ctx, typed)
}

// Open keeps the plugin process running until the returned Conn is closed.
func (h *GRPCHost) Open(ctx context.Context, manifest domain.Manifest) (decoderout.Conn, error) {
	client, typed, err := h.connect(manifest)
	if err != nil {
		return nil, err
	}
	meta, err := fetchMetadata(ctx, typed)
	if err != nil {
		client.Kill()
		return nil, err
	}
	h.logger.Debug("decoder plugin started", "name", manifest.Name, "version", meta.Version, "formats", len(meta.Formats))
	return &grpcConn{client: client, rpc: typed, meta: meta}, nil
}

func (h *GRPCHost) connect(manifest domain.Manifest) (*plugin.Client, decoderrpc.DecoderClient, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  decoderrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          decoderrpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           h.logger.Named("plugin").With("decoder", manifest.Name),
		GRPCDialOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(decoderrpc.MaxMessageSize)),
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("start decoder plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(decoderrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("dispense decoder plugin: %w", err)
	}
	typed, ok := raw.(decoderrpc.DecoderClient)
	if !ok {
		client.Kill()
		return nil, nil, fmt.Errorf("decoder rpc client type mismatch")
	}
	return client, typed, nil
}

func fetchMetadata(ctx context.Context, client decoderrpc.DecoderClient) (domain.Metadata, error) {
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("get metadata: %w", err)
	}
	formats := make([]scandomain.Format, 0, len(meta.Formats))
	for _, name := range meta.Formats {
		f, err := scandomain.ParseFormat(name)
		if err != nil {
			return domain.Metadata{}, fmt.Errorf("decoder metadata: %w", err)
		}
		formats = append(formats, f)
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version, Formats: formats}, nil
}

type grpcConn struct {
	client *plugin.Client
	rpc    decoderrpc.DecoderClient
	meta   domain.Metadata
	once   sync.Once
}

func (c *grpcConn) Metadata() domain.Metadata { return c.meta }

func (c *grpcConn) Decode(ctx context.Context, frame video.ImageData, opts scandomain.ReaderOptions) ([]scandomain.ReadResult, error) {
	if c.client.Exited() {
		return nil, fmt.Errorf("decoder plugin %s exited", c.meta.Name)
	}
	gray, err := zxing.Luminance(frame)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := callContext(ctx, defaultDecodeTimeout)
	defer cancel()
	resp, err := c.rpc.Decode(callCtx, &decoderrpc.DecodeRequest{
		Width:     frame.Width,
		Height:    frame.Height,
		Luminance: gray.Pix,
		Options:   opts,
	})
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s", domain.ErrDecoderTimeout, c.meta.Name)
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	return resp.Results, nil
}

func (c *grpcConn) Close() error {
	c.once.Do(c.client.Kill)
	return nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
