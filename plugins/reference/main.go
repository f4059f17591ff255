package main

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"

	decoderrpc "vscan/internal/modules/decoder/adapter/out/rpc"
	"vscan/internal/modules/decoder/adapter/out/zxing"
)

type server struct {
	logger hclog.Logger
}

func (s *server) GetMetadata(_ context.Context, _ *decoderrpc.Empty) (*decoderrpc.Metadata, error) {
	formats := []string{}
	for _, f := range zxing.Formats() {
		formats = append(formats, f.String())
	}
	return &decoderrpc.Metadata{
		Name:    "reference",
		Version: "1.0.0",
		Formats: formats,
	}, nil
}

func (s *server) Decode(ctx context.Context, in *decoderrpc.DecodeRequest) (*decoderrpc.DecodeResponse, error) {
	if in.Width <= 0 || in.Height <= 0 || len(in.Luminance) < in.Width*in.Height {
		return nil, fmt.Errorf("luminance buffer does not match %dx%d", in.Width, in.Height)
	}
	gray := &image.Gray{Pix: in.Luminance, Stride: in.Width, Rect: image.Rect(0, 0, in.Width, in.Height)}
	results, err := zxing.DecodeGray(ctx, gray, in.Options)
	if err != nil {
		return nil, err
	}
	s.logger.Trace("frame decoded", "width", in.Width, "height", in.Height, "results", len(results))
	return &decoderrpc.DecodeResponse{Results: results}, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "reference-decoder",
		Level:      hclog.Info,
		Output:     os.Stderr,
		JSONFormat: true,
	})
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: decoderrpc.HandshakeConfig,
		Plugins:         decoderrpc.PluginMap(&server{logger: logger}),
		GRPCServer: func(opts []grpc.ServerOption) *grpc.Server {
			return plugin.DefaultGRPCServer(append(opts, decoderrpc.ServerOptions()...))
		},
		Logger: logger,
	})
}
