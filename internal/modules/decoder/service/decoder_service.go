package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"vscan/internal/modules/decoder/domain"
	"vscan/internal/modules/decoder/dto"
	decoderin "vscan/internal/modules/decoder/port/in"
	decoderout "vscan/internal/modules/decoder/port/out"
	scandomain "vscan/internal/modules/scan/domain"
	"vscan/internal/platform/logging"
	"vscan/internal/platform/video"
)

type DecoderService struct {
	store   decoderout.ManifestStore
	host    decoderout.Host
	builtin decoderout.Conn
	logger  hclog.Logger
}

// NewDecoderService serves builtin requests from builtin and plugin requests
// through host. host may be nil, in which case only builtin can be opened.
func NewDecoderService(store decoderout.ManifestStore, host decoderout.Host, builtin decoderout.Conn, logger hclog.Logger) *DecoderService {
	return &DecoderService{store: store, host: host, builtin: builtin, logger: logging.OrDiscard(logger).Named("decoder")}
}

func (s *DecoderService) List(ctx context.Context) ([]dto.DecoderInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DecoderInfo, 0, len(manifests)+1)
	if s.builtin != nil {
		meta := s.builtin.Metadata()
		out = append(out, dto.DecoderInfo{Name: domain.BuiltinName, Version: meta.Version, Enabled: true, Formats: formatNames(meta.Formats)})
	}
	for _, m := range manifests {
		out = append(out, dto.DecoderInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary, Formats: m.Formats})
	}
	return out, nil
}

func (s *DecoderService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests)+1)
	if s.builtin != nil {
		meta := s.builtin.Metadata()
		results = append(results, dto.DoctorResult{Name: domain.BuiltinName, ChecksumValid: true, BinaryReachable: true, LifecycleOK: true, Formats: formatNames(meta.Formats)})
	}
	for _, m := range manifests {
		result := dto.DoctorResult{Name: m.Name, Formats: m.Formats}
		if err := m.Validate(); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		binaryOK := fileExists(m.Binary)
		result.BinaryReachable = binaryOK
		checksumOK := false
		if binaryOK {
			checksumOK = checksumMatches(m.Binary, m.SHA256) == nil
		}
		result.ChecksumValid = checksumOK
		if binaryOK && checksumOK && m.Enabled && s.host != nil {
			if meta, err := s.host.GetMetadata(ctx, m); err != nil {
				result.Error = err.Error()
			} else if err := meta.Supports(m.ParsedFormats()); err != nil {
				result.Error = err.Error()
			} else {
				result.LifecycleOK = true
			}
		}
		if !binaryOK {
			result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
		}
		if binaryOK && !checksumOK {
			result.Error = "checksum mismatch"
		}
		results = append(results, result)
	}
	return results, nil
}

// Open returns a decoder ready for scanning. An empty name selects builtin.
func (s *DecoderService) Open(ctx context.Context, input dto.OpenInput) (decoderin.Backend, error) {
	requested := make([]scandomain.Format, 0, len(input.Formats))
	for _, name := range input.Formats {
		f, err := scandomain.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		requested = append(requested, f)
	}

	if input.Name == "" || input.Name == domain.BuiltinName {
		if s.builtin == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrDecoderNotFound, domain.BuiltinName)
		}
		if err := s.builtin.Metadata().Supports(requested); err != nil {
			return nil, err
		}
		return &backend{name: domain.BuiltinName, conn: s.builtin}, nil
	}

	manifest, err := s.getRunnableManifest(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	conn, err := s.host.Open(ctx, manifest)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDecoderTimeout, input.Name)
		}
		return nil, err
	}
	if err := conn.Metadata().Supports(requested); err != nil {
		_ = conn.Close()
		return nil, err
	}
	s.logger.Info("decoder opened", "name", manifest.Name, "version", manifest.Version)
	return &backend{name: manifest.Name, conn: conn}, nil
}

func (s *DecoderService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seenNames := map[string]struct{}{}
	for _, manifest := range manifests {
		if err := manifest.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seenNames[manifest.Name]; ok {
			return nil, fmt.Errorf("duplicate decoder name: %s", manifest.Name)
		}
		seenNames[manifest.Name] = struct{}{}
	}
	return manifests, nil
}

func (s *DecoderService) getRunnableManifest(ctx context.Context, name string) (domain.Manifest, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return domain.Manifest{}, err
	}
	manifest := domain.Manifest{}
	found := false
	for _, item := range manifests {
		if item.Name == name {
			manifest = item
			found = true
			break
		}
	}
	if !found {
		return domain.Manifest{}, fmt.Errorf("%w: %s", domain.ErrDecoderNotFound, name)
	}
	if !manifest.Enabled {
		return domain.Manifest{}, fmt.Errorf("%w: %s", domain.ErrDecoderDisabled, name)
	}
	if err := checksumMatches(manifest.Binary, manifest.SHA256); err != nil {
		return domain.Manifest{}, err
	}
	if s.host == nil {
		return domain.Manifest{}, fmt.Errorf("no plugin host configured for decoder %s", name)
	}
	return manifest, nil
}

type backend struct {
	name string
	conn decoderout.Conn
}

func (b *backend) Name() string { return b.name }

func (b *backend) Decode(ctx context.Context, frame video.ImageData, opts scandomain.ReaderOptions) ([]scandomain.ReadResult, error) {
	return b.conn.Decode(ctx, frame, opts)
}

func (b *backend) Close() error { return b.conn.Close() }

func formatNames(formats []scandomain.Format) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		out = append(out, f.String())
	}
	return out
}

func checksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read decoder binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	actual := hex.EncodeToString(hash[:])
	if actual != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
