package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultSource = "camera:0"
	dataDir       = ".vscan"
)

type Config struct {
	Home          string
	DBPath        string
	OptionsPath   string
	DecodersPath  string
	Source        string
	Decoder       string
	AllowInsecure bool
	LogLevel      string
}

func New(home, source, decoder string) (Config, error) {
	if strings.TrimSpace(home) == "" {
		return Config{}, fmt.Errorf("home path is required")
	}
	if strings.TrimSpace(source) == "" {
		source = defaultSource
	}
	return Config{
		Home:          home,
		DBPath:        filepath.Join(home, dataDir, "vscan.db"),
		OptionsPath:   filepath.Join(home, dataDir, "vscan.yaml"),
		DecodersPath:  filepath.Join(home, dataDir, "decoders.json"),
		Source:        source,
		Decoder:       decoder,
		AllowInsecure: os.Getenv("VSCAN_ALLOW_INSECURE") == "1",
		LogLevel:      os.Getenv("VSCAN_LOG_LEVEL"),
	}, nil
}
