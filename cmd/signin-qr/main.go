// Command signin-qr writes one PNG QR code per student name. Printed codes
// are scanned by the classroom dashboard to sign students in.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/pflag"

	"smart-classroom/internal/camera"
	"smart-classroom/pkg/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "signin-qr:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.Load("")

	flagSet := pflag.NewFlagSet("signin-qr", pflag.ContinueOnError)
	outDir := flagSet.StringP("out", "o", "qrcodes", "directory to write PNG files to")
	size := flagSet.Int("size", 256, "image width and height in pixels")
	registry := flagSet.String("registry", camera.AssetsIn(cfg.FaceDataDir).Registry, "identity registry used when no names are given")
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: signin-qr [flags] [name ...]")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger, err := config.NewLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	names := flagSet.Args()
	if len(names) == 0 {
		reg, err := camera.LoadRegistry(*registry)
		if err != nil {
			return err
		}
		names = reg.Names()
		logger.Info("using identity registry", "path", *registry, "names", len(names))
	}
	if len(names) == 0 {
		return errors.New("no names to encode")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		path := filepath.Join(*outDir, fileName(name))
		if err := qrcode.WriteFile(name, qrcode.Medium, *size, path); err != nil {
			return fmt.Errorf("failed to write QR code for %q: %w", name, err)
		}
		logger.Info("wrote QR code", "name", name, "path", path)
	}
	return nil
}

// fileName maps a student name to a safe PNG file name
func fileName(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == os.PathSeparator:
			return '_'
		case r == ' ' || r == '\t':
			return '-'
		default:
			return r
		}
	}, name)
	return safe + ".png"
}
