// Command b2bconvert converts a vendor price list to the B2B CSV layout
// without running the server.
//
//	b2bconvert -in vendor.csv -out vendor_b2b.csv -manufacturer "Acme Floors"
//	b2bconvert -in vendor.xlsx -preview
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/JonMunkholm/b2bconvert/internal/config"
	"github.com/JonMunkholm/b2bconvert/internal/core"
	"github.com/JonMunkholm/b2bconvert/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "b2bconvert:", core.FormatUserError(err))
		slog.Debug("conversion error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		in           = flag.String("in", "-", "input CSV or XLSX file (- for stdin)")
		out          = flag.String("out", "-", "output CSV file (- for stdout)")
		manufacturer = flag.String("manufacturer", "", "manufacturer for rows without one")
		force        = flag.Bool("force", false, "apply -manufacturer to every row")
		layout       = flag.String("layout", string(core.LayoutCanonical), "output layout: canonical or extended")
		preview      = flag.Bool("preview", false, "print a JSON preview instead of converting")
	)
	flag.Parse()

	_ = godotenv.Load()

	var logCfg config.LoggingConfig
	if err := config.LoadSection(&logCfg); err != nil {
		return err
	}
	slog.SetDefault(logging.New(os.Stderr, logCfg.Level, logCfg.Format))

	var convCfg config.ConvertConfig
	if err := config.LoadSection(&convCfg); err != nil {
		return err
	}
	if err := convCfg.Validate(); err != nil {
		return err
	}
	converter, err := core.NewConverterFromConfig(convCfg)
	if err != nil {
		return err
	}

	lay, err := core.ParseLayout(*layout)
	if err != nil {
		return err
	}

	src, name, err := openInput(*in)
	if err != nil {
		return err
	}
	defer src.Close()

	opts := core.Options{
		FileName:             name,
		ManufacturerOverride: *manufacturer,
		ForceManufacturer:    *force,
		Layout:               lay,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service := core.NewService(converter, nil, core.ServiceOptions{})

	if *preview {
		res, err := service.Preview(ctx, src, opts)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	converted, err := service.Convert(ctx, src, opts)
	if err != nil {
		return err
	}
	defer converted.Close()

	return writeOutput(*out, converted)
}

func openInput(path string) (io.ReadCloser, string, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	return f, filepath.Base(path), nil
}

// writeOutput copies the finished conversion to path. A file target is only
// created once the conversion has succeeded.
func writeOutput(path string, src io.WriterTo) error {
	if path == "-" {
		_, err := src.WriteTo(os.Stdout)
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := src.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
