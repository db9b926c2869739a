// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})

	// .env must be loaded before the flags take their defaults from the
	// environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("⚠️  loading .env: %v", err)
	}

	registerConfigFlags(rootCmd.PersistentFlags(), &options)
}

var rootCmd = &cobra.Command{
	Use:   "geofix",
	Short: "fixes the coordinates of the Paris places catalog",
	Long: `
geofix finds the places of the catalog whose coordinates are missing, invalid,
outside Paris or shared with other places, geocodes them again with Nominatim
(or Google Maps) and Photon, and writes the corrected files back with a backup
and a report of every correction.
`,
	SilenceUsage:      true,
	PersistentPreRunE: checkOptions,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
