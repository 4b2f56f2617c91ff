// Copyright 2025 Ehab Terra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ehabterra/polylabel/internal/annotate"
	"github.com/ehabterra/polylabel/internal/config"
	"github.com/ehabterra/polylabel/internal/metrics"
	"github.com/ehabterra/polylabel/internal/server"
)

// Version info - can be injected at build time via -ldflags
var (
	Version   = "0.0.1"
	Commit    = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, act, err := parseFlags(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid configuration: %v", err)
	}
	if act.showVersion {
		printVersion(os.Stdout)
		return
	}
	if act.writeConfig != "" {
		if err := cfg.SaveToFile(act.writeConfig); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		log.Printf("Configuration written to %s", act.writeConfig)
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(cfg *config.Config) error {
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	svc, err := annotate.New(annotate.Options{
		ImagesDir:   cfg.Storage.ImagesDir,
		LabelsDir:   cfg.Storage.LabelsDir,
		ClassesFile: cfg.Storage.ClassesFile,
		Exclude:     cfg.Storage.Exclude,
		Verbose:     cfg.Server.Debug,
	}, metrics.NewCollector())
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, svc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("polylabel (%s) listening on %s", cfg.Server.Framework, cfg.Addr())
		log.Printf("images: %s, labels: %s, classes: %s", cfg.Storage.ImagesDir, cfg.Storage.LabelsDir, cfg.Storage.ClassesFile)
		errCh <- srv.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// cliAction is what main does besides serving.
type cliAction struct {
	showVersion bool
	writeConfig string
}

// parseFlags builds the configuration: defaults, then the YAML file given by
// -config, then environment, then flags that were set explicitly.
func parseFlags(args []string, getenv func(string) string, output io.Writer) (*config.Config, cliAction, error) {
	fset := flag.NewFlagSet("polylabel", flag.ContinueOnError)
	fset.SetOutput(output)

	var (
		configPath string
		act        cliAction
		exclude    stringSliceFlag
		flags      = config.Default()
	)

	fset.StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	fset.StringVar(&flags.Server.Host, "host", flags.Server.Host, "Server host")
	fset.IntVar(&flags.Server.Port, "port", flags.Server.Port, "Server port")
	fset.StringVar(&flags.Server.Framework, "framework", flags.Server.Framework, "HTTP framework: "+strings.Join(config.Frameworks, "|"))
	fset.BoolVar(&flags.Server.CORS, "cors", flags.Server.CORS, "Enable CORS headers")
	fset.BoolVar(&flags.Server.Debug, "debug", flags.Server.Debug, "Enable request and status logging")
	fset.StringVar(&flags.Server.StaticDir, "static", "", "Directory to serve the annotation UI from")
	fset.StringVar(&flags.Storage.ImagesDir, "images", flags.Storage.ImagesDir, "Images directory")
	fset.StringVar(&flags.Storage.LabelsDir, "labels", flags.Storage.LabelsDir, "Labels directory")
	fset.StringVar(&flags.Storage.ClassesFile, "classes", flags.Storage.ClassesFile, "Class list file")
	fset.Var(&exclude, "exclude", "Gitignore-style pattern of images to hide (repeatable)")
	fset.StringVar(&act.writeConfig, "write-config", "", "Write the resolved configuration as YAML to this path and exit")
	fset.BoolVar(&act.showVersion, "version", false, "Show version information")
	fset.BoolVar(&act.showVersion, "V", false, "Show version information (shorthand)")

	fset.Usage = func() {
		fmt.Fprintf(output, "polylabel - backend for a polygon annotation tool\n\n")
		fmt.Fprintf(output, "Usage: polylabel [flags]\n\nFlags:\n")
		fset.PrintDefaults()
		fmt.Fprintf(output, "\nExamples:\n")
		fmt.Fprintf(output, "  polylabel --images ./images --labels ./labels --classes classes.txt\n")
		fmt.Fprintf(output, "  polylabel --config polylabel.yaml --framework gin --port 8080\n")
		fmt.Fprintf(output, "  polylabel --port 8080 --write-config polylabel.yaml\n")
	}

	if err := fset.Parse(args); err != nil {
		return nil, act, err
	}
	if act.showVersion {
		return nil, act, nil
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(configPath); err != nil {
			return nil, act, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, act, err
	}

	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Server.Host = flags.Server.Host
		case "port":
			cfg.Server.Port = flags.Server.Port
		case "framework":
			cfg.Server.Framework = flags.Server.Framework
		case "cors":
			cfg.Server.CORS = flags.Server.CORS
		case "debug":
			cfg.Server.Debug = flags.Server.Debug
		case "static":
			cfg.Server.StaticDir = flags.Server.StaticDir
		case "images":
			cfg.Storage.ImagesDir = flags.Storage.ImagesDir
		case "labels":
			cfg.Storage.LabelsDir = flags.Storage.LabelsDir
		case "classes":
			cfg.Storage.ClassesFile = flags.Storage.ClassesFile
		case "exclude":
			cfg.Storage.Exclude = append(cfg.Storage.Exclude, exclude...)
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, act, err
	}
	return cfg, act, nil
}

// stringSliceFlag implements flag.Value for string slices
type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// detectVersionInfo fills version fields from the build info unless they
// were injected via -ldflags.
func detectVersionInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if info.GoVersion != "" {
		GoVersion = info.GoVersion
	}
	if Version != "0.0.1" {
		return
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			Commit = setting.Value
			if len(Commit) > 7 {
				Commit = Commit[:7]
			}
		case "vcs.time":
			BuildDate = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if dirty && !strings.HasSuffix(Version, "+dirty") {
		Version += "+dirty"
	}
}

func printVersion(w io.Writer) {
	detectVersionInfo()

	fmt.Fprintf(w, "polylabel version: %s\n", Version)
	fmt.Fprintf(w, "Commit: %s\n", Commit)
	fmt.Fprintf(w, "Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "Go version: %s\n", GoVersion)
}
