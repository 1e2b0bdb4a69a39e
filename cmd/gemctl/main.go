package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/gemctl/internal/gemini"
	"github.com/danmuck/gemctl/internal/logging"
	"github.com/rs/zerolog"
)

type cliFlags struct {
	configPath string
	verbose    bool
	noColor    bool
	port       int
	host       string
	certFile   string
	keyFile    string
	rootPath   string
}

func parseFlags(fs *flag.FlagSet, args []string) (cliFlags, map[string]bool, error) {
	var f cliFlags
	fs.StringVar(&f.configPath, "config", "", "path to gemctl config.toml")
	fs.BoolVar(&f.verbose, "v", false, "enable debug logging")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored log output")
	fs.IntVar(&f.port, "p", gemini.DefaultPort, "port to listen on")
	fs.StringVar(&f.host, "b", gemini.DefaultHost, "host to bind to")
	fs.StringVar(&f.certFile, "certfile", "cert.pem", "TLS certificate file")
	fs.StringVar(&f.keyFile, "keyfile", "key.pem", "TLS key file")
	fs.StringVar(&f.rootPath, "root-path", "", "root path the capsule is mounted under")
	if err := fs.Parse(args); err != nil {
		return cliFlags{}, nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		set[fl.Name] = true
	})
	return f, set, nil
}

// resolveConfig loads the config file, if any, and applies explicit flags on top.
func resolveConfig(f cliFlags, set map[string]bool) (runtimeConfig, error) {
	cfg := defaultRuntimeConfig()
	if f.configPath != "" {
		loaded, err := loadRuntimeConfig(f.configPath)
		if err != nil {
			return runtimeConfig{}, err
		}
		cfg = loaded
	}
	if set["p"] {
		cfg.Server.Port = f.port
	}
	if set["b"] {
		cfg.Server.Host = f.host
	}
	if set["certfile"] {
		cfg.Server.CertFile = f.certFile
	}
	if set["keyfile"] {
		cfg.Server.KeyFile = f.keyFile
	}
	if set["root-path"] {
		cfg.Server.RootPath = f.rootPath
	}
	return cfg, cfg.Server.Validate()
}

func run(args []string) error {
	f, set, err := parseFlags(flag.NewFlagSet("gemctl", flag.ContinueOnError), args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig(logging.ProfileRuntime)
	logCfg.NoColor = f.noColor
	if f.verbose {
		logCfg.Level = zerolog.DebugLevel
	}
	logger := logging.ConfigureWith(logCfg)

	cfg, err := resolveConfig(f, set)
	if err != nil {
		return err
	}
	svc, err := newService(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = svc.run(ctx)
	if ctx.Err() != nil {
		exitLogger := logging.New("gemctl")
		exitLogger.Info().Msg("Exiting due to interrupt")
	}
	return err
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gemctl: %v\n", err)
		os.Exit(1)
	}
}
