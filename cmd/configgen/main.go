package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/gemctl/internal/config"
	"github.com/danmuck/gemctl/internal/logging"
)

func defaultPath(kind string) (string, error) {
	switch kind {
	case "server":
		return "cmd/gemctl/config.toml", nil
	case "capsule":
		return "cmd/gemctl/capsule.toml", nil
	default:
		return "", fmt.Errorf("unknown kind: %s", kind)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("configgen", flag.ContinueOnError)
	kind := fs.String("kind", "server", "config kind: server|capsule")
	output := fs.String("output", "", "output path for config template")
	validate := fs.Bool("validate", false, "validate an existing config file")
	input := fs.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.ConfigureRuntime()
	logger := logging.New("configgen")

	if *validate {
		path := *input
		if path == "" {
			p, err := defaultPath(*kind)
			if err != nil {
				return err
			}
			path = p
		}
		if err := config.Validate(path, *kind); err != nil {
			return err
		}
		logger.Info().Str("kind", *kind).Str("path", path).Msg("validated config")
		return nil
	}

	target := *output
	if target == "" {
		p, err := defaultPath(*kind)
		if err != nil {
			return err
		}
		target = p
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		return err
	}
	logger.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "configgen: %v\n", err)
		os.Exit(1)
	}
}
