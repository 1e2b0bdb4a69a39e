package main

import (
	"context"
	"errors"
	"strings"

	"github.com/danmuck/gemctl/internal/admin"
	"github.com/danmuck/gemctl/internal/capsule"
	"github.com/danmuck/gemctl/internal/config"
	"github.com/danmuck/gemctl/internal/gemini"
	"github.com/rs/zerolog"
)

// service wires the capsule router, the Gemini server and the optional admin surface.
type service struct {
	cfg    runtimeConfig
	server *gemini.Server
	admin  *admin.Server
	logger zerolog.Logger
}

func newService(cfg runtimeConfig, logger zerolog.Logger) (*service, error) {
	capsuleCfg := config.CapsuleConfig{}
	if path := strings.TrimSpace(cfg.CapsuleConfigPath); path != "" {
		loaded, err := config.LoadCapsuleConfig(path)
		if err != nil {
			return nil, err
		}
		capsuleCfg = loaded
	}
	app, err := capsule.New(capsuleCfg, logger)
	if err != nil {
		return nil, err
	}

	svc := &service{
		cfg:    cfg,
		server: gemini.NewServer(app, cfg.Server, logger),
		logger: logger,
	}
	if addr := strings.TrimSpace(cfg.AdminListenAddr); addr != "" {
		svc.admin = admin.New(admin.Config{
			ID:          capsuleCfg.Title,
			Addr:        addr,
			CorsOrigins: cfg.AdminCorsOrigins,
			Token:       cfg.AdminToken,
		}, svc.server, logger)
	}
	return svc, nil
}

// run blocks until ctx is cancelled or either server fails.
func (s *service) run(ctx context.Context) error {
	ln, err := s.server.Listen()
	if err != nil {
		return err
	}
	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Str("root_path", s.cfg.Server.RootPath).
		Msg("starting server")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	adminErr := make(chan error, 1)
	if s.admin != nil {
		go func() {
			adminErr <- s.admin.Run(ctx)
		}()
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.Serve(ctx, ln)
	}()

	select {
	case err := <-serveErr:
		return err
	case err := <-adminErr:
		cancel()
		return errors.Join(err, <-serveErr)
	}
}
