// Package capsule is the demo site served by gemctl: a debug landing page, a
// parameterised greeting, a failing route and the static pages declared in the
// capsule config.
package capsule

import (
	"context"
	"fmt"

	"github.com/danmuck/gemctl/internal/config"
	"github.com/danmuck/gemctl/internal/gemini"
	"github.com/danmuck/gemctl/internal/gemtext"
	"github.com/danmuck/gemctl/internal/router"
	"github.com/rs/zerolog"
)

const defaultGreeting = "This is a simple Gemini server written in Go."

// New builds the capsule router. Static pages are registered before the built-in
// routes so a config can shadow them.
func New(cfg config.CapsuleConfig, logger zerolog.Logger) (*router.Router, error) {
	r := router.New(logger)
	for _, page := range cfg.Pages {
		if err := r.Route(page.Path, staticPage(page)); err != nil {
			return nil, err
		}
	}
	if err := Register(r, cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds the built-in routes.
func Register(r *router.Router, cfg config.CapsuleConfig) error {
	greeting := cfg.Greeting
	if greeting == "" {
		greeting = defaultGreeting
	}
	routes := []struct {
		pattern string
		handler router.HandlerFunc
	}{
		{"/$", index(greeting)},
		{"/hello/{file}/?", hello},
		{"/error", fail},
	}
	for _, rt := range routes {
		if err := r.Route(rt.pattern, rt.handler); err != nil {
			return err
		}
	}
	return nil
}

func index(greeting string) router.HandlerFunc {
	return func(_ context.Context, req *router.Request) (*router.Response, error) {
		return router.Lines(
			gemtext.Pre(fmt.Sprintf("Client: %s\nPath: %s\nQuery: %s", req.Client, req.Path, req.Query), "debug"),
			gemtext.H1("Hello, world!"),
			greeting,
			gemtext.Item("It supports routing and error handling."),
			"",
			gemtext.Link("/hello/world", "Go to /hello/world"),
			"",
		), nil
	}
}

func hello(_ context.Context, req *router.Request) (*router.Response, error) {
	return router.Text(gemtext.Document(
		gemtext.H1("Hello, world!"),
		"",
		"You requested "+req.Param("file"),
	)), nil
}

func fail(context.Context, *router.Request) (*router.Response, error) {
	return nil, gemini.NewFailure("ValueError", "Goodbye cruel world!")
}

func staticPage(page config.PageConfig) router.HandlerFunc {
	return func(context.Context, *router.Request) (*router.Response, error) {
		body, err := page.Content()
		if err != nil {
			return nil, gemini.NewFailure("IOError", err.Error())
		}
		return &router.Response{Status: page.Status, Meta: page.Meta, Body: body}, nil
	}
}
