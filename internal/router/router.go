package router

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"runtime/debug"
	"sync"

	"github.com/danmuck/gemctl/internal/gemini"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidPattern = errors.New("router: invalid route pattern")
	ErrNilHandler     = errors.New("router: handler is nil")
)

var paramPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// HandlerFunc answers one routed request. A nil response with a nil error is an
// empty success.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// Request is the routed view of a gemini.Scope.
type Request struct {
	Path   string
	Query  string
	Client gemini.Addr
	Params map[string]string
	Scope  gemini.Scope
}

// Param returns a captured path placeholder, or "".
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// Values parses the raw query. Gemini queries are usually a single bare value, so
// the unescaped query is also available through Input.
func (r *Request) Values() url.Values {
	v, _ := url.ParseQuery(r.Query)
	return v
}

// Input is the unescaped query string.
func (r *Request) Input() string {
	s, err := url.QueryUnescape(r.Query)
	if err != nil {
		return r.Query
	}
	return s
}

type route struct {
	pattern string
	re      *regexp.Regexp
	handler HandlerFunc
}

// Router dispatches requests to the first route whose pattern matches the start of
// the request path. It implements gemini.Application.
type Router struct {
	logger zerolog.Logger

	mu     sync.RWMutex
	routes []route
}

func New(logger zerolog.Logger) *Router {
	return &Router{logger: logger.With().Str("component", "router").Logger()}
}

// Route registers pattern. Placeholders written as {name} match one word and are
// passed to the handler in Request.Params.
func (r *Router) Route(pattern string, handler HandlerFunc) error {
	if handler == nil {
		return ErrNilHandler
	}
	expanded := paramPattern.ReplaceAllString(pattern, `(?P<$1>\w+)`)
	re, err := regexp.Compile(`^(?:` + expanded + `)`)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	r.logger.Debug().Str("pattern", pattern).Str("regexp", expanded).Msg("adding route")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{pattern: pattern, re: re, handler: handler})
	return nil
}

// Patterns lists registered patterns in match order.
func (r *Router) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, rt.pattern)
	}
	return out
}

// Serve answers scope with exactly one response start and one final body.
func (r *Router) Serve(ctx context.Context, scope gemini.Scope, _ gemini.ReceiveFunc, send gemini.SendFunc) error {
	if scope.Type != gemini.ScopeType {
		return nil
	}
	resp := r.Handle(ctx, scope)
	if err := send(ctx, gemini.ResponseStart(resp.Status, resp.Meta)); err != nil {
		return err
	}
	return send(ctx, gemini.ResponseBody(resp.Body, false))
}

// Handle resolves scope to a response without touching the wire.
func (r *Router) Handle(ctx context.Context, scope gemini.Scope) *Response {
	handler, params, ok := r.match(scope.Path)
	if !ok {
		return NotFound()
	}
	req := &Request{
		Path:   scope.Path,
		Query:  scope.Query,
		Client: scope.Client,
		Params: params,
		Scope:  scope,
	}
	resp, err := r.call(ctx, handler, req)
	if err != nil {
		r.logger.Warn().Err(err).Str("path", scope.Path).Msg("handler failed")
		return Failed(err)
	}
	if resp == nil {
		return Text("")
	}
	return resp.normalize()
}

func (r *Router) call(ctx context.Context, handler HandlerFunc, req *Request) (resp *Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &gemini.PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return handler(ctx, req)
}

func (r *Router) match(path string) (HandlerFunc, map[string]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rt := range r.routes {
		m := rt.re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		params := make(map[string]string)
		for i, name := range rt.re.SubexpNames() {
			if name != "" && i < len(m) {
				params[name] = m[i]
			}
		}
		return rt.handler, params, true
	}
	return nil, nil, false
}
