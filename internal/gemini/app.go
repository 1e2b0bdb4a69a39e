package gemini

import "context"

// ReceiveFunc waits for the next message addressed to the application.
type ReceiveFunc func(ctx context.Context) (Message, error)

// SendFunc hands one response message to the connection.
type SendFunc func(ctx context.Context, msg Message) error

// Application computes one response per request. An instance is expected to send
// exactly one response start followed by body frames, the last with MoreBody=false.
// A returned error (or panic) is reported to the peer as status 50 when no response
// has started yet.
type Application interface {
	Serve(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error
}

// ApplicationFunc adapts a function into an Application.
type ApplicationFunc func(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error

func (f ApplicationFunc) Serve(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
	return f(ctx, scope, receive, send)
}
