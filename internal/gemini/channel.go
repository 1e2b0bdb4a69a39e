package gemini

import (
	"context"
	"sync"
)

// Channel is the ordered, unbounded queue between one Conn and one application
// instance. Send never blocks; Receive waits for the next message in FIFO order.
type Channel struct {
	mu    sync.Mutex
	queue []Message
	ready chan struct{}
}

func NewChannel() *Channel {
	return &Channel{ready: make(chan struct{}, 1)}
}

func (c *Channel) Send(msg Message) {
	c.mu.Lock()
	c.queue = append(c.queue, msg)
	c.mu.Unlock()
	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// Receive returns the oldest queued message, waiting until one arrives or ctx ends.
func (c *Channel) Receive(ctx context.Context) (Message, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			msg := c.queue[0]
			c.queue[0] = Message{}
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return msg, nil
		}
		c.mu.Unlock()

		select {
		case <-c.ready:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
