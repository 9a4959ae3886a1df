package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-client/pkg/types"
)

const (
	writeTimeout = 3 * time.Second
	outboxSize   = 32
	readLimit    = 1 << 20
)

// Conn is the client side of the shared game channel. Commands are queued by
// Send and written by WriteLoop; frames are read by ReadLoop.
type Conn struct {
	c   *websocket.Conn
	out chan types.ClientCommand
	log *zap.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func Dial(ctx context.Context, url string, header http.Header, log *zap.Logger) (*Conn, error) {
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c.SetReadLimit(readLimit)
	if log == nil {
		log = zap.NewNop()
	}
	return &Conn{
		c:      c,
		out:    make(chan types.ClientCommand, outboxSize),
		log:    log.Named("ws"),
		closed: make(chan struct{}),
	}, nil
}

// Send queues cmd without blocking. It reports false when the connection is
// closed or the queue is full.
func (c *Conn) Send(cmd types.ClientCommand) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.out <- cmd:
		return true
	default:
		c.log.Warn("outbox full, dropping command", zap.String("type", string(cmd.Type)))
		return false
	}
}

// ReadLoop hands every text frame to deliver until the connection ends. A clean
// close or a cancelled ctx returns nil.
func (c *Conn) ReadLoop(ctx context.Context, deliver func([]byte)) error {
	for {
		typ, data, err := c.c.Read(ctx)
		if err != nil {
			// Treat clean close/going-away as normal:
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if ctx.Err() != nil || c.isClosed() {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if typ != websocket.MessageText {
			c.log.Debug("ignore non-text frame", zap.Stringer("kind", typ))
			continue
		}
		deliver(data)
	}
}

// WriteLoop drains the send queue. Each write gets its own deadline.
func (c *Conn) WriteLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.closed:
			return nil
		case cmd := <-c.out:
			payload, err := json.Marshal(cmd)
			if err != nil {
				c.log.Error("encode command", zap.String("type", string(cmd.Type)), zap.Error(err))
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.c.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				if ctx.Err() != nil || c.isClosed() {
					return nil
				}
				return fmt.Errorf("write %s: %w", cmd.Type, err)
			}
		}
	}
}

// Close ends the connection. Later calls are no-ops.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.c.Close(websocket.StatusNormalClosure, "bye")
	})
	return err
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
