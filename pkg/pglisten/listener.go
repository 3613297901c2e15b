// Package pglisten wraps a dedicated Postgres connection subscribed to
// LISTEN channels. Notifications queue on the connection while the caller
// is busy, so nothing published after connect is dropped. A dead connection
// is re-dialed and re-subscribed on the next wait.
package pglisten

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
)

// connection is the subset of pgx.Conn the listener needs. Injectable so the
// reconnect path is testable without a live database.
type connection interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

type Listener struct {
	connAttempts int
	connTimeout  time.Duration

	url      string
	channels []string

	dial func(ctx context.Context, url string) (connection, error)
	conn connection
}

func New(ctx context.Context, url string, channels []string, opts ...Option) (*Listener, error) {
	l := &Listener{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		url:          url,
		channels:     channels,
		dial: func(ctx context.Context, url string) (connection, error) {
			return pgx.Connect(ctx, url)
		},
	}

	for _, opt := range opts {
		opt(l)
	}

	if err := l.connectRetry(ctx); err != nil {
		return nil, fmt.Errorf("Listener - New - connAttempts == 0: %w", err)
	}

	return l, nil
}

func (l *Listener) connectRetry(ctx context.Context) error {
	var err error
	for attempt := l.connAttempts; attempt > 0; attempt-- {
		err = l.connect(ctx)
		if err == nil {
			return nil
		}

		log.Printf("Postgres listener is trying to connect, attempts left: %d", attempt)

		time.Sleep(l.connTimeout)
	}

	return err
}

func (l *Listener) connect(ctx context.Context) error {
	conn, err := l.dial(ctx, l.url)
	if err != nil {
		return fmt.Errorf("Listener - l.dial: %w", err)
	}

	for _, channel := range l.channels {
		_, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize())
		if err != nil {
			_ = conn.Close(ctx)

			return fmt.Errorf("Listener - conn.Exec LISTEN %s: %w", channel, err)
		}
	}

	l.conn = conn

	return nil
}

// reconnect replaces a dead connection and re-issues the LISTEN
// subscriptions. Notifications published while disconnected are lost;
// callers that cannot tolerate that need a backlog scan on top.
func (l *Listener) reconnect(ctx context.Context) error {
	_ = l.conn.Close(ctx)

	return l.connectRetry(ctx)
}

// WaitForNotification blocks until a notification arrives on any of the
// subscribed channels or ctx is done. A connection failure triggers a
// re-dial and re-LISTEN before returning, so the caller's next call waits
// on a live subscription instead of a dead socket.
func (l *Listener) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	n, err := l.conn.WaitForNotification(ctx)
	if err != nil {
		if ctx.Err() == nil {
			if recErr := l.reconnect(ctx); recErr != nil {
				return nil, fmt.Errorf("Listener - WaitForNotification - reconnect: %w", recErr)
			}
		}

		return nil, fmt.Errorf("Listener - WaitForNotification: %w", err)
	}

	return n, nil
}

func (l *Listener) Close(ctx context.Context) error {
	if l.conn != nil {
		return l.conn.Close(ctx)
	}

	return nil
}
