package pglisten

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// fakeConn replays a scripted sequence of wait outcomes: call N returns
// waitResults[N], the last entry repeating. A nil entry delivers a
// notification.
type fakeConn struct {
	waitResults []error
	waitCalls   int
	execSQL     []string
	closed      bool
}

func (c *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.execSQL = append(c.execSQL, sql)
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	i := c.waitCalls
	if i >= len(c.waitResults) {
		i = len(c.waitResults) - 1
	}
	c.waitCalls++

	if err := c.waitResults[i]; err != nil {
		return nil, err
	}
	return &pgconn.Notification{Channel: "jobs", Payload: "{}"}, nil
}

func (c *fakeConn) Close(context.Context) error {
	c.closed = true
	return nil
}

// newTestListener hands out conns in order, the last repeating, and counts
// dials.
func newTestListener(conns ...*fakeConn) (*Listener, *int) {
	dials := 0

	l := &Listener{
		connAttempts: 3,
		connTimeout:  time.Millisecond,
		url:          "postgres://test",
		channels:     []string{"jobs"},
		dial: func(context.Context, string) (connection, error) {
			i := dials
			if i >= len(conns) {
				i = len(conns) - 1
			}
			dials++
			return conns[i], nil
		},
	}

	return l, &dials
}

func TestConnectSubscribesChannels(t *testing.T) {
	conn := &fakeConn{waitResults: []error{nil}}
	l, _ := newTestListener(conn)

	if err := l.connectRetry(context.Background()); err != nil {
		t.Fatalf("connectRetry() error = %v", err)
	}

	if len(conn.execSQL) != 1 || !strings.Contains(conn.execSQL[0], `LISTEN "jobs"`) {
		t.Errorf("executed = %v, want a quoted LISTEN on jobs", conn.execSQL)
	}
}

// A dropped connection must not leave the listener waiting on a dead socket
// forever: the failed wait re-dials and re-LISTENs, and the next wait runs
// on the fresh subscription.
func TestWaitReconnectsAfterConnectionLoss(t *testing.T) {
	dead := &fakeConn{waitResults: []error{errors.New("unexpected EOF")}}
	live := &fakeConn{waitResults: []error{nil}}
	l, dials := newTestListener(dead, live)

	if err := l.connectRetry(context.Background()); err != nil {
		t.Fatalf("connectRetry() error = %v", err)
	}

	if _, err := l.WaitForNotification(context.Background()); err == nil {
		t.Fatal("WaitForNotification() expected error from the dead connection")
	}

	if *dials != 2 {
		t.Errorf("dials = %d, want 2 (startup + reconnect)", *dials)
	}
	if !dead.closed {
		t.Error("dead connection was not closed")
	}
	if len(live.execSQL) != 1 || !strings.Contains(live.execSQL[0], `LISTEN "jobs"`) {
		t.Errorf("fresh connection executed = %v, want the LISTEN re-issued", live.execSQL)
	}

	n, err := l.WaitForNotification(context.Background())
	if err != nil {
		t.Fatalf("WaitForNotification() after reconnect error = %v", err)
	}
	if n.Channel != "jobs" {
		t.Errorf("channel = %q, want jobs", n.Channel)
	}
}

// Shutdown cancels the wait; that is not a connection failure and must not
// trigger a re-dial.
func TestWaitDoesNotReconnectOnCancelledContext(t *testing.T) {
	conn := &fakeConn{waitResults: []error{nil}}
	l, dials := newTestListener(conn)

	if err := l.connectRetry(context.Background()); err != nil {
		t.Fatalf("connectRetry() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := l.WaitForNotification(ctx); err == nil {
		t.Fatal("WaitForNotification() expected error on cancelled context")
	}

	if *dials != 1 {
		t.Errorf("dials = %d, want 1", *dials)
	}
}
