package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	socketio "github.com/googollee/go-socket.io"

	"github.com/sciddle/sciddle/internal/entity"
	"github.com/sciddle/sciddle/internal/store"
)

type stubFinder struct{}

func (stubFinder) FindStackByID(_ context.Context, id string) (*entity.Stack, error) {
	return &entity.Stack{ID: id}, nil
}

// fakeConn records emitted event names.
type fakeConn struct {
	id string

	mu     sync.Mutex
	events []string
}

var _ socketio.Conn = (*fakeConn)(nil)

func (c *fakeConn) Emit(eventName string, _ ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, eventName)
}

func (c *fakeConn) emitted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

func (c *fakeConn) ID() string                { return c.id }
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) URL() url.URL              { return url.URL{} }
func (c *fakeConn) LocalAddr() net.Addr       { return nil }
func (c *fakeConn) RemoteAddr() net.Addr      { return nil }
func (c *fakeConn) RemoteHeader() http.Header { return nil }
func (c *fakeConn) Context() interface{}      { return nil }
func (c *fakeConn) SetContext(interface{})    {}
func (c *fakeConn) Namespace() string         { return "/" }
func (c *fakeConn) Join(string)               {}
func (c *fakeConn) Leave(string)              {}
func (c *fakeConn) LeaveAll()                 {}
func (c *fakeConn) Rooms() []string           { return nil }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func contains(events []string, name string) bool {
	for _, e := range events {
		if e == name {
			return true
		}
	}
	return false
}

func runningServer(t *testing.T) (*Server, chan store.Event) {
	t.Helper()
	srv := New(stubFinder{})
	events := make(chan store.Event, 4)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Run(ctx, events)
	return srv, events
}

func TestRunPushesStateToWatchersOfChangedStack(t *testing.T) {
	srv, events := runningServer(t)
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	srv.addMember("0", a)
	srv.addMember("1", b)

	events <- store.Event{StackID: "0"}

	waitFor(t, "state push", func() bool { return contains(a.emitted(), "stack:state") })
	if contains(b.emitted(), "stack:state") {
		t.Fatal("watcher of another stack must not be notified")
	}
}

func TestRunClearAllNotifiesEveryRoom(t *testing.T) {
	srv, events := runningServer(t)
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	srv.addMember("0", a)
	srv.addMember("1", b)

	events <- store.Event{}

	waitFor(t, "broadcast state push", func() bool {
		return contains(a.emitted(), "stack:state") && contains(b.emitted(), "stack:state")
	})
}

func TestRunBroadcastsGlobalErrors(t *testing.T) {
	srv, events := runningServer(t)
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	srv.addMember("0", a)
	srv.addMember("1", b)

	events <- store.Event{Err: errors.New("database locked")}

	waitFor(t, "error broadcast", func() bool {
		return contains(a.emitted(), "stack:error") && contains(b.emitted(), "stack:error")
	})
}

func TestRunRoutesScopedErrorsToWatchers(t *testing.T) {
	srv, events := runningServer(t)
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	srv.addMember("0", a)
	srv.addMember("1", b)

	events <- store.Event{StackID: "1", Err: errors.New("write failed")}

	waitFor(t, "scoped error", func() bool { return contains(b.emitted(), "stack:error") })
	if contains(a.emitted(), "stack:error") {
		t.Fatal("error for another stack must not leak")
	}
}
