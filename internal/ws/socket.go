package ws

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/sciddle/sciddle/internal/entity"
	"github.com/sciddle/sciddle/internal/store"
)

type ConnCtx struct {
	StackID string
}

// Finder loads stacks for state pushes.
type Finder interface {
	FindStackByID(ctx context.Context, id string) (*entity.Stack, error)
}

// Server pushes stack state to connected clients. It is read-only: all
// mutations go through the HTTP API.
type Server struct {
	finder Finder

	mu      sync.RWMutex
	members map[string]map[string]socketio.Conn // stackID -> socketID -> Conn
}

func New(finder Finder) *Server {
	return &Server{finder: finder, members: make(map[string]map[string]socketio.Conn)}
}

// Mount attaches the Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	// stack:watch subscribes the connection to one stack's state stream.
	io.OnEvent("/", "stack:watch", func(s socketio.Conn, payload struct {
		StackID string `json:"stackId"`
	}) map[string]any {
		if payload.StackID == "" {
			return srv.err(s, "bad_request", "Missing stack id")
		}
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.StackID != "" {
			s.Leave(ctx.StackID)
			srv.removeMember(ctx.StackID, s)
		}
		s.SetContext(&ConnCtx{StackID: payload.StackID})
		s.Join(payload.StackID)
		srv.addMember(payload.StackID, s)
		log.Info().Str("sid", s.ID()).Str("stackId", payload.StackID).Msg("stack:watch")
		srv.emitStateTo(payload.StackID)
		return map[string]any{"ok": true}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.StackID != "" {
			srv.removeMember(ctx.StackID, s)
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// Run consumes store events until ctx is done, pushing fresh state to every
// watcher of the changed stack.
func (srv *Server) Run(ctx context.Context, events <-chan store.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Err != nil {
				if ev.StackID == "" {
					// global failure: every room hears about it
					for _, stackID := range srv.watchedStacks() {
						srv.emitErrorTo(stackID, ev.Err)
					}
					continue
				}
				srv.emitErrorTo(ev.StackID, ev.Err)
				continue
			}
			if ev.StackID == "" {
				// clear-all: notify every room
				for _, stackID := range srv.watchedStacks() {
					srv.emitStateTo(stackID)
				}
				continue
			}
			srv.emitStateTo(ev.StackID)
		}
	}
}

func (srv *Server) addMember(stackID string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[stackID] == nil {
		srv.members[stackID] = make(map[string]socketio.Conn)
	}
	srv.members[stackID][c.ID()] = c
}

func (srv *Server) removeMember(stackID string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[stackID]; m != nil {
		delete(m, c.ID())
	}
}

func (srv *Server) emitStateTo(stackID string) {
	conns := srv.connsFor(stackID)
	if len(conns) == 0 {
		return
	}
	stack, err := srv.finder.FindStackByID(context.Background(), stackID)
	if err != nil {
		srv.emitErrorTo(stackID, err)
		return
	}
	for _, c := range conns {
		c.Emit("stack:state", stack)
	}
}

func (srv *Server) emitErrorTo(stackID string, err error) {
	for _, c := range srv.connsFor(stackID) {
		c.Emit("stack:error", map[string]any{"message": err.Error()})
	}
}

func (srv *Server) connsFor(stackID string) []socketio.Conn {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	conns := make([]socketio.Conn, 0, len(srv.members[stackID]))
	for _, c := range srv.members[stackID] {
		conns = append(conns, c)
	}
	return conns
}

func (srv *Server) watchedStacks() []string {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	ids := make([]string, 0, len(srv.members))
	for id := range srv.members {
		ids = append(ids, id)
	}
	return ids
}

func (srv *Server) err(s socketio.Conn, code, message string) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message})
	return map[string]any{"error": message}
}
