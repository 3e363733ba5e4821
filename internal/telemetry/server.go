package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/robosim/internal/params"
	"github.com/san-kum/robosim/internal/sim"
)

// Target is the simulation the server observes and edits.
type Target interface {
	Agent(name string) *sim.Agent
	RequestReset()
}

type Server struct {
	hub    *Hub
	target Target

	upgrader websocket.Upgrader
	// ApplyTimeout bounds how long a SET_PARAMS waits for the next tick boundary.
	ApplyTimeout time.Duration
}

func NewServer(hub *Hub, target Target) *Server {
	return &Server{
		hub:    hub,
		target: target,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		ApplyTimeout: 5 * time.Second,
	}
}

// Routes registers the HTTP and WebSocket endpoints on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /robots/{robot}/params", s.paramsHandler)
	mux.HandleFunc("GET /robots/{robot}/schema", s.schemaHandler)
	mux.HandleFunc("/ws", s.wsHandler)
}

func (s *Server) agent(rw http.ResponseWriter, r *http.Request) *sim.Agent {
	a := s.target.Agent(r.PathValue("robot"))
	if a == nil {
		http.Error(rw, fmt.Sprintf("unknown robot: %s", r.PathValue("robot")), http.StatusNotFound)
	}
	return a
}

func (s *Server) paramsHandler(rw http.ResponseWriter, r *http.Request) {
	a := s.agent(rw, r)
	if a == nil {
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	if err := params.WriteJSON(rw, a.Parameters()); err != nil {
		logrus.Warnf("telemetry: write params: %v", err)
	}
}

func (s *Server) schemaHandler(rw http.ResponseWriter, r *http.Request) {
	a := s.agent(rw, r)
	if a == nil {
		return
	}
	schema, err := params.Schema(a.Parameters())
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "application/schema+json")
	_, _ = rw.Write(schema)
}

func (s *Server) wsHandler(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id, frames := s.hub.Subscribe(64)
	defer s.hub.Unsubscribe(id)
	logrus.Debugf("telemetry: observer %d connected from %s", id, r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	replies := make(chan []byte, 8)
	writeErr := make(chan error, 1)
	go func() {
		for {
			var b []byte
			select {
			case <-ctx.Done():
				writeErr <- ctx.Err()
				return
			case f, ok := <-frames:
				if !ok {
					writeErr <- nil
					return
				}
				b = f
			case b = <-replies:
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				writeErr <- err
				return
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		reply := s.handle(ctx, msg)
		b, _ := json.Marshal(reply)
		select {
		case replies <- b:
		case <-ctx.Done():
		}
	}

	cancel()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
	select {
	case <-writeErr:
	case <-time.After(500 * time.Millisecond):
	}
	logrus.Debugf("telemetry: observer %d disconnected", id)
}

func (s *Server) handle(ctx context.Context, msg []byte) ServerMsg {
	var in ClientMsg
	if err := json.Unmarshal(msg, &in); err != nil {
		return ServerMsg{Type: TypeError, Error: "malformed message"}
	}

	switch in.Type {
	case TypeReset:
		s.target.RequestReset()
		return ServerMsg{Type: TypeAck}
	case TypeSetParams:
		err := s.setParams(ctx, in.Robot, in.Params)
		reply := ServerMsg{Type: TypeAck, Robot: in.Robot}
		if err != nil {
			reply.Error = err.Error()
		}
		return reply
	}
	return ServerMsg{Type: TypeError, Error: fmt.Sprintf("unknown message type %q", in.Type)}
}

var errApplyTimeout = errors.New("telemetry: parameters not applied before timeout, edit withdrawn")

// setParams validates doc against the robot's description, stages it, and
// waits for the simulation to apply it. An edit still queued when the wait
// ends is withdrawn.
func (s *Server) setParams(ctx context.Context, robot string, doc json.RawMessage) error {
	a := s.target.Agent(robot)
	if a == nil {
		return fmt.Errorf("unknown robot: %s", robot)
	}
	patch, err := params.ReadJSON(bytes.NewReader(doc), a.Parameters())
	if err != nil {
		return err
	}

	done := a.Stage(patch)
	timer := time.NewTimer(s.ApplyTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return withdraw(a, done, errApplyTimeout)
	case <-ctx.Done():
		return withdraw(a, done, ctx.Err())
	}
}

func withdraw(a *sim.Agent, done <-chan error, cause error) error {
	if a.Unstage(done) {
		return cause
	}
	return <-done
}
