// Package ws exposes the path job runner over a websocket boundary:
// HELLO/WELCOME handshake, PATH_REQUEST submissions, CANCEL, and PATH_RESULT
// pushes as jobs finish.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"pathcraft.ai/internal/nav"
	"pathcraft.ai/internal/nav/jobs"
	"pathcraft.ai/internal/protocol"
)

type Server struct {
	runner   *jobs.Runner
	grid     protocol.GridParams
	defaults nav.PathRequest // per-request fields overridden by the message
	log      *log.Logger

	nextAgent atomic.Uint64
	upgrader  websocket.Upgrader
}

func NewServer(runner *jobs.Runner, grid protocol.GridParams, defaults nav.PathRequest, logger *log.Logger) *Server {
	return &Server{
		runner:   runner,
		grid:     grid,
		defaults: defaults,
		log:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		agentID, out := s.handshake(conn)
		if agentID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// requestID -> jobID, for CANCEL.
		var mu sync.Mutex
		pending := map[string]uint64{}

		send := func(v any) {
			b, err := json.Marshal(v)
			if err != nil {
				return
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
		}

		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.ProtocolVersion != protocol.Version {
				send(protocol.ErrorMsg{
					Type:            protocol.TypeError,
					ProtocolVersion: protocol.Version,
					Code:            protocol.ErrProtoBadRequest,
					Message:         "bad message envelope",
				})
				continue
			}

			switch base.Type {
			case protocol.TypePathRequest:
				var pr protocol.PathRequestMsg
				if err := json.Unmarshal(msg, &pr); err != nil || pr.RequestID == "" {
					send(protocol.ErrorMsg{
						Type:            protocol.TypeError,
						ProtocolVersion: protocol.Version,
						Code:            protocol.ErrProtoBadRequest,
						Message:         "bad PATH_REQUEST",
					})
					continue
				}
				id := s.runner.Submit(s.buildRequest(agentID, pr))
				if id == 0 {
					send(protocol.ErrorMsg{
						Type:            protocol.TypeError,
						ProtocolVersion: protocol.Version,
						RequestID:       pr.RequestID,
						Code:            protocol.ErrQueueFull,
						Message:         "job queue at capacity; collect results and retry",
					})
					continue
				}
				mu.Lock()
				pending[pr.RequestID] = id
				mu.Unlock()

				wg.Add(1)
				go func(requestID string, jobID uint64) {
					defer wg.Done()
					res, ok := s.runner.Wait(jobID)
					if !ok {
						return
					}
					mu.Lock()
					delete(pending, requestID)
					mu.Unlock()
					send(resultMsg(requestID, res))
				}(pr.RequestID, id)

			case protocol.TypeCancel:
				var cm protocol.CancelMsg
				if err := json.Unmarshal(msg, &cm); err != nil {
					continue
				}
				mu.Lock()
				id, ok := pending[cm.RequestID]
				mu.Unlock()
				if !ok || !s.runner.Cancel(id) {
					send(protocol.ErrorMsg{
						Type:            protocol.TypeError,
						ProtocolVersion: protocol.Version,
						RequestID:       cm.RequestID,
						Code:            protocol.ErrUnknownJob,
						Message:         "no such pending request",
					})
				}

			default:
				// Ignore unknown message types from newer clients.
			}
		}

		wg.Wait()
	}
}

func (s *Server) handshake(conn *websocket.Conn) (agentID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"),
			time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version || strings.TrimSpace(hello.AgentName) == "" {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad HELLO"),
			time.Now().Add(time.Second))
		return "", nil
	}

	agentID = fmt.Sprintf("%s#%d", strings.TrimSpace(hello.AgentName), s.nextAgent.Add(1))
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		AgentID:         agentID,
		Grid:            s.grid,
	}
	b, _ := json.Marshal(welcome)
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return "", nil
	}

	s.log.Printf("agent %s connected", agentID)
	return agentID, make(chan []byte, 256)
}

func (s *Server) buildRequest(agentID string, pr protocol.PathRequestMsg) nav.PathRequest {
	req := s.defaults
	req.AgentID = agentID
	req.Start = nav.Vec3{X: pr.Start[0], Y: pr.Start[1], Z: pr.Start[2]}
	req.Goal = nav.Vec3{X: pr.Goal[0], Y: pr.Goal[1], Z: pr.Goal[2]}
	if pr.AllowDiagonal != nil {
		req.AllowDiagonal = *pr.AllowDiagonal
	}
	if pr.HeuristicWeight > 0 {
		req.HeuristicWeight = pr.HeuristicWeight
	}
	if pr.FindNearestIfBlocked != nil {
		req.FindNearestIfBlocked = *pr.FindNearestIfBlocked
	}
	if pr.NearestSearchRadius > 0 {
		req.NearestSearchRadius = pr.NearestSearchRadius
	}
	if pr.DeadlineMs > 0 {
		req.Deadline = time.Now().Add(time.Duration(pr.DeadlineMs) * time.Millisecond)
	}
	return req
}

func resultMsg(requestID string, res nav.PathResult) protocol.PathResultMsg {
	m := protocol.PathResultMsg{
		Type:            protocol.TypePathResult,
		ProtocolVersion: protocol.Version,
		RequestID:       requestID,
		JobID:           res.JobID,
		AgentID:         res.AgentID,
		Status:          res.Status.String(),
		TotalCost:       res.TotalCost,
		ExpandedNodes:   res.ExpandedNodes,
		Error:           res.Err,
	}
	if len(res.Waypoints) > 0 {
		m.Waypoints = make([][3]float64, len(res.Waypoints))
		for i, wp := range res.Waypoints {
			m.Waypoints[i] = [3]float64{wp.X, wp.Y, wp.Z}
		}
	}
	return m
}
