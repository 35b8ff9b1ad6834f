package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nextlevelbuilder/agentd/internal/apperr"
	"github.com/nextlevelbuilder/agentd/internal/config"
	"github.com/nextlevelbuilder/agentd/internal/toolkit"
	"github.com/nextlevelbuilder/agentd/pkg/protocol"
)

const maxFrameBytes = 5 * 1024 * 1024 // 5 MiB

const closeAuthFailed = 4001

// ServerInfo is the name/version pair reported in the connect hello.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Client is one authenticated-or-not WebSocket session. Grounded on the
// teacher's gateway.Client shape (conn + per-client send mutex), extended
// with the spec's auth state, bound workspace, and monotonic seq counter.
type Client struct {
	id    string
	conn  *websocket.Conn
	hub   *Hub
	disp  Dispatcher
	token string
	info  ServerInfo

	writeMu sync.Mutex
	seq     uint64

	authMu   sync.RWMutex
	authed   bool
	clientNm string
	ws       *config.Workspace
}

// NewClient wraps a newly upgraded websocket connection.
func NewClient(conn *websocket.Conn, hub *Hub, disp Dispatcher, token string, info ServerInfo) *Client {
	conn.SetReadLimit(maxFrameBytes)
	return &Client{
		id:    uuid.NewString(),
		conn:  conn,
		hub:   hub,
		disp:  disp,
		token: token,
		info:  info,
	}
}

// Authenticated reports whether connect succeeded on this session.
func (c *Client) Authenticated() bool {
	c.authMu.RLock()
	defer c.authMu.RUnlock()
	return c.authed
}

// Run drives the read loop until the connection closes or ctx is done.
func (c *Client) Run(ctx context.Context) {
	c.hub.register(c)
	defer c.hub.unregister(c)
	defer c.disp.EndSession(c.id)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if isOversizedFrame(err) {
				// gorilla already sent a 1009 close control frame once
				// SetReadLimit(maxFrameBytes) tripped; best-effort write
				// the PAYLOAD_TOO_LARGE response frame spec.md calls for
				// before the connection finishes closing.
				c.writeResponse(protocol.NewErrorResponse(nil, string(apperr.CodePayloadTooLarge),
					"frame exceeds the maximum allowed size", nil))
			}
			return
		}
		c.handleFrame(ctx, raw)
	}
}

// isOversizedFrame reports whether err resulted from tripping
// conn.SetReadLimit(maxFrameBytes) — gorilla/websocket returns a plain
// "read limit exceeded" error in that case, not a *CloseError, since the
// close control frame it sends is outbound, not received.
func isOversizedFrame(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseMessageTooBig) {
		return true
	}
	return strings.Contains(err.Error(), "read limit exceeded")
}

// Close closes the underlying connection.
func (c *Client) Close() {
	c.conn.Close()
}

func (c *Client) handleFrame(ctx context.Context, raw []byte) {
	var req protocol.RequestFrame
	if err := json.Unmarshal(raw, &req); err != nil {
		c.writeResponse(protocol.NewErrorResponse(nil, string(apperr.CodeParseError), "malformed frame", nil))
		return
	}
	if req.Type != protocol.FrameRequest || req.Method == "" {
		c.writeResponse(protocol.NewErrorResponse(req.ID, string(apperr.CodeInvalidRequest), "invalid request frame", nil))
		return
	}

	if req.Method == protocol.MethodConnect {
		c.handleConnect(req)
		return
	}

	if !c.Authenticated() {
		c.writeResponse(protocol.NewErrorResponse(req.ID, string(apperr.CodeUnauthorized), "session is not authenticated", nil))
		return
	}

	switch req.Method {
	case protocol.MethodPing:
		c.writeResponse(protocol.NewResponse(req.ID, map[string]interface{}{"pong": true}))
	case protocol.MethodToolsList:
		c.handleToolsList(req)
	case protocol.MethodToolsCall:
		c.handleToolsCall(ctx, req)
	case protocol.MethodApprovalsList:
		c.handleApprovalsList(req)
	case protocol.MethodApprovalsDecide:
		c.handleApprovalsDecide(req)
	default:
		c.writeResponse(protocol.NewErrorResponse(req.ID, string(apperr.CodeMethodNotFound), "unknown method: "+req.Method, nil))
	}
}

type connectParams struct {
	Token  string `json:"token"`
	Client *struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"client,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}

func (c *Client) handleConnect(req protocol.RequestFrame) {
	var params connectParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			c.writeResponse(protocol.NewErrorResponse(req.ID, string(apperr.CodeInvalidRequest), "invalid connect params", nil))
			return
		}
	}

	if !constantTimeEqual(params.Token, c.token) {
		c.writeResponse(protocol.NewErrorResponse(req.ID, string(apperr.CodeAuthFailed), "authentication failed", nil))
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(closeAuthFailed, "auth failed"), time.Now().Add(2*time.Second))
		return
	}

	ws, ok := c.disp.Workspace(params.Workspace)
	if !ok {
		c.writeResponse(protocol.NewErrorResponse(req.ID, string(apperr.CodeInternalError), "no workspace configured", nil))
		return
	}

	c.authMu.Lock()
	c.authed = true
	c.ws = ws
	if params.Client != nil {
		c.clientNm = params.Client.Name
	}
	c.authMu.Unlock()

	tools := c.disp.ListTools(ws)
	hello := map[string]interface{}{
		"protocol": protocol.ProtocolVersion,
		"server":   c.info,
		"workspace": map[string]interface{}{
			"name": ws.Name,
			"root": ws.Root,
			"tier": ws.Tier,
		},
		"tools": tools,
		"features": map[string]interface{}{
			"methods": []string{
				protocol.MethodConnect, protocol.MethodToolsList, protocol.MethodToolsCall, protocol.MethodPing,
				protocol.MethodApprovalsList, protocol.MethodApprovalsDecide,
			},
			"events": []string{protocol.EventTool, protocol.EventTick, protocol.EventApproval},
		},
	}
	c.writeResponse(protocol.NewResponse(req.ID, hello))
}

func (c *Client) handleToolsList(req protocol.RequestFrame) {
	c.authMu.RLock()
	ws := c.ws
	c.authMu.RUnlock()
	c.writeResponse(protocol.NewResponse(req.ID, c.disp.ListTools(ws)))
}

type toolsCallParams struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

func (c *Client) handleToolsCall(ctx context.Context, req protocol.RequestFrame) {
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		c.writeResponse(protocol.NewErrorResponse(req.ID, string(apperr.CodeInvalidRequest), "invalid tools.call params", nil))
		return
	}

	c.authMu.RLock()
	ws := c.ws
	c.authMu.RUnlock()

	toolCallID := uuid.NewString()
	c.sendEvent(protocol.EventTool, map[string]interface{}{
		"phase":      protocol.ToolPhaseStart,
		"toolCallId": toolCallID,
		"name":       params.Name,
	})

	result := c.disp.CallTool(ctx, c.id, toolCallID, ws, params.Name, params.Args)

	c.sendEvent(protocol.EventTool, map[string]interface{}{
		"phase":      protocol.ToolPhaseResult,
		"toolCallId": toolCallID,
		"name":       params.Name,
		"isError":    result.IsError,
	})

	if result.IsError {
		code, message := splitErrorCode(result.Error)
		c.writeResponse(protocol.NewErrorResponse(req.ID, code, message, result.Details))
		return
	}
	c.writeResponse(protocol.NewResponse(req.ID, result.Data))
}

func (c *Client) handleApprovalsList(req protocol.RequestFrame) {
	c.writeResponse(protocol.NewResponse(req.ID, c.disp.ListApprovals(c.id)))
}

type approvalsDecideParams struct {
	ID       string `json:"id"`
	Decision string `json:"decision"`
}

func (c *Client) handleApprovalsDecide(req protocol.RequestFrame) {
	var params approvalsDecideParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.ID == "" {
		c.writeResponse(protocol.NewErrorResponse(req.ID, string(apperr.CodeInvalidRequest), "invalid approvals.decide params", nil))
		return
	}

	var decision toolkit.ApprovalDecision
	switch params.Decision {
	case "approved", "approve":
		decision = toolkit.DecisionApproved
	case "denied", "deny":
		decision = toolkit.DecisionDenied
	default:
		c.writeResponse(protocol.NewErrorResponse(req.ID, string(apperr.CodeInvalidRequest), "decision must be approved or denied", nil))
		return
	}

	if !c.disp.DecideApproval(c.id, params.ID, decision) {
		c.writeResponse(protocol.NewErrorResponse(req.ID, string(apperr.CodeInternalError), "no pending approval with that id", nil))
		return
	}
	c.writeResponse(protocol.NewResponse(req.ID, map[string]interface{}{"id": params.ID, "decision": params.Decision}))
}

// splitErrorCode extracts the leading "CODE: " prefix the toolkit
// handlers attach to error messages, falling back to INTERNAL_ERROR when
// no recognizable code prefix is present.
func splitErrorCode(msg string) (code, message string) {
	if idx := strings.Index(msg, ": "); idx > 0 {
		candidate := msg[:idx]
		if candidate == strings.ToUpper(candidate) && !strings.Contains(candidate, " ") {
			return candidate, msg[idx+2:]
		}
	}
	return string(apperr.CodeInternalError), msg
}

func (c *Client) writeResponse(res *protocol.ResponseFrame) {
	c.writeJSON(res)
}

func (c *Client) sendEvent(event string, payload interface{}) {
	c.writeJSON(protocol.NewEvent(event, payload, c.nextSeq()))
}

// nextSeq returns the next strictly increasing sequence number for this
// session's outbound events (spec section 8 invariant 6).
func (c *Client) nextSeq() uint64 {
	return atomic.AddUint64(&c.seq, 1)
}

func (c *Client) writeJSON(v interface{}) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(v); err != nil {
		slog.Warn("session write failed", "id", c.id, "error", err)
	}
}
