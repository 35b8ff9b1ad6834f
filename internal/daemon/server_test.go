package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nextlevelbuilder/agentd/internal/config"
	"github.com/nextlevelbuilder/agentd/internal/session"
	"github.com/nextlevelbuilder/agentd/pkg/protocol"
)

func startTestAgentd(t *testing.T, cfg *config.Config) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := session.NewHub()
	d := New(cfg, t.TempDir(), hub)
	srv := NewServer(cfg, hub, d)

	addr, start := StartTestServer(srv, ctx)
	go start()
	time.Sleep(20 * time.Millisecond) // let the listener come up
	return addr
}

func TestServer_HealthEndpointReportsOK(t *testing.T) {
	cfg, _ := testConfig(t, config.TierExec, false, false)
	cfg.Token = "test-token"
	addr := startTestAgentd(t, cfg)

	resp, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestServer_WebSocketConnectAndPing(t *testing.T) {
	cfg, ws := testConfig(t, config.TierExec, false, false)
	cfg.Token = "test-token"
	cfg.DefaultWorkspace = ws.Name
	addr := startTestAgentd(t, cfg)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	connectParams, _ := json.Marshal(map[string]interface{}{"token": "test-token", "workspace": ws.Name})
	idJSON, _ := json.Marshal("connect-1")
	if err := conn.WriteJSON(protocol.RequestFrame{
		Type: protocol.FrameRequest, ID: idJSON, Method: protocol.MethodConnect, Params: connectParams,
	}); err != nil {
		t.Fatalf("write connect: %v", err)
	}

	var connectResp protocol.ResponseFrame
	if err := conn.ReadJSON(&connectResp); err != nil {
		t.Fatalf("read connect response: %v", err)
	}
	if !connectResp.OK {
		t.Fatalf("connect rejected: %+v", connectResp.Error)
	}

	pingID, _ := json.Marshal("ping-1")
	if err := conn.WriteJSON(protocol.RequestFrame{
		Type: protocol.FrameRequest, ID: pingID, Method: protocol.MethodPing,
	}); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	var pingResp protocol.ResponseFrame
	if err := conn.ReadJSON(&pingResp); err != nil {
		t.Fatalf("read ping response: %v", err)
	}
	if !pingResp.OK {
		t.Fatalf("ping failed: %+v", pingResp.Error)
	}
}
