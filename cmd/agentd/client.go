package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/agentd/pkg/protocol"
)

// wireClient is a thin dialer used by the client subcommands, mirroring
// the teacher's agent_chat_client.go wsConnect/wsChatSend pair but
// speaking agentd's connect/tools.call/ping methods instead of chat.send.
type wireClient struct {
	conn *websocket.Conn
}

func dial(addr, token, workspace string) (*wireClient, error) {
	wsURL := fmt.Sprintf("ws://%s/ws", addr)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	wc := &wireClient{conn: conn}

	params, _ := json.Marshal(map[string]interface{}{"token": token, "workspace": workspace})
	if err := wc.send("connect-1", protocol.MethodConnect, params); err != nil {
		conn.Close()
		return nil, err
	}
	resp, err := wc.recvResponse()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if !resp.OK {
		conn.Close()
		if resp.Error != nil {
			return nil, fmt.Errorf("connect rejected: %s", resp.Error.Message)
		}
		return nil, fmt.Errorf("connect rejected")
	}
	return wc, nil
}

func (c *wireClient) send(id, method string, params json.RawMessage) error {
	idJSON, _ := json.Marshal(id)
	req := protocol.RequestFrame{Type: protocol.FrameRequest, ID: idJSON, Method: method, Params: params}
	return c.conn.WriteJSON(req)
}

func (c *wireClient) recvResponse() (*protocol.ResponseFrame, error) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		if probe.Type != protocol.FrameResponse {
			continue // event frame (tool start/result, tick) — not our response
		}
		var resp protocol.ResponseFrame
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}
		return &resp, nil
	}
}

func (c *wireClient) close() { c.conn.Close() }

func clientCmd() *cobra.Command {
	var addr string
	var token string
	var workspace string

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Dial a running agentd daemon over its session WebSocket",
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "127.0.0.1:3847", "daemon address")
	cmd.PersistentFlags().StringVar(&token, "token", "", "bearer token (default: loaded from the token file)")
	cmd.PersistentFlags().StringVar(&workspace, "workspace", "", "workspace to bind the session to")

	cmd.AddCommand(clientPingCmd(&addr, &token, &workspace))
	cmd.AddCommand(clientCallCmd(&addr, &token, &workspace))
	return cmd
}

func resolveToken(flagToken string) (string, error) {
	if flagToken != "" {
		return flagToken, nil
	}
	return loadOrCreateToken()
}

func clientPingCmd(addr, token, workspace *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Connect and send a ping",
		Run: func(cmd *cobra.Command, args []string) {
			tok, err := resolveToken(*token)
			if err != nil {
				fmt.Fprintf(os.Stderr, "ping: %v\n", err)
				os.Exit(1)
			}
			wc, err := dial(*addr, tok, *workspace)
			if err != nil {
				fmt.Fprintf(os.Stderr, "ping: %v\n", err)
				os.Exit(1)
			}
			defer wc.close()

			if err := wc.send("ping-1", protocol.MethodPing, nil); err != nil {
				fmt.Fprintf(os.Stderr, "ping: %v\n", err)
				os.Exit(1)
			}
			resp, err := wc.recvResponse()
			if err != nil {
				fmt.Fprintf(os.Stderr, "ping: %v\n", err)
				os.Exit(1)
			}
			printResponse(resp)
		},
	}
}

func clientCallCmd(addr, token, workspace *string) *cobra.Command {
	var argsJSON string

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call a single tool and print its result",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			toolArgs := map[string]interface{}{}
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &toolArgs); err != nil {
					fmt.Fprintf(os.Stderr, "call: invalid --args JSON: %v\n", err)
					os.Exit(1)
				}
			}

			tok, err := resolveToken(*token)
			if err != nil {
				fmt.Fprintf(os.Stderr, "call: %v\n", err)
				os.Exit(1)
			}
			wc, err := dial(*addr, tok, *workspace)
			if err != nil {
				fmt.Fprintf(os.Stderr, "call: %v\n", err)
				os.Exit(1)
			}
			defer wc.close()

			params, _ := json.Marshal(map[string]interface{}{"name": args[0], "args": toolArgs})
			if err := wc.send("call-1", protocol.MethodToolsCall, params); err != nil {
				fmt.Fprintf(os.Stderr, "call: %v\n", err)
				os.Exit(1)
			}
			resp, err := wc.recvResponse()
			if err != nil {
				fmt.Fprintf(os.Stderr, "call: %v\n", err)
				os.Exit(1)
			}
			printResponse(resp)
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "", "tool arguments as a JSON object")
	return cmd
}

func printResponse(resp *protocol.ResponseFrame) {
	if !resp.OK {
		if resp.Error != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", resp.Error.Code, resp.Error.Message)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "request failed")
		os.Exit(1)
	}
	out, err := json.MarshalIndent(resp.Payload, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
