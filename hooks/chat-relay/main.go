// Package main is a hook that forwards gesture events to the chat client.
// It posts a message to a local chat endpoint configured per binding.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/talkheal/gesturemode/internal/hook"
)

// RelayConfig is the binding config accepted by the send action.
type RelayConfig struct {
	URL  string `json:"url"`
	Text string `json:"text"` // defaults to the gesture text
}

// ChatMessage is the body posted to the chat endpoint.
type ChatMessage struct {
	Text    string     `json:"text"`
	Source  string     `json:"source"`
	Gesture hook.Event `json:"gesture"`
}

func main() {
	client := &http.Client{Timeout: 3 * time.Second}
	run(os.Stdin, os.Stdout, client)
}

func run(stdin io.Reader, stdout io.Writer, client *http.Client) {
	var req hook.Request
	if err := json.NewDecoder(stdin).Decode(&req); err != nil {
		writeResponse(stdout, hook.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	switch req.Action {
	case "send":
		if err := handleSend(client, req); err != nil {
			writeResponse(stdout, hook.Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
			return
		}
	default:
		writeResponse(stdout, hook.Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	writeResponse(stdout, hook.Response{Success: true})
}

func handleSend(client *http.Client, req hook.Request) error {
	var cfg RelayConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.URL == "" {
		return fmt.Errorf("url is required")
	}

	msg := ChatMessage{
		Text:    cfg.Text,
		Source:  "gesture",
		Gesture: req.Event,
	}
	if msg.Text == "" {
		msg.Text = req.Gesture
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	resp, err := client.Post(cfg.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("chat endpoint returned %s", resp.Status)
	}
	return nil
}

func writeResponse(w io.Writer, resp hook.Response) {
	json.NewEncoder(w).Encode(resp)
}
