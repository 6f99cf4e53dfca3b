// Command announce is a posecoach plugin that speaks rep counts and set results.
// It uses say on macOS and spd-say elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Request is the input from the plugin executor.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	Config    json.RawMessage `json:"config"`
	Payload   json.RawMessage `json:"payload"`
}

// Response is the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type config struct {
	EveryRep bool `json:"every_rep"`
}

type payload struct {
	Rep *struct {
		Index      int     `json:"index"`
		Score      float64 `json:"score"`
		Assessment struct {
			Counted bool   `json:"counted"`
			Message string `json:"message"`
		} `json:"assessment"`
	} `json:"rep"`
	Set *struct {
		RepsCounted  int     `json:"reps_counted"`
		RepsTarget   int     `json:"reps_target"`
		FinalPercent float64 `json:"final_percent"`
	} `json:"set"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		respond(fmt.Errorf("decode request: %w", err))
		return
	}
	cfg := config{EveryRep: true}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			respond(fmt.Errorf("decode config: %w", err))
			return
		}
	}
	var p payload
	if err := json.Unmarshal(req.Payload, &p); err != nil {
		respond(fmt.Errorf("decode payload: %w", err))
		return
	}

	text := phrase(req.Event, p, cfg)
	if text == "" {
		respond(nil)
		return
	}
	respond(speak(text))
}

func phrase(event string, p payload, cfg config) string {
	switch {
	case event == "rep" && p.Rep != nil && cfg.EveryRep:
		if !p.Rep.Assessment.Counted {
			return p.Rep.Assessment.Message
		}
		return fmt.Sprintf("%d", p.Rep.Index)
	case event == "set" && p.Set != nil:
		return fmt.Sprintf("Set done. %d of %d. %.0f percent.", p.Set.RepsCounted, p.Set.RepsTarget, p.Set.FinalPercent)
	}
	return ""
}

func speak(text string) error {
	name := "spd-say"
	if runtime.GOOS == "darwin" {
		name = "say"
	}
	out, err := exec.Command(name, text).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}

func respond(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
