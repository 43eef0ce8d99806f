// Package refine asks an upstream language model for a second opinion on a
// locally computed finish-time estimate. The reply is advisory only: callers
// keep their own estimate authoritative and degrade gracefully when the
// upstream is unconfigured, unreachable or incoherent.
package refine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNoCredential means no upstream API key is configured.
	ErrNoCredential = errors.New("refine: no API key configured")
	// ErrUnparsable means the upstream replied but not with the two
	// integers we asked for, or with an inverted range.
	ErrUnparsable = errors.New("refine: upstream reply not parsable")
)

// Request is the refinement input forwarded to the model.
type Request struct {
	DistanceKm      *float64        `json:"distanceKm"`
	ElevationGain   *float64        `json:"elevationGain"`
	MetricsSummary  string          `json:"metricsSummary,omitempty"`
	CurrentEstimate CurrentEstimate `json:"currentEstimate"`
	Params          *Params         `json:"params,omitempty"`
}

type CurrentEstimate struct {
	RangeFormatted string  `json:"rangeFormatted"`
	Formatted      string  `json:"formatted"`
	BasePace       float64 `json:"basePace"`
	FinalPace      float64 `json:"finalPace"`
	TotalMinutes   float64 `json:"totalMinutes,omitempty"`
}

type Params struct {
	FitnessLevel   *float64 `json:"fitnessLevel,omitempty"`
	TechnicalIndex string   `json:"technicalIndex,omitempty"`
	EnduranceIndex string   `json:"enduranceIndex,omitempty"`
	RefuelStops    *int     `json:"refuelStops,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
}

// Validate checks the fields the boundary must reject on when absent.
func (r Request) Validate() error {
	switch {
	case r.DistanceKm == nil:
		return errors.New("distanceKm is required")
	case r.ElevationGain == nil:
		return errors.New("elevationGain is required")
	case r.CurrentEstimate.RangeFormatted == "":
		return errors.New("currentEstimate.rangeFormatted is required")
	}
	return nil
}

// Suggestion is the upstream's refined window in minutes.
type Suggestion struct {
	SuggestedMinMinutes int `json:"suggestedMinMinutes"`
	SuggestedMaxMinutes int `json:"suggestedMaxMinutes"`
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	url        string
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewClient(url, model, apiKey string) *Client {
	return &Client{
		url:    url,
		model:  model,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You are an experienced trail running coach. Given a race and a ` +
	`runner's current finish-time estimate, reply with a refined window as strict JSON: ` +
	`{"suggestedMinMinutes": <integer>, "suggestedMaxMinutes": <integer>}. ` +
	`No prose, no markdown fences.`

// Refine forwards the estimate upstream and parses the refined window.
// Returns ErrNoCredential when unconfigured and ErrUnparsable when the
// reply cannot be read as a coherent window.
func (c *Client) Refine(ctx context.Context, req Request) (*Suggestion, error) {
	if c.apiKey == "" {
		return nil, ErrNoCredential
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(raw))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty reply", ErrUnparsable)
	}

	return parseSuggestion(chat.Choices[0].Message.Content)
}

func userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Race: %.1f km, %.0f m of elevation gain.\n", *req.DistanceKm, *req.ElevationGain)
	fmt.Fprintf(&b, "Current estimate: %s (range %s), base pace %.1f min/km, final pace %.1f min/km.\n",
		req.CurrentEstimate.Formatted, req.CurrentEstimate.RangeFormatted,
		req.CurrentEstimate.BasePace, req.CurrentEstimate.FinalPace)
	if req.MetricsSummary != "" {
		fmt.Fprintf(&b, "Runner training summary: %s\n", req.MetricsSummary)
	}
	if p := req.Params; p != nil {
		if p.FitnessLevel != nil {
			fmt.Fprintf(&b, "Fitness level: %.0f%%.\n", *p.FitnessLevel)
		}
		if p.TechnicalIndex != "" {
			fmt.Fprintf(&b, "Technical ability: %s.\n", p.TechnicalIndex)
		}
		if p.EnduranceIndex != "" {
			fmt.Fprintf(&b, "Endurance profile: %s.\n", p.EnduranceIndex)
		}
		if p.RefuelStops != nil {
			fmt.Fprintf(&b, "Planned refuel stops: %d.\n", *p.RefuelStops)
		}
		if p.Temperature != nil {
			fmt.Fprintf(&b, "Expected temperature: %.0f°C.\n", *p.Temperature)
		}
	}
	return b.String()
}

// parseSuggestion reads the model's reply, tolerating surrounding prose or
// markdown fences around the JSON object.
func parseSuggestion(content string) (*Suggestion, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrUnparsable)
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(content[start:end+1]), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	if s.SuggestedMinMinutes < 0 || s.SuggestedMaxMinutes < s.SuggestedMinMinutes {
		return nil, fmt.Errorf("%w: incoherent window %d–%d", ErrUnparsable,
			s.SuggestedMinMinutes, s.SuggestedMaxMinutes)
	}
	return &s, nil
}
