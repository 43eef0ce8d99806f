package refine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func validRequest() Request {
	return Request{
		DistanceKm:    ptr(100),
		ElevationGain: ptr(5000),
		CurrentEstimate: CurrentEstimate{
			RangeFormatted: "16h–19h",
			Formatted:      "17h30",
			BasePace:       7.5,
			FinalPace:      10.5,
			TotalMinutes:   1050,
		},
	}
}

// chatServer returns a test server replying with the given message content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding chat request: %v", err)
		}
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
	}))
}

func TestRefineParsesSuggestion(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		min, max int
	}{
		{"bare json", `{"suggestedMinMinutes": 980, "suggestedMaxMinutes": 1150}`, 980, 1150},
		{"fenced json", "```json\n{\"suggestedMinMinutes\": 900, \"suggestedMaxMinutes\": 1000}\n```", 900, 1000},
		{"json with prose", `Here is my refined window: {"suggestedMinMinutes": 1000, "suggestedMaxMinutes": 1200} based on the terrain.`, 1000, 1200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.content)
			defer srv.Close()

			client := NewClient(srv.URL, "test-model", "test-key")
			got, err := client.Refine(context.Background(), validRequest())
			if err != nil {
				t.Fatalf("Refine() error: %v", err)
			}
			if got.SuggestedMinMinutes != tt.min || got.SuggestedMaxMinutes != tt.max {
				t.Errorf("suggestion = %d–%d, want %d–%d",
					got.SuggestedMinMinutes, got.SuggestedMaxMinutes, tt.min, tt.max)
			}
		})
	}
}

func TestRefineUnparsableReplies(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no json", "I think around seventeen hours."},
		{"inverted window", `{"suggestedMinMinutes": 1200, "suggestedMaxMinutes": 900}`},
		{"negative min", `{"suggestedMinMinutes": -10, "suggestedMaxMinutes": 900}`},
		{"wrong types", `{"suggestedMinMinutes": "soon", "suggestedMaxMinutes": "later"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.content)
			defer srv.Close()

			client := NewClient(srv.URL, "test-model", "test-key")
			_, err := client.Refine(context.Background(), validRequest())
			if !errors.Is(err, ErrUnparsable) {
				t.Errorf("Refine() error = %v, want ErrUnparsable", err)
			}
		})
	}
}

func TestRefineNoCredential(t *testing.T) {
	client := NewClient("http://unused.invalid", "test-model", "")
	_, err := client.Refine(context.Background(), validRequest())
	if !errors.Is(err, ErrNoCredential) {
		t.Errorf("Refine() error = %v, want ErrNoCredential", err)
	}
}

func TestRefineUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-model", "test-key")
	_, err := client.Refine(context.Background(), validRequest())
	if err == nil {
		t.Fatal("Refine() error = nil, want upstream status error")
	}
	if errors.Is(err, ErrUnparsable) || errors.Is(err, ErrNoCredential) {
		t.Errorf("upstream failure misclassified: %v", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should carry upstream status: %v", err)
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr bool
	}{
		{"valid", func(r *Request) {}, false},
		{"missing distance", func(r *Request) { r.DistanceKm = nil }, true},
		{"missing gain", func(r *Request) { r.ElevationGain = nil }, true},
		{"missing range", func(r *Request) { r.CurrentEstimate.RangeFormatted = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
