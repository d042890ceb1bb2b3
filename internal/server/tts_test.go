package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestKokoroSynthesize(t *testing.T) {
	var gotReq synthesisRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode upstream request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFFfake"))
	}))
	defer upstream.Close()

	c := NewKokoroClient(upstream.URL, "hf_test", "af_bella", 1.0, 5*time.Second)
	audio, mimeType, err := c.Synthesize(context.Background(), "The void stares back.")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "RIFFfake" {
		t.Errorf("audio = %q", audio)
	}
	if mimeType != "audio/wav" {
		t.Errorf("mime type = %q, want audio/wav", mimeType)
	}
	if gotReq.Inputs != "The void stares back." {
		t.Errorf("inputs = %q", gotReq.Inputs)
	}
	if gotReq.Parameters.Voice != "af_bella" {
		t.Errorf("voice = %q, want af_bella", gotReq.Parameters.Voice)
	}
	if gotReq.Parameters.Speed != 1.0 {
		t.Errorf("speed = %g, want 1.0", gotReq.Parameters.Speed)
	}
	if gotReq.Parameters.Lang != "en-us" {
		t.Errorf("lang = %q, want en-us", gotReq.Parameters.Lang)
	}
}

func TestKokoroSynthesizeDefaultsMIME(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("RIFFfake"))
	}))
	defer upstream.Close()

	c := NewKokoroClient(upstream.URL, "hf_test", "af_bella", 1.0, 5*time.Second)
	_, mimeType, err := c.Synthesize(context.Background(), "x")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if mimeType != "audio/wav" {
		t.Errorf("mime type = %q, want audio/wav fallback", mimeType)
	}
}

func TestKokoroSynthesizeUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	c := NewKokoroClient(upstream.URL, "hf_test", "af_bella", 1.0, 5*time.Second)
	if _, _, err := c.Synthesize(context.Background(), "x"); err == nil {
		t.Fatal("Synthesize() succeeded on upstream 503")
	}
}

func TestKokoroSynthesizeWithoutKey(t *testing.T) {
	c := NewKokoroClient("http://unused", "", "af_bella", 1.0, time.Second)
	if c.Configured() {
		t.Error("Configured() = true with empty key")
	}
	_, _, err := c.Synthesize(context.Background(), "x")
	if !errors.Is(err, ErrTTSNotConfigured) {
		t.Fatalf("error = %v, want ErrTTSNotConfigured", err)
	}
}
