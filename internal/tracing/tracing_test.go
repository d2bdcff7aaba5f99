package tracing_test

import (
	"context"
	"testing"

	"github.com/portfolio-api/internal/config"
	"github.com/portfolio-api/internal/tracing"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := tracing.Init(context.Background(), config.TracingConfig{}, "test")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("No-op shutdown failed: %v", err)
	}
}

func TestRatio(t *testing.T) {
	tests := map[float64]float64{-1: 0, 0: 0, 0.25: 0.25, 1: 1, 3: 1}
	for in, want := range tests {
		if got := tracing.Ratio(in); got != want {
			t.Errorf("Ratio(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestInit_WithEndpoint(t *testing.T) {
	cfg := config.TracingConfig{Endpoint: "127.0.0.1:4318", ServiceName: "portfolio-api", SampleRatio: 0.5}

	// the exporter dials lazily, so nothing needs to listen
	shutdown, err := tracing.Init(context.Background(), cfg, "test")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown without spans failed: %v", err)
	}
}
