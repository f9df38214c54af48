package observability

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/castaway-league/internal/config"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
)

func TestInitUptrace_Disabled(t *testing.T) {
	cfg := config.Config{
		UptraceEnabled: false,
		ServiceName:    "castaway-league",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}

	shutdown, err := InitUptrace(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("init uptrace: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown uptrace: %v", err)
	}
}

func TestInitPyroscope_Disabled(t *testing.T) {
	stop, err := InitPyroscope(config.Config{}, nil)
	if err != nil {
		t.Fatalf("init pyroscope: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop pyroscope: %v", err)
	}
}

func TestPprofServer_StartStop(t *testing.T) {
	srv, err := StartPprofServer(config.Config{}, nil)
	if err != nil || srv != nil {
		t.Fatalf("expected nil server, got %v %v", srv, err)
	}

	cfg := config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}
	srv, err = StartPprofServer(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("start pprof: %v", err)
	}
	if err := srv.Stop(time.Second); err != nil {
		t.Fatalf("stop pprof: %v", err)
	}

	var none *PprofServer
	if err := none.Stop(time.Second); err != nil {
		t.Fatalf("stop nil server: %v", err)
	}
}
