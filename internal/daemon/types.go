package daemon

import "github.com/ankittk/osboard/internal/config"

// StartOptions configures the daemon. Config is usually config.Load(Home) with the
// command line flags applied on top.
type StartOptions struct {
	Home       string
	Config     config.Config
	Dev        bool
	PprofAddr  string
	EnableOtel bool // OpenTelemetry metrics (Prometheus exporter + HTTP instrumentation)
}

// StatusInfo is the result of Status (running or not, PID, listen addr).
type StatusInfo struct {
	Running bool
	PID     int
	Addr    string
}
