package agentauth

// StoreBackend selects which Store implementation the engine wires up.
type StoreBackend string

const (
	StoreBackendMemory   StoreBackend = "memory"
	StoreBackendRedis    StoreBackend = "redis"
	StoreBackendPostgres StoreBackend = "postgres"
	StoreBackendEdgeKV   StoreBackend = "edgekv"
)

// PomiConfig configures the Proof-of-Model-Identity subsystem.
type PomiConfig struct {
	Enabled             bool
	CanariesPerChallenge int
	ConfidenceThreshold float64
	ModelFamilies       []string
}

// TimingConfig configures the timing-zone subsystem.
type TimingConfig struct {
	Enabled            bool
	BaselineOverrides  []TimingBaseline
	SessionWindowSize  int
}

// Config is the engine's full configuration, mirroring the data model plus
// the ambient knobs a real deployment needs (logging, metrics, store
// backend selection).
type Config struct {
	Secret               string
	ChallengeTTLSeconds  int64
	TokenTTLSeconds      int64
	MinScore             float64
	MaxAttempts          int
	Pomi                 PomiConfig
	Timing               TimingConfig

	// Ambient.
	LogLevel       string // debug | info | warn | error
	LogFormat      string // json | text
	MetricsEnabled bool
	StoreBackend   StoreBackend
}

// DefaultConfig returns the engine defaults named in spec.md §6.5.
func DefaultConfig() Config {
	return Config{
		ChallengeTTLSeconds: 30,
		TokenTTLSeconds:     3600,
		MinScore:            0.7,
		MaxAttempts:         1,
		Pomi: PomiConfig{
			Enabled:              true,
			CanariesPerChallenge: 2,
			ConfidenceThreshold:  0.5,
			ModelFamilies: []string{
				"gpt-4-class", "claude-3-class", "gemini-class", "llama-class", "mistral-class",
			},
		},
		Timing: TimingConfig{
			Enabled:           true,
			SessionWindowSize: 20,
		},
		LogLevel:       "info",
		LogFormat:      "json",
		MetricsEnabled: true,
		StoreBackend:   StoreBackendMemory,
	}
}
