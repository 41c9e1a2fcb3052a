package backend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pulseview/pulseview/internal/models"
)

// MockBackend simulates the Pulseband backend for demo and offline use.
// It implements the same Backend interface as *Client and is selected
// explicitly at construction (--mock), never by inline branching at
// call sites.
type MockBackend struct {
	clock clockwork.Clock
	start time.Time

	mu       sync.Mutex
	rng      *rand.Rand
	tick     int
	sessions map[string]*models.SessionResponse
	nextID   int
}

// NewMockBackend creates a simulated backend. A nil clock means the
// real one.
func NewMockBackend(clock clockwork.Clock) *MockBackend {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MockBackend{
		clock:    clock,
		start:    clock.Now(),
		rng:      rand.New(rand.NewSource(clock.Now().UnixNano())),
		sessions: make(map[string]*models.SessionResponse),
	}
}

func (m *MockBackend) CheckHealth(ctx context.Context) *models.SystemStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &models.SystemStatus{
		Status:        "healthy",
		Version:       "mock-1.0.0",
		UptimeSeconds: m.clock.Since(m.start).Seconds(),
		Services: map[string]bool{
			"layer1": true,
			"layer2": true,
			"layer3": true,
			"lia":    true,
		},
		ConnectedDevices: 1,
		ProcessedSamples: int64(m.tick),
	}
}

func (m *MockBackend) Connect(ctx context.Context, req models.ConnectionRequest) (*models.ConnectionResponse, error) {
	return &models.ConnectionResponse{
		Status:    "connected",
		SessionID: fmt.Sprintf("mock-%d", m.clock.Now().Unix()),
		Message:   "simulated device registered",
	}, nil
}

// FetchStream produces one simulated snapshot. Vitals drift on slow
// sinusoids with per-sample noise so the live view looks plausible.
func (m *MockBackend) FetchStream(ctx context.Context) (*models.StreamData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tick++
	t := float64(m.tick)
	noise := func(scale float64) float64 { return (m.rng.Float64() - 0.5) * scale }

	hr := 68 + 6*math.Sin(t/30) + noise(3)
	hrv := 52 + 10*math.Sin(t/45+1.3) + noise(5)
	eda := 2.1 + 0.6*math.Sin(t/60+0.7) + noise(0.2)

	stress := 0.3 + 0.2*math.Sin(t/50)
	state := "calm"
	advice := "All signals nominal."
	if stress > 0.42 {
		state = "elevated"
		advice = "Mild arousal detected; consider a short breathing break."
	}

	return &models.StreamData{
		Timestamp: m.clock.Now(),
		DeviceID:  "mock-band-01",
		Raw: models.RawSignals{
			HeartRate: hr,
			HRV:       hrv,
			EDA:       eda,
			SkinTemp:  33.4 + noise(0.3),
			AccelMag:  math.Abs(noise(0.8)),
		},
		Layer1: &models.SignalQuality{
			QualityScore:   0.9 + noise(0.08),
			ArtifactsFound: m.rng.Intn(3),
			ChannelsUsable: []string{"ppg", "eda", "temp", "accel"},
		},
		Layer2: &models.FrequencyAnalysis{
			LFPower:   820 + noise(120),
			HFPower:   640 + noise(100),
			LFHFRatio: 1.28 + noise(0.2),
			StressIdx: stress,
		},
		Layer3: &models.CircadianAnalysis{
			Phase:          circadianPhase(m.clock.Now()),
			AlignmentScore: 0.82 + noise(0.05),
			SleepPressure:  0.35 + 0.1*math.Sin(t/200),
		},
		Insights: &models.Insights{
			State:      state,
			Confidence: 0.75 + noise(0.1),
			Advice:     advice,
		},
	}, nil
}

func (m *MockBackend) FetchPrediction(ctx context.Context) (*models.PredictionResponse, error) {
	return &models.PredictionResponse{
		Timestamp:  m.clock.Now(),
		State:      "calm",
		Confidence: 0.81,
		Horizon:    "30m",
		Advice:     "No intervention suggested.",
	}, nil
}

func (m *MockBackend) CreateSession(ctx context.Context, req models.SessionRequest) (*models.SessionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	kind := req.Kind
	if kind == "" {
		kind = "monitoring"
	}
	s := &models.SessionResponse{
		SessionID: fmt.Sprintf("mock-session-%d", m.nextID),
		Kind:      kind,
		CreatedAt: m.clock.Now(),
		Active:    true,
	}
	m.sessions[s.SessionID] = s
	return s, nil
}

func (m *MockBackend) GetSession(ctx context.Context, id string) (*models.SessionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, &StatusError{Code: 404, Status: "404 Not Found"}
	}
	return s, nil
}

func (m *MockBackend) ProcessingLogs(ctx context.Context, limit int) (*models.ProcessingLogList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := []struct{ layer, level, msg string }{
		{"layer1", "info", "Signal window cleaned, 2 motion artifacts removed"},
		{"layer1", "debug", "PPG channel SNR 18.2dB"},
		{"layer2", "info", "HRV spectrum updated, LF/HF 1.31"},
		{"layer2", "debug", "Welch PSD over 256-sample window"},
		{"layer3", "info", "Circadian phase estimate refreshed"},
		{"lia", "info", "State inference: calm (0.81)"},
		{"lia", "warn", "Confidence below threshold, widening window"},
	}
	if limit <= 0 || limit > len(lines) {
		limit = len(lines)
	}

	logs := make([]models.ProcessingLog, 0, limit)
	now := m.clock.Now()
	for i := 0; i < limit; i++ {
		l := lines[(m.tick+i)%len(lines)]
		logs = append(logs, models.ProcessingLog{
			Timestamp:  now.Add(-time.Duration(limit-i) * time.Second),
			Layer:      l.layer,
			Level:      l.level,
			Message:    l.msg,
			DurationMs: 4 + m.rng.Float64()*20,
		})
	}
	return &models.ProcessingLogList{Total: len(lines), Logs: logs}, nil
}

func (m *MockBackend) LayerDemo(ctx context.Context) (map[string]any, error) {
	return map[string]any{
		"layer1": map[string]any{"description": "signal cleaning", "demo_quality": 0.93},
		"layer2": map[string]any{"description": "frequency / HRV analysis", "demo_lf_hf": 1.27},
		"layer3": map[string]any{"description": "temporal / circadian analysis", "demo_phase": "afternoon"},
	}, nil
}

func circadianPhase(t time.Time) string {
	switch h := t.Hour(); {
	case h < 6:
		return "night"
	case h < 12:
		return "morning"
	case h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}
