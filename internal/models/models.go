package models

import "time"

// Platform identifies the runtime environment the client is running on.
// The backend base URL differs per platform (emulators alias loopback).
type Platform string

const (
	PlatformLocal      Platform = "local"       // Desktop / same-host backend
	PlatformIOSSim     Platform = "ios-sim"     // iOS simulator (shares host loopback)
	PlatformAndroidEmu Platform = "android-emu" // Android emulator (10.0.2.2 alias)
	PlatformDevice     Platform = "device"      // Physical device on the LAN
)

// TransportMode selects how stream snapshots are delivered.
type TransportMode string

const (
	TransportPolling   TransportMode = "polling"
	TransportWebSocket TransportMode = "websocket"
)

// ============================================================================
// Backend API payloads (JSON as served by the Pulseband backend)
// ============================================================================

// SystemStatus is the backend health snapshot returned by GET /api/v1/health.
type SystemStatus struct {
	Status           string          `json:"status"` // "healthy", "degraded"
	Version          string          `json:"version,omitempty"`
	UptimeSeconds    float64         `json:"uptime_seconds,omitempty"`
	Services         map[string]bool `json:"services,omitempty"` // per-service availability flags
	ConnectedDevices int             `json:"connected_devices,omitempty"`
	ProcessedSamples int64           `json:"processed_samples,omitempty"`
}

// RawSignals holds one sample of unprocessed sensor readings.
type RawSignals struct {
	HeartRate float64 `json:"heart_rate"` // bpm
	HRV       float64 `json:"hrv"`        // ms (RMSSD)
	EDA       float64 `json:"eda"`        // microsiemens
	SkinTemp  float64 `json:"skin_temp"`  // celsius
	AccelMag  float64 `json:"accel_magnitude"`
}

// SignalQuality is the layer-1 (signal cleaning) result. Opaque to the client.
type SignalQuality struct {
	QualityScore   float64  `json:"quality_score"`
	ArtifactsFound int      `json:"artifacts_found"`
	ChannelsUsable []string `json:"channels_usable,omitempty"`
}

// FrequencyAnalysis is the layer-2 (frequency/HRV) result. Opaque to the client.
type FrequencyAnalysis struct {
	LFPower   float64 `json:"lf_power"`
	HFPower   float64 `json:"hf_power"`
	LFHFRatio float64 `json:"lf_hf_ratio"`
	StressIdx float64 `json:"stress_index"`
}

// CircadianAnalysis is the layer-3 (temporal/circadian) result. Opaque to the client.
type CircadianAnalysis struct {
	Phase          string  `json:"phase"` // "morning", "afternoon", "evening", "night"
	AlignmentScore float64 `json:"alignment_score"`
	SleepPressure  float64 `json:"sleep_pressure"`
}

// Insights is the LIA inference output attached to a stream snapshot.
type Insights struct {
	State      string  `json:"state"` // e.g. "calm", "stressed", "fatigued"
	Confidence float64 `json:"confidence"`
	Advice     string  `json:"advice,omitempty"`
}

// StreamData is one timestamped snapshot of raw biosignals plus all
// derived layer results, as returned by GET /api/v1/stream and carried
// in websocket stream_data frames. Immutable; rendered and discarded.
type StreamData struct {
	Timestamp time.Time          `json:"timestamp"`
	DeviceID  string             `json:"device_id,omitempty"`
	Raw       RawSignals         `json:"raw_signals"`
	Layer1    *SignalQuality     `json:"signal_quality,omitempty"`
	Layer2    *FrequencyAnalysis `json:"frequency_analysis,omitempty"`
	Layer3    *CircadianAnalysis `json:"circadian_analysis,omitempty"`
	Insights  *Insights          `json:"insights,omitempty"`
}

// ConnectionRequest is the body of POST /api/v1/connect.
type ConnectionRequest struct {
	DeviceID   string `json:"device_id"`
	DeviceType string `json:"device_type"`
	AppVersion string `json:"app_version"`
	UserID     string `json:"user_id,omitempty"`
}

// ConnectionResponse is the result of a device registration. The session
// id is opaque and display-only; no later call is correlated by it.
type ConnectionResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// PredictionResponse is the result of GET /api/v1/predict.
type PredictionResponse struct {
	Timestamp  time.Time `json:"timestamp"`
	State      string    `json:"predicted_state"`
	Confidence float64   `json:"confidence"`
	Horizon    string    `json:"horizon,omitempty"` // e.g. "30m"
	Advice     string    `json:"advice,omitempty"`
}

// SessionRequest is the body of POST /api/v1/sessions.
type SessionRequest struct {
	DeviceID string `json:"device_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Kind     string `json:"kind,omitempty"` // "chat", "monitoring"
}

// SessionResponse describes a backend session record.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
	Messages  int       `json:"message_count,omitempty"`
}

// ProcessingLog is one backend processing-pipeline log entry.
type ProcessingLog struct {
	Timestamp  time.Time `json:"timestamp"`
	Layer      string    `json:"layer"` // "layer1", "layer2", "layer3", "lia"
	Level      string    `json:"level"` // debug, info, warn, error
	Message    string    `json:"message"`
	DurationMs float64   `json:"duration_ms,omitempty"`
}

// ProcessingLogList is the response of GET /api/v1/logs/processing.
type ProcessingLogList struct {
	Total int             `json:"total"`
	Logs  []ProcessingLog `json:"logs"`
}

// Frame is the websocket envelope. Only FrameStreamData frames carry a
// payload the client acts on; everything else is ignored.
type Frame struct {
	Type string      `json:"type"`
	Data *StreamData `json:"data,omitempty"`
}

// Frame type discriminators sent by the backend.
const (
	FrameStreamData = "stream_data"
	FramePing       = "ping"
)
