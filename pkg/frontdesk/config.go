package frontdesk

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultWsEndpoint = "ws://localhost:8000/ws"

type SessionConfig struct {
	WsEndpoint   string            `json:"ws_endpoint"`
	Headers      map[string]string `json:"headers,omitempty"`
	UseTokenAuth bool              `json:"use_token_auth"`
	Language     string            `json:"language"`
	DebugChannel bool              `json:"debug_channel"`
	DebugAudio   bool              `json:"debug_audio"`
}

func NewSessionConfig() *SessionConfig {
	c := &SessionConfig{
		WsEndpoint:   DefaultWsEndpoint,
		Headers:      make(map[string]string),
		UseTokenAuth: false,
		Language:     "id-ID",
	}

	c.loadFromEnv()

	return c
}

func (c *SessionConfig) loadFromEnv() {
	// Load .env if exists
	_ = godotenv.Load()

	if endpoint := os.Getenv("FRONTDESK_WS_ENDPOINT"); endpoint != "" {
		c.WsEndpoint = endpoint
	}

	c.UseTokenAuth = os.Getenv("FRONTDESK_USE_TOKEN_AUTH") == "true"

	if lang := os.Getenv("FRONTDESK_LANGUAGE"); lang != "" {
		c.Language = lang
	}

	c.DebugChannel = os.Getenv("FRONTDESK_DEBUG_CHANNEL") == "true"
	c.DebugAudio = os.Getenv("FRONTDESK_DEBUG_AUDIO") == "true"
}

// Validate returns list of issues
func (c *SessionConfig) Validate() []string {
	issues := []string{}

	if !strings.HasPrefix(c.WsEndpoint, "ws") {
		issues = append(issues, "Invalid WebSocket endpoint format")
	}

	if c.UseTokenAuth {
		apiKey := os.Getenv("FRONTDESK_API_KEY")
		if apiKey == "" {
			issues = append(issues, "FRONTDESK_API_KEY environment variable not set")
		} else if !strings.HasPrefix(apiKey, "fd_") {
			issues = append(issues, "Invalid API key format (should start with 'fd_')")
		}
	}

	return issues
}

type AudioConfig struct {
	CaptureSampleRate  int  `json:"capture_sample_rate"`
	PlaybackSampleRate int  `json:"playback_sample_rate"`
	Channels           int  `json:"channels"`
	FrameSize          int  `json:"frame_size"`
	EchoCancellation   bool `json:"echo_cancellation"`
	NoiseSuppression   bool `json:"noise_suppression"`
	DeviceID           *int `json:"device_id,omitempty"`
}

func NewAudioConfig() *AudioConfig {
	c := &AudioConfig{
		CaptureSampleRate:  16000,
		PlaybackSampleRate: 24000,
		Channels:           1,
		FrameSize:          4096,
		EchoCancellation:   true,
		NoiseSuppression:   true,
	}

	if rate := os.Getenv("FRONTDESK_CAPTURE_RATE"); rate != "" {
		if val, err := strconv.Atoi(rate); err == nil {
			c.CaptureSampleRate = val
		}
	}
	if rate := os.Getenv("FRONTDESK_PLAYBACK_RATE"); rate != "" {
		if val, err := strconv.Atoi(rate); err == nil {
			c.PlaybackSampleRate = val
		}
	}
	if size := os.Getenv("FRONTDESK_FRAME_SIZE"); size != "" {
		if val, err := strconv.Atoi(size); err == nil {
			c.FrameSize = val
		}
	}
	if deviceIDStr := os.Getenv("FRONTDESK_AUDIO_DEVICE_ID"); deviceIDStr != "" {
		if deviceID, err := strconv.Atoi(deviceIDStr); err == nil {
			c.DeviceID = &deviceID
		}
	}

	return c
}

func (c *AudioConfig) Validate() []string {
	issues := []string{}

	if c.CaptureSampleRate <= 0 {
		issues = append(issues, "Invalid capture sample rate")
	}
	if c.PlaybackSampleRate <= 0 {
		issues = append(issues, "Invalid playback sample rate")
	}
	if c.Channels != 1 {
		issues = append(issues, "Only mono audio is supported")
	}
	if c.FrameSize <= 0 {
		issues = append(issues, "Invalid frame size")
	}

	return issues
}

func (c *SessionConfig) PrintConfig() {
	fmt.Println("Front Desk SDK Configuration")
	fmt.Println("==================================================")
	fmt.Printf("WebSocket Endpoint: %s\n", c.WsEndpoint)
	fmt.Printf("Use Token Auth: %t\n", c.UseTokenAuth)
	fmt.Printf("Language: %s\n", c.Language)
	fmt.Printf("Debug Channel: %t\n", c.DebugChannel)
	fmt.Printf("Debug Audio: %t\n", c.DebugAudio)
}

func (c *AudioConfig) PrintConfig() {
	fmt.Printf("Capture: %d Hz mono, %d samples/frame\n", c.CaptureSampleRate, c.FrameSize)
	fmt.Printf("Playback: %d Hz mono\n", c.PlaybackSampleRate)
	if c.DeviceID != nil {
		fmt.Printf("Audio Device ID: %d\n", *c.DeviceID)
	} else {
		fmt.Println("Audio Device: Default")
	}
}
