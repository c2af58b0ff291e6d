package frontdesk

import (
	"testing"
)

func TestSessionConfigDefaults(t *testing.T) {
	t.Setenv("FRONTDESK_WS_ENDPOINT", "")
	t.Setenv("FRONTDESK_USE_TOKEN_AUTH", "")
	t.Setenv("FRONTDESK_LANGUAGE", "")

	config := NewSessionConfig()
	if config.WsEndpoint != DefaultWsEndpoint {
		t.Fatalf("endpoint = %q", config.WsEndpoint)
	}
	if config.Language != "id-ID" {
		t.Fatalf("language = %q", config.Language)
	}
	if config.UseTokenAuth {
		t.Fatal("token auth on by default")
	}
	if issues := config.Validate(); len(issues) != 0 {
		t.Fatalf("issues = %v", issues)
	}
}

func TestSessionConfigEnvOverrides(t *testing.T) {
	t.Setenv("FRONTDESK_WS_ENDPOINT", "wss://desk.example.com/ws")
	t.Setenv("FRONTDESK_LANGUAGE", "en-US")
	t.Setenv("FRONTDESK_USE_TOKEN_AUTH", "true")
	t.Setenv("FRONTDESK_API_KEY", "fd_0123456789abcdef")

	config := NewSessionConfig()
	if config.WsEndpoint != "wss://desk.example.com/ws" {
		t.Fatalf("endpoint = %q", config.WsEndpoint)
	}
	if config.Language != "en-US" {
		t.Fatalf("language = %q", config.Language)
	}
	if !config.UseTokenAuth {
		t.Fatal("token auth not enabled")
	}
	if issues := config.Validate(); len(issues) != 0 {
		t.Fatalf("issues = %v", issues)
	}
}

func TestSessionConfigValidation(t *testing.T) {
	t.Setenv("FRONTDESK_USE_TOKEN_AUTH", "")
	t.Setenv("FRONTDESK_WS_ENDPOINT", "")

	config := NewSessionConfig()
	config.WsEndpoint = "http://not-a-ws-endpoint"
	if issues := config.Validate(); len(issues) != 1 {
		t.Fatalf("issues = %v", issues)
	}

	config = NewSessionConfig()
	config.UseTokenAuth = true
	t.Setenv("FRONTDESK_API_KEY", "wrong_prefix_key")
	if issues := config.Validate(); len(issues) != 1 {
		t.Fatalf("issues = %v", issues)
	}
}

func TestAudioConfigDefaults(t *testing.T) {
	t.Setenv("FRONTDESK_CAPTURE_RATE", "")
	t.Setenv("FRONTDESK_PLAYBACK_RATE", "")
	t.Setenv("FRONTDESK_FRAME_SIZE", "")
	t.Setenv("FRONTDESK_AUDIO_DEVICE_ID", "")

	audio := NewAudioConfig()
	if audio.CaptureSampleRate != 16000 || audio.PlaybackSampleRate != 24000 {
		t.Fatalf("rates = %d/%d", audio.CaptureSampleRate, audio.PlaybackSampleRate)
	}
	if audio.Channels != 1 || audio.FrameSize != 4096 {
		t.Fatalf("channels/frame = %d/%d", audio.Channels, audio.FrameSize)
	}
	if issues := audio.Validate(); len(issues) != 0 {
		t.Fatalf("issues = %v", issues)
	}
}

func TestAudioConfigValidation(t *testing.T) {
	audio := &AudioConfig{CaptureSampleRate: 0, PlaybackSampleRate: 24000, Channels: 2, FrameSize: -1}
	issues := audio.Validate()
	if len(issues) != 3 {
		t.Fatalf("issues = %v", issues)
	}
}

func TestSessionIdentityShape(t *testing.T) {
	a := NewSessionIdentity()
	b := NewSessionIdentity()

	if a.UserID == "" || a.SessionID == "" {
		t.Fatalf("identity = %+v", a)
	}
	if a.UserID == b.UserID || a.SessionID == b.SessionID {
		t.Fatal("identities must be unique")
	}
	if len(a.UserID) != len("user-")+8 || len(a.SessionID) != len("session-")+8 {
		t.Fatalf("identity shape = %+v", a)
	}
}
