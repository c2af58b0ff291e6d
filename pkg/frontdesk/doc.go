// Package frontdesk is the client-side core of a spoken-dialogue front
// desk agent: it captures microphone audio, streams it to a remote agent
// over a persistent websocket, plays the synthesized reply gaplessly, and
// reconstructs a turn-ordered conversation transcript while mining it for
// the issued queue ticket.
//
// # Quick Start
//
//	config := frontdesk.NewSessionConfig()
//	audio := frontdesk.NewAudioConfig()
//	session := frontdesk.NewSessionController(config, audio)
//
//	session.AddTranscriptHandler(frontdesk.CreateTranscriptPrinter(os.Stdout))
//	session.AddTicketHandler(frontdesk.CreateTicketPrinter(os.Stdout))
//
//	session.Connect()
//	session.ToggleRecording()
//	// ... session runs until a ticket is issued or the caller disconnects
//	session.Disconnect()
//
// # Wire Protocol
//
// Outbound messages are JSON text frames: audio.chunk (base64 PCM16),
// text, and session.stop on close. Two inbound dialects are supported:
// a flat typed shape (asr.partial, asr.final, agent.text,
// agent.transcript, agent.audio, queue.issued) and a nested event shape
// (inputTranscription, outputTranscription, content.parts inline audio).
// Both normalize to the same internal event union, so the transcript
// reconciler and the entity extractor are written once.
//
// # Audio Format
//
// Capture is 16 kHz mono PCM16 little-endian in 4096-sample frames;
// playback is 24 kHz mono PCM16. Audio is base64 on the wire, with
// URL-safe-alphabet tolerance on decode.
//
// # State Surface
//
// SessionController.Snapshot returns an immutable view: connection flag,
// recording flag, ordered transcript, extracted queue ticket, and the
// last human-readable error. Commands never panic across the public
// boundary; transport and microphone failures land in the error field.
//
// # Dependencies
//
//   - github.com/gordonklaus/portaudio: audio I/O
//   - github.com/gorilla/websocket: websocket client
//   - github.com/rs/zerolog: structured logging
//   - github.com/spf13/cobra: CLI framework
//   - github.com/golang-jwt/jwt/v4: handshake tokens
//   - github.com/joho/godotenv: environment variables
//   - github.com/google/uuid: entry and session identifiers
package frontdesk
