package frontdesk

import (
	"sync"
)

// Collaborator contracts, narrowed to what the controller needs so tests
// can substitute fakes.

type duplexChannel interface {
	Open() error
	Close()
	Send(payload []byte) error
	AddMessageHandler(handler RawMessageHandler) func()
	IsConnected() bool
}

type captureSource interface {
	Start(onFrame FrameHandler) error
	Stop()
	IsActive() bool
}

type playbackSink interface {
	Play(frame []byte) error
	Resume() error
	Stop()
}

// SessionState is the immutable snapshot read by external collaborators.
// No mutation path exists into the controller through it.
type SessionState struct {
	Connected   bool
	Recording   bool
	Transcripts []TranscriptEntry
	Ticket      *QueueTicket
	Err         string
}

// SessionController owns one capture source, one playback sink, one
// duplex channel, and one reconciler for its lifetime, and exposes the
// session's command and state surface. All transcript and ticket mutation
// happens on the channel's single read loop, so ordering is serialized
// without extra queues.
type SessionController struct {
	config     *SessionConfig
	audio      *AudioConfig
	identity   SessionIdentity
	channel    duplexChannel
	capture    captureSource
	playback   playbackSink
	codec      *Codec
	reconciler *TranscriptReconciler
	extractor  *EntityExtractor
	log        *Logger

	connected  bool
	connecting bool
	recording  bool
	starting   bool
	teardowns  int // bumped by Disconnect; an awaited open/start that straddles one must undo itself
	ticket     *QueueTicket
	lastErr    string

	transcriptHandlers []TranscriptHandler
	ticketHandlers     []TicketHandler
	mu                 sync.Mutex
}

func NewSessionController(config *SessionConfig, audio *AudioConfig) *SessionController {
	if config == nil {
		config = NewSessionConfig()
	}
	if audio == nil {
		audio = NewAudioConfig()
	}

	identity := NewSessionIdentity()
	sc := newSessionController(
		config, audio, identity,
		NewDuplexChannel(config, identity),
		NewCaptureSource(audio),
		NewPlaybackSink(audio),
	)
	return sc
}

func newSessionController(config *SessionConfig, audio *AudioConfig, identity SessionIdentity, channel duplexChannel, capture captureSource, playback playbackSink) *SessionController {
	log := GetGlobalLogger().WithComponent("session").WithField("session_id", identity.SessionID)

	sc := &SessionController{
		config:     config,
		audio:      audio,
		identity:   identity,
		channel:    channel,
		capture:    capture,
		playback:   playback,
		codec:      NewCodec(log),
		reconciler: NewTranscriptReconciler(),
		extractor:  NewEntityExtractor(),
		log:        log,
	}

	channel.AddMessageHandler(sc.handleRawMessage)
	return sc
}

// Identity returns the stable addressing identity for this session.
func (sc *SessionController) Identity() SessionIdentity {
	return sc.identity
}

// Connect opens the duplex channel. A no-op when already connected or a
// connect is in flight. Transport failure lands in the error state field
// rather than propagating; the open itself runs off the calling
// goroutine so other commands are never blocked behind the dial.
func (sc *SessionController) Connect() {
	sc.mu.Lock()
	if sc.connected || sc.connecting {
		sc.mu.Unlock()
		return
	}
	sc.connecting = true
	gen := sc.teardowns
	sc.mu.Unlock()

	go func() {
		err := sc.channel.Open()

		sc.mu.Lock()
		sc.connecting = false
		if sc.teardowns != gen {
			// Disconnect ran while the dial was in flight; the session
			// stays down and a late-won connection is released.
			sc.mu.Unlock()
			if err == nil {
				sc.channel.Close()
			}
			return
		}
		if err != nil {
			sc.lastErr = "Connection failed"
			sc.log.WithError(err).Error("Channel open failed")
		} else {
			sc.connected = true
			sc.lastErr = ""
			sc.log.LogConnectionEvent("connected", Connected)
		}
		sc.mu.Unlock()
	}()
}

// Disconnect tears down capture, channel, and playback, in that order.
// Idempotent and tolerant of any subset already being down.
func (sc *SessionController) Disconnect() {
	sc.mu.Lock()
	sc.connected = false
	sc.connecting = false
	sc.recording = false
	sc.starting = false
	sc.teardowns++
	sc.mu.Unlock()

	sc.capture.Stop()
	sc.channel.Close()
	sc.playback.Stop()
	sc.log.LogConnectionEvent("disconnected", Disconnected)
}

// ToggleRecording starts capture when connected and idle, stops it when
// active. A second toggle while a start is in flight is rejected. Not
// connected: no-op.
func (sc *SessionController) ToggleRecording() {
	sc.mu.Lock()
	if !sc.connected || sc.starting {
		sc.mu.Unlock()
		return
	}

	if sc.recording {
		sc.recording = false
		sc.mu.Unlock()
		sc.capture.Stop()
		return
	}

	sc.starting = true
	gen := sc.teardowns
	sc.mu.Unlock()

	go sc.startRecording(gen)
}

func (sc *SessionController) startRecording(gen int) {
	// Output must be live before the first inbound frame for gapless
	// playback of the agent's reply.
	if err := sc.playback.Resume(); err != nil {
		sc.log.WithError(err).Warn("Playback resume failed")
	}

	err := sc.capture.Start(sc.handleCaptureFrame)

	sc.mu.Lock()
	sc.starting = false
	if sc.teardowns != gen {
		// Disconnect ran while the device was opening; release the
		// late-won microphone instead of recording into a dead session.
		sc.mu.Unlock()
		if err == nil {
			sc.capture.Stop()
		}
		return
	}
	if err != nil {
		if sErr, ok := err.(*SessionError); ok && IsErrorCode(sErr, ErrCodePermissionDenied) {
			sc.lastErr = "Microphone access denied"
		} else {
			sc.lastErr = "Microphone unavailable"
		}
		sc.log.WithError(err).Error("Capture start failed")
	} else {
		sc.recording = true
	}
	sc.mu.Unlock()
}

// handleCaptureFrame runs on the capture callback path; it only encodes
// and forwards, never touching transcript state.
func (sc *SessionController) handleCaptureFrame(frame []byte) {
	payload, err := sc.codec.EncodeAudio(frame)
	if err != nil {
		sc.log.WithError(err).Error("Audio frame encode failed")
		return
	}
	if err := sc.channel.Send(payload); err != nil {
		sc.log.WithError(err).Warn("Audio frame send failed")
	}
}

// SendText forwards a typed message and mirrors it locally as a final
// user entry. Valid only while connected.
func (sc *SessionController) SendText(text string) {
	sc.mu.Lock()
	if !sc.connected {
		sc.mu.Unlock()
		return
	}
	sc.mu.Unlock()

	sc.reconciler.AppendUserMessage(text)

	payload, err := sc.codec.EncodeText(text)
	if err != nil {
		sc.log.WithError(err).Error("Text encode failed")
		return
	}
	if err := sc.channel.Send(payload); err != nil {
		sc.mu.Lock()
		sc.lastErr = "Send failed"
		sc.mu.Unlock()
		sc.log.WithError(err).Error("Text send failed")
	}
	sc.notifyTranscripts()
}

// ClearTranscript resets the reconciler and the extracted ticket.
func (sc *SessionController) ClearTranscript() {
	sc.reconciler.Reset()
	sc.mu.Lock()
	sc.ticket = nil
	sc.mu.Unlock()
	sc.notifyTranscripts()
}

// Snapshot returns the current session state as an immutable copy.
func (sc *SessionController) Snapshot() SessionState {
	sc.mu.Lock()
	state := SessionState{
		Connected: sc.connected,
		Recording: sc.recording,
		Err:       sc.lastErr,
	}
	if sc.ticket != nil {
		ticket := *sc.ticket
		state.Ticket = &ticket
	}
	sc.mu.Unlock()

	state.Transcripts = sc.reconciler.Entries()
	return state
}

// handleRawMessage runs on the channel's read loop, one message at a
// time, in wire arrival order.
func (sc *SessionController) handleRawMessage(raw []byte) {
	events, decErr := sc.codec.Decode(raw)
	if decErr != nil {
		// A malformed message is dropped; the session continues.
		sc.log.LogError(decErr)
		return
	}

	for _, event := range events {
		switch event.Kind {
		case EventText:
			sc.handleTextEvent(event)
		case EventAudio:
			if err := sc.playback.Play(event.Audio); err != nil {
				sc.log.WithError(err).Warn("Audio playback failed")
			}
		case EventTicket:
			sc.pinTicket(*event.Ticket)
		}
	}
}

func (sc *SessionController) handleTextEvent(event NormalizedEvent) {
	entry := sc.reconciler.ApplyText(event.Speaker, event.Text, event.Replace, event.Final)
	sc.notifyTranscripts()

	if event.Speaker != SpeakerAgent {
		return
	}

	sc.mu.Lock()
	alreadyIssued := sc.ticket != nil
	sc.mu.Unlock()
	if alreadyIssued {
		return
	}

	if ticket, ok := sc.extractor.Extract(entry.Text, sc.reconciler.UserEntries()); ok {
		sc.pinTicket(ticket)
	}
}

// pinTicket records the first ticket of the session and ends the capture
// phase. Later tickets are ignored; only ClearTranscript resets this.
func (sc *SessionController) pinTicket(ticket QueueTicket) {
	sc.mu.Lock()
	if sc.ticket != nil {
		sc.mu.Unlock()
		return
	}
	sc.ticket = &ticket
	wasRecording := sc.recording
	sc.recording = false
	handlers := append([]TicketHandler(nil), sc.ticketHandlers...)
	sc.mu.Unlock()

	if wasRecording {
		sc.capture.Stop()
	}
	sc.log.LogTicketEvent(ticket)

	for _, handler := range handlers {
		if handler != nil {
			handler(ticket)
		}
	}
}

func (sc *SessionController) notifyTranscripts() {
	sc.mu.Lock()
	handlers := append([]TranscriptHandler(nil), sc.transcriptHandlers...)
	sc.mu.Unlock()

	if len(handlers) == 0 {
		return
	}
	entries := sc.reconciler.Entries()
	for _, handler := range handlers {
		if handler != nil {
			handler(entries)
		}
	}
}

// Removal nils the slot rather than splicing, so the indexes captured by
// other remove-funcs stay valid.
func (sc *SessionController) AddTranscriptHandler(handler TranscriptHandler) func() {
	sc.mu.Lock()
	sc.transcriptHandlers = append(sc.transcriptHandlers, handler)
	idx := len(sc.transcriptHandlers) - 1
	sc.mu.Unlock()

	return func() {
		sc.mu.Lock()
		sc.transcriptHandlers[idx] = nil
		sc.mu.Unlock()
	}
}

func (sc *SessionController) AddTicketHandler(handler TicketHandler) func() {
	sc.mu.Lock()
	sc.ticketHandlers = append(sc.ticketHandlers, handler)
	idx := len(sc.ticketHandlers) - 1
	sc.mu.Unlock()

	return func() {
		sc.mu.Lock()
		sc.ticketHandlers[idx] = nil
		sc.mu.Unlock()
	}
}
