package frontdesk

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Outbound wire message, shared by both dialects.
type wireOutbound struct {
	Type    string `json:"type"`
	DataB64 string `json:"dataB64,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Flat dialect inbound fields plus the nested event shape. A message is
// treated as flat when "type" is set, nested otherwise.
type wireInbound struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	DataB64    string `json:"dataB64"`
	QueueNo    string `json:"queueNo"`
	EtaMinutes int    `json:"etaMinutes"`

	InputTranscription  *wireTranscription `json:"inputTranscription"`
	OutputTranscription *wireTranscription `json:"outputTranscription"`
	Content             *wireContent       `json:"content"`
}

type wireTranscription struct {
	Text     string `json:"text"`
	Finished bool   `json:"finished"`
}

type wireContent struct {
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *wireInlineData `json:"inlineData,omitempty"`
}

type wireInlineData struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType,omitempty"`
}

// Codec serializes outgoing commands and normalizes inbound messages from
// either wire dialect into NormalizedEvent values.
type Codec struct {
	log *Logger
}

func NewCodec(log *Logger) *Codec {
	if log == nil {
		log = GetGlobalLogger()
	}
	return &Codec{log: log.WithComponent("codec")}
}

// EncodeAudio wraps one PCM16 frame as an audio.chunk message. Outbound
// audio always uses the standard base64 alphabet with padding.
func (c *Codec) EncodeAudio(frame []byte) ([]byte, error) {
	msg := wireOutbound{
		Type:    "audio.chunk",
		DataB64: base64.StdEncoding.EncodeToString(frame),
	}
	return json.Marshal(msg)
}

// EncodeText wraps a typed user message.
func (c *Codec) EncodeText(text string) ([]byte, error) {
	return json.Marshal(wireOutbound{Type: "text", Text: text})
}

// EncodeStop builds the session.stop message sent on close.
func (c *Codec) EncodeStop() ([]byte, error) {
	return json.Marshal(wireOutbound{Type: "session.stop"})
}

// Decode normalizes one raw inbound message. A nested event can carry
// several logical events (input and output transcription plus audio parts),
// so the result is a slice. Malformed messages yield a DECODE_ERROR; the
// caller logs and drops them without tearing the channel down.
func (c *Codec) Decode(raw []byte) ([]NormalizedEvent, *SessionError) {
	var msg wireInbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, WrapError(err, ErrCodeDecode)
	}

	if msg.Type != "" {
		return c.decodeFlat(&msg)
	}
	return c.decodeNested(&msg)
}

func (c *Codec) decodeFlat(msg *wireInbound) ([]NormalizedEvent, *SessionError) {
	switch msg.Type {
	case "asr.partial":
		return []NormalizedEvent{{Kind: EventText, Speaker: SpeakerUser, Text: msg.Text, Replace: true}}, nil
	case "asr.final":
		return []NormalizedEvent{{Kind: EventText, Speaker: SpeakerUser, Text: msg.Text, Final: true, Replace: true}}, nil
	case "agent.transcript":
		return []NormalizedEvent{{Kind: EventText, Speaker: SpeakerAgent, Text: msg.Text, Replace: true}}, nil
	case "agent.text":
		return []NormalizedEvent{{Kind: EventText, Speaker: SpeakerAgent, Text: msg.Text, Final: true, Replace: true}}, nil
	case "agent.audio":
		if msg.DataB64 == "" {
			return nil, NewDecodeError("agent.audio message without dataB64")
		}
		audio, err := decodeBase64Loose(msg.DataB64)
		if err != nil {
			return nil, WrapError(err, ErrCodeDecode)
		}
		return []NormalizedEvent{{Kind: EventAudio, Speaker: SpeakerAgent, Audio: audio}}, nil
	case "queue.issued":
		if msg.QueueNo == "" {
			return nil, NewDecodeError("queue.issued message without queueNo")
		}
		return []NormalizedEvent{{Kind: EventTicket, Ticket: &QueueTicket{
			TicketNumber: strings.ToUpper(msg.QueueNo),
			ETAMinutes:   msg.EtaMinutes,
		}}}, nil
	default:
		return nil, NewDecodeError("unknown message type").AddDetail("type", msg.Type)
	}
}

func (c *Codec) decodeNested(msg *wireInbound) ([]NormalizedEvent, *SessionError) {
	var events []NormalizedEvent

	if msg.InputTranscription != nil && msg.InputTranscription.Text != "" {
		events = append(events, NormalizedEvent{
			Kind:    EventText,
			Speaker: SpeakerUser,
			Text:    msg.InputTranscription.Text,
			Final:   msg.InputTranscription.Finished,
		})
	}

	if msg.OutputTranscription != nil && msg.OutputTranscription.Text != "" {
		events = append(events, NormalizedEvent{
			Kind:    EventText,
			Speaker: SpeakerAgent,
			Text:    msg.OutputTranscription.Text,
			Final:   msg.OutputTranscription.Finished,
		})
	}

	if msg.Content != nil {
		for _, part := range msg.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			audio, err := decodeBase64Loose(part.InlineData.Data)
			if err != nil {
				return nil, WrapError(err, ErrCodeDecode)
			}
			events = append(events, NormalizedEvent{Kind: EventAudio, Speaker: SpeakerAgent, Audio: audio})
		}
	}

	if len(events) == 0 {
		return nil, NewDecodeError("message carries no recognizable event")
	}
	return events, nil
}

// decodeBase64Loose accepts both the standard and URL-safe alphabets and
// restores missing padding before decoding.
func decodeBase64Loose(s string) ([]byte, error) {
	s = strings.ReplaceAll(s, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(s)
}
