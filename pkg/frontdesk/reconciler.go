package frontdesk

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// reconcilerState is the complete turn-taking state. Transitions are pure
// functions over it, so any event sequence can be replayed deterministically
// in tests.
type reconcilerState struct {
	lastSpeaker Speaker
	userAccum   string
	agentAccum  string
	log         []TranscriptEntry
}

func (st reconcilerState) accum(sp Speaker) string {
	if sp == SpeakerUser {
		return st.userAccum
	}
	return st.agentAccum
}

func (st reconcilerState) withAccum(sp Speaker, text string) reconcilerState {
	if sp == SpeakerUser {
		st.userAccum = text
	} else {
		st.agentAccum = text
	}
	return st
}

func otherSpeaker(sp Speaker) Speaker {
	if sp == SpeakerUser {
		return SpeakerAgent
	}
	return SpeakerUser
}

// openEntryIndex finds the non-final entry for a speaker. At most one
// exists at any time.
func openEntryIndex(log []TranscriptEntry, sp Speaker) int {
	for i, entry := range log {
		if entry.Speaker == sp && !entry.IsFinal {
			return i
		}
	}
	return -1
}

// applyText advances the state for one normalized text event. replace
// selects full-text replacement (flat dialect) over delta concatenation
// (nested dialect); the accumulator is authoritative either way, the wire
// is never trusted to echo full text.
func applyText(st reconcilerState, sp Speaker, text string, replace, final bool, newID func() string, now func() time.Time) reconcilerState {
	st.log = append([]TranscriptEntry(nil), st.log...)

	// A turn change closes the previous speaker's utterance even when the
	// upstream never sent a final flag for it.
	other := otherSpeaker(sp)
	if st.lastSpeaker == other && st.accum(other) != "" {
		if idx := openEntryIndex(st.log, other); idx >= 0 {
			st.log[idx].IsFinal = true
		}
		st = st.withAccum(other, "")
	}
	st.lastSpeaker = sp

	acc := st.accum(sp)
	if replace {
		acc = text
	} else {
		acc += text
	}
	st = st.withAccum(sp, acc)
	fullText := strings.TrimSpace(acc)

	if idx := openEntryIndex(st.log, sp); idx >= 0 {
		st.log[idx].Text = fullText
		st.log[idx].IsFinal = final
	} else {
		st.log = append(st.log, TranscriptEntry{
			ID:        newID(),
			Speaker:   sp,
			Text:      fullText,
			CreatedAt: now(),
			IsFinal:   final,
		})
	}

	if final {
		st = st.withAccum(sp, "")
	}
	return st
}

// TranscriptReconciler merges partial and final recognition events from
// both speakers into one ordered, deduplicated log. Exactly one live
// instance exists per session; only an explicit Reset clears it.
type TranscriptReconciler struct {
	state reconcilerState
	newID func() string
	now   func() time.Time
	log   *Logger
	mu    sync.Mutex
}

func NewTranscriptReconciler() *TranscriptReconciler {
	return &TranscriptReconciler{
		newID: func() string { return uuid.NewString() },
		now:   time.Now,
		log:   GetGlobalLogger().WithComponent("reconciler"),
	}
}

// ApplyText feeds one normalized text event through the state machine and
// returns a copy of the entry for that speaker's current utterance.
func (tr *TranscriptReconciler) ApplyText(sp Speaker, text string, replace, final bool) TranscriptEntry {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.state = applyText(tr.state, sp, text, replace, final, tr.newID, tr.now)
	tr.log.LogTranscriptEvent(sp, final, len(text))

	// The speaker's current entry is the open one, or the most recent
	// entry for the speaker when the event finalized it.
	if idx := openEntryIndex(tr.state.log, sp); idx >= 0 {
		return tr.state.log[idx]
	}
	for i := len(tr.state.log) - 1; i >= 0; i-- {
		if tr.state.log[i].Speaker == sp {
			return tr.state.log[i]
		}
	}
	return TranscriptEntry{}
}

// AppendUserMessage appends a locally-authored final user entry, used for
// typed text that never crosses the recognition path.
func (tr *TranscriptReconciler) AppendUserMessage(text string) TranscriptEntry {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	entry := TranscriptEntry{
		ID:        tr.newID(),
		Speaker:   SpeakerUser,
		Text:      text,
		CreatedAt: tr.now(),
		IsFinal:   true,
	}
	tr.state.log = append(tr.state.log, entry)
	return entry
}

// Entries returns a copy of the ordered transcript log.
func (tr *TranscriptReconciler) Entries() []TranscriptEntry {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]TranscriptEntry(nil), tr.state.log...)
}

// UserEntries returns a copy of the user-authored entries only.
func (tr *TranscriptReconciler) UserEntries() []TranscriptEntry {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	var entries []TranscriptEntry
	for _, entry := range tr.state.log {
		if entry.Speaker == SpeakerUser {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Reset empties the log and both accumulators.
func (tr *TranscriptReconciler) Reset() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.state = reconcilerState{}
}
