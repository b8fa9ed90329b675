// Package session tracks the single interactive conversation: the base
// lesson being displayed and the follow-up exchanges built on top of it.
//
// One manager owns at most one live session. Generation is strictly
// serialized: a follow-up submitted while another is in flight waits its
// turn, so its prompt always includes the previous exchange. A new lesson
// cannot start while any generation is running.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mythosai/mythos/internal/lesson"
)

var (
	// ErrNoSession indicates a follow-up or reset with no active session.
	ErrNoSession = errors.New("no active session")

	// ErrBusy indicates a new lesson was requested while a generation is
	// already in flight.
	ErrBusy = errors.New("a generation is already in progress")
)

// State is the lifecycle position of the active session.
type State string

// Session states. Transitions: Idle -> GeneratingInitial -> Displaying,
// Displaying <-> AwaitingFollowUp -> GeneratingFollowUp -> Displaying,
// Displaying -> Idle on end.
const (
	StateIdle               State = "idle"
	StateGeneratingInitial  State = "generating_initial"
	StateDisplaying         State = "displaying"
	StateAwaitingFollowUp   State = "awaiting_follow_up"
	StateGeneratingFollowUp State = "generating_follow_up"
)

// Generator resolves one request into an artifact. Implemented by
// pipeline.Pipeline.
type Generator interface {
	Generate(ctx context.Context, req lesson.Request) (lesson.Artifact, error)
}

// Recorder persists top-level artifacts. Implemented by history.Store.
type Recorder interface {
	Save(ctx context.Context, artifact lesson.Artifact, req lesson.Request) lesson.HistoryItem
}

// Snapshot is a read-only copy of the active session.
type Snapshot struct {
	ID         string
	State      State
	Request    lesson.Request
	Base       lesson.Artifact
	Transcript []lesson.Turn
}

// Manager owns the active session and serializes its generation requests.
type Manager struct {
	// genMu serializes all generation. Held for the full duration of a
	// request so queued follow-ups observe the completed transcript.
	genMu sync.Mutex

	// mu guards the fields below.
	mu         sync.Mutex
	state      State
	id         string
	request    lesson.Request
	base       lesson.Artifact
	transcript []lesson.Turn

	generator Generator
	recorder  Recorder
	logger    *slog.Logger
}

// NewManager creates a Manager in the idle state.
func NewManager(generator Generator, recorder Recorder, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		state:     StateIdle,
		generator: generator,
		recorder:  recorder,
		logger:    logger,
	}
}

// Start generates a new top-level lesson and makes it the active session,
// replacing any displayed one. It fails with ErrBusy when a generation is
// already running; starting over mid-generation is never queued.
func (m *Manager) Start(ctx context.Context, req lesson.Request) (lesson.HistoryItem, error) {
	if err := req.Validate(); err != nil {
		return lesson.HistoryItem{}, err
	}
	if !m.genMu.TryLock() {
		return lesson.HistoryItem{}, ErrBusy
	}
	defer m.genMu.Unlock()

	m.setState(StateGeneratingInitial)
	artifact, err := m.generator.Generate(ctx, req)
	if err != nil {
		m.setState(StateIdle)
		return lesson.HistoryItem{}, err
	}

	item := m.recorder.Save(ctx, artifact, req)

	m.mu.Lock()
	m.state = StateDisplaying
	m.id = item.ID
	m.request = req
	m.base = artifact
	m.transcript = nil
	m.mu.Unlock()

	m.logger.Info("session started", "id", item.ID, "topic", req.Topic)
	return item, nil
}

// FollowUp submits a conversational continuation. Calls are queued: one
// issued while another is in flight blocks until the prior exchange has
// been appended to the transcript, then generates against the updated
// context. Follow-up artifacts are not recorded in history.
func (m *Manager) FollowUp(ctx context.Context, message string) (lesson.Artifact, error) {
	if message == "" {
		return lesson.Artifact{}, lesson.ErrEmptyTopic
	}

	m.genMu.Lock()
	defer m.genMu.Unlock()

	m.mu.Lock()
	if m.state != StateDisplaying && m.state != StateAwaitingFollowUp {
		m.mu.Unlock()
		return lesson.Artifact{}, ErrNoSession
	}
	req := m.followUpRequest(message)
	m.state = StateGeneratingFollowUp
	m.mu.Unlock()

	artifact, err := m.generator.Generate(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		// The failed turn is not appended; the transcript only ever holds
		// completed exchanges.
		m.state = StateDisplaying
		return lesson.Artifact{}, err
	}
	m.transcript = append(m.transcript,
		lesson.Turn{Role: lesson.RoleUser, Text: message},
		lesson.Turn{Role: lesson.RoleAssistant, Text: artifact.Content},
	)
	m.state = StateDisplaying
	return artifact, nil
}

// followUpRequest builds the continuation request: the base lesson body as
// the opening assistant turn, the completed transcript, then the new user
// message. Caller holds m.mu.
func (m *Manager) followUpRequest(message string) lesson.Request {
	req := m.request
	req.FollowUp = true
	req.Media = lesson.MediaText

	turns := make([]lesson.Turn, 0, len(m.transcript)+2)
	turns = append(turns, lesson.Turn{Role: lesson.RoleAssistant, Text: m.base.Content})
	turns = append(turns, m.transcript...)
	turns = append(turns, lesson.Turn{Role: lesson.RoleUser, Text: message})
	req.Context = turns
	return req
}

// Resume makes a stored history item the active session, with an empty
// transcript. The displayed lesson behaves exactly like a fresh one.
func (m *Manager) Resume(item lesson.HistoryItem) error {
	if !m.genMu.TryLock() {
		return ErrBusy
	}
	defer m.genMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateDisplaying
	m.id = item.ID
	m.request = lesson.Request{Topic: item.Topic, Genre: item.Genre, Media: item.Media}
	m.base = item.Artifact
	m.transcript = nil
	return nil
}

// AwaitFollowUp marks the displayed session as waiting for user input. It
// only affects reporting; FollowUp accepts submissions from either state.
func (m *Manager) AwaitFollowUp() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateDisplaying {
		return ErrNoSession
	}
	m.state = StateAwaitingFollowUp
	return nil
}

// End discards the active session. Ending while a generation is in flight
// fails with ErrBusy rather than pulling the session out from under it.
func (m *Manager) End() error {
	if !m.genMu.TryLock() {
		return ErrBusy
	}
	defer m.genMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		return ErrNoSession
	}
	m.state = StateIdle
	m.id = ""
	m.request = lesson.Request{}
	m.base = lesson.Artifact{}
	m.transcript = nil
	return nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Active returns a snapshot of the live session, or false when idle.
func (m *Manager) Active() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		return Snapshot{}, false
	}
	transcript := make([]lesson.Turn, len(m.transcript))
	copy(transcript, m.transcript)
	return Snapshot{
		ID:         m.id,
		State:      m.state,
		Request:    m.request,
		Base:       m.base,
		Transcript: transcript,
	}, true
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}
