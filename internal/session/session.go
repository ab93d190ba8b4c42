package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// FallbackReply stands in for the coach whenever a turn fails.
const FallbackReply = "Sorry, something went wrong."

const defaultTurnTimeout = 45 * time.Second

var (
	ErrVoiceUnsupported = errors.New("voice input is not supported in this environment")
	ErrAlreadyListening = errors.New("already listening")
)

// Origin tags a turn with the channel it came from. Typed turns resolve into
// the transcript; voice turns resolve into speech only.
type Origin int

const (
	OriginTyped Origin = iota + 1
	OriginVoice
)

func (o Origin) String() string {
	switch o {
	case OriginTyped:
		return "typed"
	case OriginVoice:
		return "voice"
	}
	return fmt.Sprintf("Origin(%d)", int(o))
}

// State is what the session is doing right now.
type State int

const (
	StateIdle State = iota
	StateListening
	StateSending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateSending:
		return "sending"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTurnTimeout bounds how long a single turn waits for the gateway.
func WithTurnTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Session is one user's conversation with the coach. Sends never block the
// caller: each turn runs on its own goroutine and resolves when the gateway
// answers. Overlapping turns are not serialized, so replies land in
// completion order.
type Session struct {
	client     ChatClient
	speaker    Speaker
	recognizer Recognizer
	logger     *zap.Logger
	timeout    time.Duration

	voiceSupported bool
	transcript     Transcript

	mu    sync.Mutex
	input string

	listening atomic.Bool
	inFlight  atomic.Int32
	pending   sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// New starts a session. Voice capability is decided here once from env and
// never re-evaluated. speaker and recognizer may be nil when the host has no
// speech support.
func New(client ChatClient, speaker Speaker, recognizer Recognizer, env Environment, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		client:         client,
		speaker:        speaker,
		recognizer:     recognizer,
		logger:         zap.NewNop(),
		timeout:        defaultTurnTimeout,
		voiceSupported: VoiceSupported(env) && recognizer != nil,
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) VoiceSupported() bool {
	return s.voiceSupported
}

func (s *Session) Listening() bool {
	return s.listening.Load()
}

// State reports Listening while a capture is open, Sending while any turn
// awaits its reply, and Idle otherwise.
func (s *Session) State() State {
	switch {
	case s.listening.Load():
		return StateListening
	case s.inFlight.Load() > 0:
		return StateSending
	default:
		return StateIdle
	}
}

// Transcript returns a snapshot of the messages so far.
func (s *Session) Transcript() []ChatMessage {
	return s.transcript.Messages()
}

func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Submit sends the current input as a typed turn.
func (s *Session) Submit() bool {
	return s.SendTyped(s.Input())
}

// SendTyped appends text to the transcript as a user message and sends it.
// The coach reply, or FallbackReply on failure, is appended when the turn
// resolves. Blank text is ignored and reports false.
func (s *Session) SendTyped(text string) bool {
	return s.send(text, OriginTyped)
}

// SendVoice sends text without touching the transcript. The reply, or
// FallbackReply on failure, is spoken.
func (s *Session) SendVoice(text string) bool {
	return s.send(text, OriginVoice)
}

func (s *Session) send(text string, origin Origin) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	if origin == OriginTyped {
		s.transcript.Append(ChatMessage{Sender: SenderUser, Text: text})
	}
	s.SetInput("")

	s.pending.Add(1)
	s.inFlight.Add(1)
	go func() {
		defer s.pending.Done()
		defer s.inFlight.Add(-1)

		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()

		reply, err := s.client.Send(ctx, text)
		if err != nil {
			s.logger.Warn("chat turn failed",
				zap.Stringer("origin", origin),
				zap.Error(err),
			)
			reply = FallbackReply
		}
		s.resolve(origin, reply)
	}()
	return true
}

func (s *Session) resolve(origin Origin, reply string) {
	switch origin {
	case OriginTyped:
		s.transcript.Append(ChatMessage{Sender: SenderCoach, Text: reply})
	case OriginVoice:
		s.speak(reply)
	default:
		panic(fmt.Sprintf("session: unhandled turn origin %v", origin))
	}
}

// speak interrupts any utterance in progress so the newest reply wins.
func (s *Session) speak(text string) {
	if s.speaker == nil {
		return
	}
	if s.speaker.Speaking() {
		s.speaker.Cancel()
	}
	if err := s.speaker.Speak(text); err != nil {
		s.logger.Warn("speech synthesis failed", zap.Error(err))
	}
}

// Listen captures one utterance and sends it as a voice turn. Speech in
// progress is cancelled before capture starts so the coach does not hear
// itself.
func (s *Session) Listen(ctx context.Context) error {
	if !s.voiceSupported {
		return ErrVoiceUnsupported
	}
	if !s.listening.CompareAndSwap(false, true) {
		return ErrAlreadyListening
	}
	defer s.listening.Store(false)

	if s.speaker != nil && s.speaker.Speaking() {
		s.speaker.Cancel()
	}

	text, err := s.recognizer.Recognize(ctx)
	if err != nil {
		s.logger.Warn("speech recognition failed", zap.Error(err))
		return fmt.Errorf("recognize speech: %w", err)
	}

	s.SetInput(text)
	s.SendVoice(text)
	return nil
}

// Wait blocks until every in-flight turn has resolved.
func (s *Session) Wait() {
	s.pending.Wait()
}

// Close aborts in-flight turns and waits for them to resolve. Aborted turns
// resolve with FallbackReply.
func (s *Session) Close() {
	s.cancel()
	s.pending.Wait()
}
