// Package wizard runs claim sessions. A session owns one claim's segment
// store and questionnaires and applies every change through a FIFO command
// queue drained by a single goroutine.
package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dharmasatrya/flightclaim/internal/logging"
	"github.com/dharmasatrya/flightclaim/internal/metrics"
	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/persist"
	"github.com/dharmasatrya/flightclaim/internal/questionnaire"
	"github.com/dharmasatrya/flightclaim/internal/search"
	"github.com/dharmasatrya/flightclaim/internal/segment"
)

// Searcher is the flight search used by sessions.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (search.Result, error)
}

// Dependencies are shared by every session of a manager. Location is the
// zone zoned date input is read in when a request names none.
type Dependencies struct {
	Search        Searcher
	Store         persist.Store
	Metrics       *metrics.Registry
	MinConnection time.Duration
	Location      *time.Location
	Now           func() time.Time
	NewID         func() string
}

// searchState is the transient search status of one segment. It is never
// persisted.
type searchState struct {
	fingerprint string
	loading     bool
	flights     []models.Flight
	outcome     search.Outcome
	err         string
}

type command struct {
	ctx    context.Context
	op     string
	fn     func() error
	result chan error
}

type Session struct {
	id      string
	deps    *Dependencies
	log     *zap.SugaredLogger
	store   *segment.Store
	wizards map[string]questionnaire.Wizard
	answers map[string]questionnaire.Answers
	results map[int]*searchState

	mu      sync.Mutex
	queue   []command
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	closed  bool
}

func newSession(id string, store *segment.Store, answers map[string]questionnaire.Answers, deps *Dependencies) *Session {
	s := &Session{
		id:      id,
		deps:    deps,
		log:     logging.WithClaim(id),
		store:   store,
		wizards: questionnaire.Catalog(),
		answers: make(map[string]questionnaire.Answers),
		results: make(map[int]*searchState),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for name, as := range answers {
		if _, ok := s.wizards[name]; ok {
			s.answers[name] = as
		}
	}
	go s.run()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Do runs fn on the session goroutine after every command queued before it
// and waits for its result. A command whose ctx is done before it starts is
// skipped. Non-empty op marks a mutation: it is counted and persisted.
func (s *Session) Do(ctx context.Context, op string, fn func() error) error {
	cmd := command{ctx: ctx, op: op, fn: fn, result: make(chan error, 1)}
	if err := s.enqueue(cmd); err != nil {
		return err
	}
	select {
	case err := <-cmd.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deferCommand queues fn behind everything already queued without waiting for it.
// Called from inside a command, fn runs after the current command finishes.
func (s *Session) deferCommand(op string, fn func() error) {
	if err := s.enqueue(command{ctx: context.Background(), op: op, fn: fn}); err != nil {
		s.log.Debugw("deferred command dropped", "op", op, "error", err)
	}
}

func (s *Session) enqueue(cmd command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.ErrSessionClosed
	}
	s.queue = append(s.queue, cmd)
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *Session) next() (command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return command{}, false
	}
	cmd := s.queue[0]
	s.queue[0] = command{}
	s.queue = s.queue[1:]
	return cmd, true
}

func (s *Session) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			s.drainClosed()
			return
		case <-s.wake:
		}
		for !s.isClosed() {
			cmd, ok := s.next()
			if !ok {
				break
			}
			s.execute(cmd)
		}
	}
}

func (s *Session) execute(cmd command) {
	var err error
	if err = cmd.ctx.Err(); err == nil {
		err = s.apply(cmd)
	}
	if cmd.result != nil {
		cmd.result <- err
	}
}

func (s *Session) apply(cmd command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("command panicked", "op", cmd.op, "panic", r)
			err = fmt.Errorf("command %q panicked: %v", cmd.op, r)
		}
	}()

	if err := cmd.fn(); err != nil {
		return err
	}
	if s.isClosed() {
		return models.ErrSessionClosed
	}
	if cmd.op != "" {
		s.deps.Metrics.ObserveMutation(cmd.op)
		s.persist()
	}
	return nil
}

func (s *Session) drainClosed() {
	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()
	for _, cmd := range pending {
		if cmd.result != nil {
			cmd.result <- models.ErrSessionClosed
		}
	}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// wait blocks until the session goroutine has exited. After that nothing of
// this session is written to the state store any more.
func (s *Session) wait(ctx context.Context) error {
	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the session goroutine. Queued commands, and a running command
// that has not finished yet, fail with models.ErrSessionClosed and are not
// persisted.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

func (s *Session) persist() {
	if s.deps.Store == nil {
		return
	}
	data, err := encodeState(s.persistedState())
	if err != nil {
		s.log.Errorw("encode claim state failed", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.deps.Store.Set(ctx, stateKey(s.id), data); err != nil {
		s.log.Errorw("persist claim state failed", "error", err)
	}
}

func (s *Session) now() time.Time {
	if s.deps.Now != nil {
		return s.deps.Now()
	}
	return time.Now()
}
