package roulette

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/harumakino16/setlink/internal/store"
)

// State names one phase of the picker's lifecycle.
type State string

const (
	StateIdle     State = "idle"
	StateSpinning State = "spinning"
	StateResult   State = "result"
	StateDecided  State = "decided"
)

// SpinTicks is how many random selections a spin cycles through before the
// last one becomes the candidate result.
const SpinTicks = 20

// defaultTickInterval paces the visual cycling effect.
const defaultTickInterval = 100 * time.Millisecond

var (
	// ErrNoSongs is returned when a spin is started over an empty list.
	ErrNoSongs = errors.New("cannot spin an empty song list")
	// ErrNoResult is returned when deciding without a candidate result.
	ErrNoResult = errors.New("no spin result to decide on")
)

// Store captures the persistence side effects of the picker.
type Store interface {
	BumpRouletteCounters(ctx context.Context, userID int64) error
	AppendRouletteHistory(ctx context.Context, userID int64, entry store.RouletteEntry) (store.RouletteEntry, error)
	ListRouletteHistory(ctx context.Context, userID int64) ([]store.RouletteEntry, error)
	DeleteRouletteEntry(ctx context.Context, userID, entryID int64) error
}

// Outcome reports one finished spin: every song shown per tick, the last of
// which is the candidate result.
type Outcome struct {
	Ticks  []store.Song `json:"ticks"`
	Result store.Song   `json:"result"`
}

type session struct {
	state       State
	songs       []store.Song
	setlistName string
	result      store.Song
}

// Service runs the roulette state machine, one session per user.
type Service struct {
	store    Store
	interval time.Duration

	mu       sync.Mutex
	sessions map[int64]*session
}

// New builds the picker. tickInterval <= 0 selects the default pacing;
// tests pass a tiny interval to spin instantly.
func New(store Store, tickInterval time.Duration) *Service {
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	return &Service{
		store:    store,
		interval: tickInterval,
		sessions: make(map[int64]*session),
	}
}

// State reports the user's current session phase.
func (s *Service) State(userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess.state
	}
	return StateIdle
}

// Spin runs the full tick cycle over the given songs. The usage counters are
// bumped only when the cycle runs to exhaustion; cancelling mid-spin leaves
// no trace. Respinning from a previous result just starts a new cycle.
func (s *Service) Spin(ctx context.Context, userID int64, songs []store.Song, setlistName string) (Outcome, error) {
	if len(songs) == 0 {
		return Outcome{}, ErrNoSongs
	}

	sess := &session{state: StateSpinning, songs: songs, setlistName: setlistName}
	s.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	outcome := Outcome{Ticks: make([]store.Song, 0, SpinTicks)}
	for i := 0; i < SpinTicks; i++ {
		select {
		case <-ctx.Done():
			s.reset(userID)
			return Outcome{}, ctx.Err()
		case <-ticker.C:
			outcome.Ticks = append(outcome.Ticks, songs[rand.IntN(len(songs))])
		}
	}
	outcome.Result = outcome.Ticks[len(outcome.Ticks)-1]

	if err := s.store.BumpRouletteCounters(ctx, userID); err != nil {
		s.reset(userID)
		return Outcome{}, err
	}

	s.mu.Lock()
	sess.state = StateResult
	sess.result = outcome.Result
	s.mu.Unlock()

	return outcome, nil
}

// Decide confirms the candidate result, appends it to the roulette history
// and returns the recorded entry so callers can open the video link.
func (s *Service) Decide(ctx context.Context, userID int64) (store.RouletteEntry, error) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok || sess.state != StateResult {
		s.mu.Unlock()
		return store.RouletteEntry{}, ErrNoResult
	}
	sess.state = StateDecided
	result := sess.result
	setlistName := sess.setlistName
	s.mu.Unlock()

	entry, err := s.store.AppendRouletteHistory(ctx, userID, store.RouletteEntry{
		SongID:      result.ID,
		Title:       result.Title,
		Artist:      result.Artist,
		YouTubeURL:  result.YouTubeURL,
		SetlistName: setlistName,
	})
	if err != nil {
		// Back to Result so the user can retry the decision.
		s.mu.Lock()
		sess.state = StateResult
		s.mu.Unlock()
		return store.RouletteEntry{}, err
	}

	s.reset(userID)
	return entry, nil
}

// Abandon drops any in-flight session without persisting anything.
func (s *Service) Abandon(userID int64) {
	s.reset(userID)
}

// History lists the user's decided songs, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]store.RouletteEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListRouletteHistory(ctx, userID)
}

// DeleteHistory removes one history entry.
func (s *Service) DeleteHistory(ctx context.Context, userID, entryID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteRouletteEntry(ctx, userID, entryID)
}

func (s *Service) reset(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}
