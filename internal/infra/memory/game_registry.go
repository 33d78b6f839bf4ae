package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"quizgame-service/internal/app"
	"quizgame-service/internal/domain"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const codeLength = 6

// GameRegistry is the in-memory implementation of app.Registry: it allocates
// short game codes, holds every live game, and sweeps out games past the
// retention window regardless of activity.
type GameRegistry struct {
	clock     clockwork.Clock
	settings  app.Settings
	retention time.Duration
	rnd       *rand.Rand

	mu    sync.RWMutex
	games map[string]*app.Game
}

func NewGameRegistry(clock clockwork.Clock, settings app.Settings, retention time.Duration) *GameRegistry {
	return &GameRegistry{
		clock:     clock,
		settings:  settings,
		retention: retention,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		games:     make(map[string]*app.Game),
	}
}

// Create registers a new game under a fresh code. Fails only on an empty
// question set.
func (r *GameRegistry) Create(questions []domain.Question) (*app.Game, error) {
	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	code := r.newCodeLocked()
	game := app.NewGame(code, questions, r.settings, r.clock)
	r.games[code] = game
	return game, nil
}

func (r *GameRegistry) Get(id string) (*app.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.games[id]
	return game, ok
}

// Sweep removes every game older than the retention window and returns how
// many were dropped. A blunt TTL on creation time, not an LRU.
func (r *GameRegistry) Sweep() int {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for code, game := range r.games {
		if now.Sub(game.CreatedAt()) > r.retention {
			delete(r.games, code)
			removed++
			log.Info().Str("game_id", code).Msg("swept expired game")
		}
	}
	return removed
}

// Run sweeps on the given interval until ctx is done.
func (r *GameRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.Sweep()
		}
	}
}

// Clear drops every game; used on shutdown.
func (r *GameRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games = make(map[string]*app.Game)
}

func (r *GameRegistry) newCodeLocked() string {
	for {
		code := make([]byte, codeLength)
		for i := range code {
			code[i] = codeAlphabet[r.rnd.Intn(len(codeAlphabet))]
		}
		if _, taken := r.games[string(code)]; !taken {
			return string(code)
		}
	}
}
