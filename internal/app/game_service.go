package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"quizgame-service/internal/domain"
)

// Registry owns the process-wide mapping from game code to Game.
type Registry interface {
	Create(questions []domain.Question) (*Game, error)
	Get(id string) (*Game, bool)
}

// QuestionSetRepository loads stored question sets (from cache/backing store).
type QuestionSetRepository interface {
	GetQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error)
}

// QuestionSetSaver archives uploaded question sets so a host can rehost them.
type QuestionSetSaver interface {
	SaveQuestionSet(ctx context.Context, set domain.QuestionSet) error
}

// GameService contains the session use cases. It is the single entry point
// connection handlers and HTTP handlers call into.
type GameService struct {
	registry Registry
	sets     QuestionSetRepository
	saver    QuestionSetSaver
}

func NewGameService(registry Registry, sets QuestionSetRepository, saver QuestionSetSaver) *GameService {
	return &GameService{registry: registry, sets: sets, saver: saver}
}

// CreateGame registers a new game for the question set. The set is archived
// best-effort when a store is configured; a failed archive never fails the game.
func (s *GameService) CreateGame(ctx context.Context, questions []domain.Question) (*Game, error) {
	game, err := s.registry.Create(questions)
	if err != nil {
		return nil, err
	}
	if s.saver != nil {
		if err := s.saver.SaveQuestionSet(ctx, domain.QuestionSet{ID: game.ID(), Questions: questions}); err != nil {
			log.Warn().Err(err).Str("game_id", game.ID()).Msg("failed to archive question set")
		}
	}
	log.Info().Str("game_id", game.ID()).Int("questions", len(questions)).Msg("game created")
	return game, nil
}

// RehostGame creates a fresh game from a previously uploaded question set.
func (s *GameService) RehostGame(ctx context.Context, setID string) (*Game, error) {
	if s.sets == nil {
		return nil, domain.ErrQuestionSetNotFound
	}
	set, err := s.sets.GetQuestionSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	return s.CreateGame(ctx, set.Questions)
}

// Summary looks up the public view of a game.
func (s *GameService) Summary(gameID string) (domain.GameSummary, error) {
	game, ok := s.registry.Get(gameID)
	if !ok {
		return domain.GameSummary{}, domain.ErrGameNotFound
	}
	return game.Summary(), nil
}

// PlayerConnect accepts a player connection into a game and returns the
// assigned player id.
func (s *GameService) PlayerConnect(gameID string, conn Conn) (string, error) {
	game, ok := s.registry.Get(gameID)
	if !ok {
		return "", domain.ErrGameNotFound
	}
	return game.AddPlayer(conn)
}

// PlayerJoin sets the player's display name and avatar.
func (s *GameService) PlayerJoin(gameID, playerID, name, avatar string) {
	if game, ok := s.registry.Get(gameID); ok {
		game.Join(playerID, name, avatar)
	}
}

// PlayerAnswer records an answer submission.
func (s *GameService) PlayerAnswer(gameID, playerID string, answerIndex, timeLeft int) {
	if game, ok := s.registry.Get(gameID); ok {
		game.SubmitAnswer(playerID, answerIndex, timeLeft)
	}
}

// PlayerDisconnect removes the player from the roster.
func (s *GameService) PlayerDisconnect(gameID, playerID string) {
	if game, ok := s.registry.Get(gameID); ok {
		game.RemovePlayer(playerID)
	}
}

// HostConnect attaches the host connection, replacing any previous one.
func (s *GameService) HostConnect(gameID string, conn Conn) error {
	game, ok := s.registry.Get(gameID)
	if !ok {
		return domain.ErrGameNotFound
	}
	game.SetHost(conn)
	return nil
}

// HostDisconnect detaches the host connection; the game keeps running.
func (s *GameService) HostDisconnect(gameID string, conn Conn) {
	if game, ok := s.registry.Get(gameID); ok {
		game.ClearHost(conn)
	}
}

// HostCommand dispatches a phase-advance command. Unknown commands and
// commands that do not apply to the current phase are dropped, so duplicate
// or late host messages cannot disrupt a session.
func (s *GameService) HostCommand(gameID, command string) {
	game, ok := s.registry.Get(gameID)
	if !ok {
		return
	}
	log.Debug().Str("game_id", gameID).Str("command", command).Msg("host command")
	switch command {
	case "start_game":
		game.Start()
	case "next_question":
		game.NextQuestion()
	case "show_results":
		game.ShowResults()
	case "show_leaderboard":
		game.ShowLeaderboard()
	case "end_game":
		game.End()
	}
}
