package app

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"quizgame-service/internal/domain"
)

// Phase is the stage of a game's state machine.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseQuestion
	PhaseResults
	PhaseLeaderboard
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseQuestion:
		return "question"
	case PhaseResults:
		return "results"
	case PhaseLeaderboard:
		return "leaderboard"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

const (
	basePoints      = 500
	pointsPerSecond = 50
)

// unanswered marks a player who has not answered the current question.
const unanswered = -1

// Settings are the per-game tunables.
type Settings struct {
	QuestionTime time.Duration
	ResultsDelay time.Duration
	MaxPlayers   int
}

func DefaultSettings() Settings {
	return Settings{
		QuestionTime: 20 * time.Second,
		ResultsDelay: 3 * time.Second,
		MaxPlayers:   100,
	}
}

type player struct {
	id          string
	conn        Conn
	name        string
	avatar      string
	score       int
	answer      int
	lastCorrect bool
	lastPoints  int
	seq         int // join order, used as the leaderboard tie-break
}

// Game owns all state of one running quiz session: phase, question cursor,
// roster, scores and the host connection. Every mutation goes through a
// method holding g.mu, so handlers and timers never interleave mid-update.
type Game struct {
	id        string
	questions []domain.Question
	settings  Settings
	clock     clockwork.Clock
	createdAt time.Time

	mu      sync.Mutex
	phase   Phase
	current int
	players map[string]*player
	joinSeq int
	host    Conn
}

func NewGame(id string, questions []domain.Question, settings Settings, clock clockwork.Clock) *Game {
	return &Game{
		id:        id,
		questions: questions,
		settings:  settings,
		clock:     clock,
		createdAt: clock.Now(),
		phase:     PhaseWaiting,
		players:   make(map[string]*player),
	}
}

func (g *Game) ID() string { return g.id }

func (g *Game) CreatedAt() time.Time { return g.createdAt }

func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Summary reports the public lookup view; CurrentQuestion is one-based.
func (g *Game) Summary() domain.GameSummary {
	g.mu.Lock()
	defer g.mu.Unlock()
	return domain.GameSummary{
		ID:              g.id,
		PlayerCount:     len(g.players),
		CurrentQuestion: g.current + 1,
		TotalQuestions:  len(g.questions),
	}
}

// Leaderboard returns the current ranking, recomputed from scratch.
func (g *Game) Leaderboard() []domain.LeaderboardEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leaderboardLocked()
}

// AddPlayer registers a fresh player for the connection and tells it its id.
// Name and avatar stay empty until the join message arrives.
func (g *Game) AddPlayer(conn Conn) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.players) >= g.settings.MaxPlayers {
		return "", domain.ErrGameFull
	}
	id := uuid.NewString()
	g.joinSeq++
	g.players[id] = &player{
		id:     id,
		conn:   conn,
		avatar: defaultAvatar(id),
		answer: unanswered,
		seq:    g.joinSeq,
	}
	send(conn, playerJoinedMsg{Type: "player_joined", PlayerID: id})
	return id, nil
}

// Join fills in the player's display name and avatar and notifies the host.
func (g *Game) Join(playerID, name, avatar string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[playerID]
	if !ok {
		return
	}
	p.name = name
	if avatar != "" {
		p.avatar = avatar
	}
	send(p.conn, joinedSuccessMsg{Type: "joined_success", PlayerName: p.name, AvatarURL: p.avatar})
	g.notifyHostLocked(playerListUpdatedMsg{Type: "player_list_updated", Players: g.playerListLocked()})
}

// RemovePlayer drops the player from the roster. Scores of remaining players
// and the phase are untouched.
func (g *Game) RemovePlayer(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.players[playerID]; !ok {
		return
	}
	delete(g.players, playerID)
	g.notifyHostLocked(playerListUpdatedMsg{Type: "player_list_updated", Players: g.playerListLocked()})
}

// SetHost installs (or replaces) the host connection and sends it the roster.
func (g *Game) SetHost(conn Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.host = conn
	send(conn, playerListUpdatedMsg{Type: "player_list_updated", Players: g.playerListLocked()})
}

// ClearHost detaches the host connection if it is still the current one.
// The game keeps running; a reconnected host picks up where it left off.
func (g *Game) ClearHost(conn Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.host == conn {
		g.host = nil
	}
}

// SubmitAnswer records a player's answer for the current question and scores
// it immediately. First submission wins; anything after that, or outside the
// question phase, is silently ignored.
func (g *Game) SubmitAnswer(playerID string, answerIndex, timeLeft int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseQuestion {
		return
	}
	p, ok := g.players[playerID]
	if !ok || p.answer != unanswered {
		return
	}
	if answerIndex < 0 || answerIndex >= len(g.questions[g.current].Options) {
		return
	}

	// Clamp the client-reported time left so an inflated value cannot mint points.
	limit := int(g.settings.QuestionTime / time.Second)
	if timeLeft < 0 {
		timeLeft = 0
	}
	if timeLeft > limit {
		timeLeft = limit
	}

	q := g.questions[g.current]
	if answerIndex == q.CorrectIndex {
		points := basePoints + pointsPerSecond*timeLeft
		p.score += points
		p.lastCorrect = true
		p.lastPoints = points
	} else {
		p.lastCorrect = false
		p.lastPoints = 0
	}
	p.answer = answerIndex

	log.Debug().
		Str("game_id", g.id).
		Str("player", p.name).
		Bool("correct", p.lastCorrect).
		Int("points", p.lastPoints).
		Msg("answer recorded")
}

// Start begins the game: first question out, answer timer armed.
// Only valid from the waiting phase.
func (g *Game) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseWaiting {
		return
	}
	g.current = 0
	g.beginQuestionLocked()
	log.Info().Str("game_id", g.id).Int("questions", len(g.questions)).Msg("game started")
}

// ShowResults closes the current question early and broadcasts the results.
func (g *Game) ShowResults() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseQuestion {
		return
	}
	g.showResultsLocked()
}

// ShowLeaderboard is the explicit host advance: from the question phase it
// reveals the results, from the results phase it moves on to the leaderboard.
func (g *Game) ShowLeaderboard() {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.phase {
	case PhaseQuestion:
		g.showResultsLocked()
	case PhaseResults:
		g.showLeaderboardLocked()
	}
}

// NextQuestion advances the cursor, or finishes the game when no questions
// remain. Host command only; ignored in waiting and finished phases.
func (g *Game) NextQuestion() {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.phase {
	case PhaseQuestion, PhaseResults, PhaseLeaderboard:
	default:
		return
	}
	if g.current < len(g.questions)-1 {
		g.current++
		g.beginQuestionLocked()
		log.Info().Str("game_id", g.id).Int("question", g.current+1).Msg("advanced to next question")
	} else {
		g.finishLocked()
	}
}

// End terminates the game from any phase and broadcasts the final standings.
func (g *Game) End() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseFinished {
		return
	}
	g.finishLocked()
}

func (g *Game) beginQuestionLocked() {
	g.phase = PhaseQuestion
	for _, p := range g.players {
		p.answer = unanswered
		p.lastCorrect = false
		p.lastPoints = 0
	}

	q := g.questions[g.current]
	g.broadcastPlayersLocked(newQuestionMsg{
		Type:           "new_question",
		Question:       questionView{Text: q.Text, Options: q.Options},
		QuestionNumber: g.current + 1,
		TotalQuestions: len(g.questions),
		TimeLimit:      int(g.settings.QuestionTime / time.Second),
	})

	// One-shot auto-advance, tagged with the question index active now.
	// The callback re-checks phase and index, so a timer left over from a
	// question the host already advanced past is a no-op.
	idx := g.current
	g.clock.AfterFunc(g.settings.QuestionTime, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.phase == PhaseQuestion && g.current == idx {
			g.showResultsLocked()
		}
	})
}

func (g *Game) showResultsLocked() {
	g.phase = PhaseResults
	q := g.questions[g.current]

	var counts [4]int
	total := 0
	for _, p := range g.players {
		if p.answer != unanswered {
			counts[p.answer]++
			total++
		}
	}
	var percentages [4]int
	if total > 0 {
		for i, c := range counts {
			percentages[i] = int(math.Round(float64(c) / float64(total) * 100))
		}
	}

	g.broadcastPlayersLocked(questionResultsMsg{
		Type:              "question_results",
		CorrectAnswer:     q.CorrectIndex,
		AnswerStats:       counts,
		AnswerPercentages: percentages,
	})
	for _, p := range g.players {
		var answer *int
		if p.answer != unanswered {
			a := p.answer
			answer = &a
		}
		send(p.conn, yourResultMsg{
			Type:          "your_result",
			Correct:       p.lastCorrect,
			CorrectAnswer: q.CorrectIndex,
			YourAnswer:    answer,
			Points:        p.lastPoints,
		})
	}
	g.notifyHostLocked(hostQuestionResultsMsg{
		Type:              "question_results",
		CorrectAnswer:     q.CorrectIndex,
		AnswerStats:       counts,
		AnswerPercentages: percentages,
		TotalAnswers:      total,
		TotalPlayers:      len(g.players),
		Question:          q,
	})

	idx := g.current
	g.clock.AfterFunc(g.settings.ResultsDelay, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.phase == PhaseResults && g.current == idx {
			g.showLeaderboardLocked()
		}
	})

	log.Debug().
		Str("game_id", g.id).
		Ints("stats", counts[:]).
		Int("answered", total).
		Msg("question results shown")
}

func (g *Game) showLeaderboardLocked() {
	g.phase = PhaseLeaderboard
	g.broadcastAllLocked(showLeaderboardMsg{
		Type:        "show_leaderboard",
		Leaderboard: g.leaderboardLocked(),
	})
}

func (g *Game) finishLocked() {
	g.phase = PhaseFinished
	g.broadcastAllLocked(gameOverMsg{
		Type:             "game_over",
		FinalLeaderboard: g.leaderboardLocked(),
	})
	log.Info().Str("game_id", g.id).Msg("game finished")
}

// leaderboardLocked rebuilds the ranking from player scores: descending
// score, ties broken by join order.
func (g *Game) leaderboardLocked() []domain.LeaderboardEntry {
	ranked := make([]*player, 0, len(g.players))
	for _, p := range g.players {
		ranked = append(ranked, p)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].seq < ranked[j].seq
	})
	entries := make([]domain.LeaderboardEntry, len(ranked))
	for i, p := range ranked {
		entries[i] = domain.LeaderboardEntry{
			Rank:   i + 1,
			Name:   p.name,
			Avatar: p.avatar,
			Score:  p.score,
		}
	}
	return entries
}

func (g *Game) playerListLocked() []domain.PlayerInfo {
	list := make([]*player, 0, len(g.players))
	for _, p := range g.players {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
	infos := make([]domain.PlayerInfo, len(list))
	for i, p := range list {
		infos[i] = domain.PlayerInfo{ID: p.id, Name: p.name, Avatar: p.avatar, Score: p.score}
	}
	return infos
}

func defaultAvatar(playerID string) string {
	return "https://api.dicebear.com/7.x/bottts/svg?seed=" + playerID
}
