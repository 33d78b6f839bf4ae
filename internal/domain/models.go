package domain

// Question is a single multiple-choice question with exactly four options.
// Immutable once parsed; CorrectIndex is zero-based.
type Question struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// QuestionSet is an uploaded, ordered collection of questions, keyed by the
// game code it was first uploaded for.
type QuestionSet struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// PlayerInfo is the host-facing view of a roster member.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Score  int    `json:"score"`
}

// LeaderboardEntry is one ranked row of the scoreboard.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Score  int    `json:"score"`
}

// GameSummary is the public lookup view of a running game.
// CurrentQuestion is one-based for display.
type GameSummary struct {
	ID              string `json:"id"`
	PlayerCount     int    `json:"playerCount"`
	CurrentQuestion int    `json:"currentQuestion"`
	TotalQuestions  int    `json:"totalQuestions"`
}
