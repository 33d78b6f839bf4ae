package app

import "quizgame-service/internal/domain"

// Outbound message payloads. Field and type names are the wire vocabulary
// the frontend speaks; connection handlers deliver them verbatim as JSON.

type questionView struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type playerJoinedMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type joinedSuccessMsg struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName"`
	AvatarURL  string `json:"avatarUrl"`
}

type newQuestionMsg struct {
	Type           string       `json:"type"`
	Question       questionView `json:"question"`
	QuestionNumber int          `json:"questionNumber"`
	TotalQuestions int          `json:"totalQuestions"`
	TimeLimit      int          `json:"timeLimit"`
}

type questionResultsMsg struct {
	Type              string `json:"type"`
	CorrectAnswer     int    `json:"correctAnswer"`
	AnswerStats       [4]int `json:"answerStats"`
	AnswerPercentages [4]int `json:"answerPercentages"`
}

// hostQuestionResultsMsg is the richer host-only variant, including the full
// question so the host screen can show the prompt alongside the stats.
type hostQuestionResultsMsg struct {
	Type              string          `json:"type"`
	CorrectAnswer     int             `json:"correctAnswer"`
	AnswerStats       [4]int          `json:"answerStats"`
	AnswerPercentages [4]int          `json:"answerPercentages"`
	TotalAnswers      int             `json:"totalAnswers"`
	TotalPlayers      int             `json:"totalPlayers"`
	Question          domain.Question `json:"question"`
}

type yourResultMsg struct {
	Type          string `json:"type"`
	Correct       bool   `json:"correct"`
	CorrectAnswer int    `json:"correctAnswer"`
	YourAnswer    *int   `json:"yourAnswer"`
	Points        int    `json:"points"`
}

type showLeaderboardMsg struct {
	Type        string                   `json:"type"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

type gameOverMsg struct {
	Type             string                   `json:"type"`
	FinalLeaderboard []domain.LeaderboardEntry `json:"finalLeaderboard"`
}

type playerListUpdatedMsg struct {
	Type    string              `json:"type"`
	Players []domain.PlayerInfo `json:"players"`
}
