package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"quizgame-service/internal/app"
	"quizgame-service/internal/domain"
	"quizgame-service/internal/questions"
)

// GameHandler serves the host-facing REST surface: login, question upload,
// rehost and the public game lookup.
type GameHandler struct {
	service      *app.GameService
	hostPassword string
}

func NewGameHandler(service *app.GameService, hostPassword string) *GameHandler {
	return &GameHandler{service: service, hostPassword: hostPassword}
}

// Login handles POST /host/login. The shared secret doubles as the returned
// token; there is no per-session credential beyond it.
func (h *GameHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != h.hostPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"token":  h.hostPassword,
	})
}

// Upload handles POST /host/upload: parse the multipart question file and
// create a game for it.
func (h *GameHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing question file"})
		return
	}
	defer file.Close()

	parsed, err := questions.Parse(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	game, err := h.service.CreateGame(r.Context(), parsed)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"gameId":        game.ID(),
		"questionCount": len(parsed),
		"message":       "Game created successfully",
	})
}

// Rehost handles POST /host/rehost/{setID}: start a fresh game from a
// previously uploaded question set.
func (h *GameHandler) Rehost(w http.ResponseWriter, r *http.Request) {
	setID := r.PathValue("setID")
	game, err := h.service.RehostGame(r.Context(), setID)
	if errors.Is(err, domain.ErrQuestionSetNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "question set not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("set_id", setID).Msg("rehost failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not rehost game"})
		return
	}
	summary := game.Summary()
	writeJSON(w, http.StatusOK, map[string]any{
		"gameId":        game.ID(),
		"questionCount": summary.TotalQuestions,
		"message":       "Game created successfully",
	})
}

// Info handles GET /game/{gameID}.
func (h *GameHandler) Info(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.PathValue("gameID"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Game not found"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}
