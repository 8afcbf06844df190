package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playrooms/tictactoe-backend/internal/entity"
	"github.com/playrooms/tictactoe-backend/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// gameReader is the read side of the persistence gateway. Both endpoints are
// read-only and side-effect-free.
type gameReader interface {
	ListRecentGames(ctx context.Context, limit int) ([]entity.GameRecord, error)
	GetGameByID(ctx context.Context, id string) (*entity.GameRecord, []entity.MoveRecord, error)
}

type Handlers struct {
	logger *slog.Logger
	reader gameReader
}

func NewHandlers(logger *slog.Logger, reader gameReader) *Handlers {
	return &Handlers{
		logger: logger.With("component", "rest"),
		reader: reader,
	}
}

type gameSummary struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	Winner    string    `json:"winner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type moveView struct {
	Index  int       `json:"index"`
	Player string    `json:"player"`
	MadeAt time.Time `json:"madeAt"`
}

type gameDetails struct {
	gameSummary
	PlayerX string     `json:"playerX,omitempty"`
	PlayerO string     `json:"playerO,omitempty"`
	Moves   []moveView `json:"moves"`
}

// ListGames - most recent persisted games, newest first.
func (that *Handlers) ListGames(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ListGames")

	games, err := that.reader.ListRecentGames(r.Context(), listLimit(r))
	if err != nil {
		log.Error("failed to list games", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load games")
		return
	}

	summaries := make([]gameSummary, 0, len(games))
	for _, game := range games {
		summaries = append(summaries, newGameSummary(&game))
	}

	writeJSON(w, http.StatusOK, summaries)
}

// GetGame - one game with its moves in insertion order, 404 if absent.
func (that *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetGame")

	gameID := chi.URLParam(r, "gameID")

	game, moves, err := that.reader.GetGameByID(r.Context(), gameID)
	if errors.Is(err, repository.ErrGameNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		log.Error("failed to get game", "gameID", gameID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load game")
		return
	}

	details := gameDetails{
		gameSummary: newGameSummary(game),
		PlayerX:     game.PlayerX,
		PlayerO:     game.PlayerO,
		Moves:       make([]moveView, 0, len(moves)),
	}
	for _, move := range moves {
		details.Moves = append(details.Moves, moveView{
			Index:  move.Cell,
			Player: move.Mark,
			MadeAt: move.MadeAt,
		})
	}

	writeJSON(w, http.StatusOK, details)
}

// Ping - liveness probe.
func (that *Handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func newGameSummary(game *entity.GameRecord) gameSummary {
	return gameSummary{
		ID:        game.ID,
		RoomID:    game.RoomID,
		Winner:    game.Winner,
		CreatedAt: game.CreatedAt,
	}
}

func listLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxListLimit {
		return defaultListLimit
	}

	return limit
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
