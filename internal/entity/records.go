package entity

import "time"

// GameRecord is the durable trace of a room's game, kept by the archive
// independently of any in-memory room state.
type GameRecord struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	PlayerX   string    `json:"player_x,omitempty"`
	PlayerO   string    `json:"player_o,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MoveRecord is one applied move, ordered by insertion within its game.
type MoveRecord struct {
	GameID string    `json:"game_id"`
	Cell   int       `json:"cell"`
	Mark   string    `json:"mark"`
	MadeAt time.Time `json:"made_at"`
}
