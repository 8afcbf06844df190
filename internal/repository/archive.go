package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/playrooms/tictactoe-backend/internal/entity"
)

var ErrGameNotFound = errors.New("game not found")

const (
	gameKeyPrefix  = "archive:game:"
	roomKeyPrefix  = "archive:room:"
	movesKeyPrefix = "archive:moves:"
	byCreatedKey   = "archive:games:by_created"
)

// GameArchive is the durable, append-mostly record of played games. It is the
// system of record for historical listing, decoupled from live room state.
type GameArchive interface {
	RecordGameCreated(ctx context.Context, roomID, firstSeatLabel string) (string, error)
	RecordSeatAssigned(ctx context.Context, roomID, mark, label string) error
	RecordMove(ctx context.Context, gameID string, cell int, mark string) error
	RecordOutcome(ctx context.Context, gameID, winner string) error

	ListRecentGames(ctx context.Context, limit int) ([]entity.GameRecord, error)
	GetGameByID(ctx context.Context, id string) (*entity.GameRecord, []entity.MoveRecord, error)
}

type dbArchive struct {
	client *redis.Client
}

func NewGameArchive(client *redis.Client) GameArchive {
	return &dbArchive{
		client: client,
	}
}

// RecordGameCreated - persists the initial game shell and returns its record ID.
// firstSeatLabel is the label of whichever seat the creator took.
func (that *dbArchive) RecordGameCreated(ctx context.Context, roomID, firstSeatLabel string) (string, error) {
	record := entity.GameRecord{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		CreatedAt: time.Now().UTC(),
	}
	setSeatLabel(&record, firstSeatLabel, firstSeatLabel)

	if err := that.saveRecord(ctx, &record); err != nil {
		return "", err
	}

	err := that.client.Set(ctx, roomKeyPrefix+roomID, record.ID, 0).Err()
	if err != nil {
		return "", fmt.Errorf("failed to set room index: %w", err)
	}

	err = that.client.ZAdd(ctx, byCreatedKey, redis.Z{
		Score:  float64(record.CreatedAt.UnixNano()),
		Member: record.ID,
	}).Err()
	if err != nil {
		return "", fmt.Errorf("failed to index game by creation time: %w", err)
	}

	return record.ID, nil
}

// RecordSeatAssigned - upserts the label bound to a seat as it becomes known.
func (that *dbArchive) RecordSeatAssigned(ctx context.Context, roomID, mark, label string) error {
	gameID, err := that.client.Get(ctx, roomKeyPrefix+roomID).Result()
	if errors.Is(err, redis.Nil) {
		return ErrGameNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to resolve room index: %w", err)
	}

	record, err := that.getRecord(ctx, gameID)
	if err != nil {
		return err
	}

	setSeatLabel(record, mark, label)

	return that.saveRecord(ctx, record)
}

func setSeatLabel(record *entity.GameRecord, mark, label string) {
	switch mark {
	case entity.PlayerX:
		record.PlayerX = label
	case entity.PlayerO:
		record.PlayerO = label
	}
}

// RecordMove - appends one move to the game's ordered move list.
func (that *dbArchive) RecordMove(ctx context.Context, gameID string, cell int, mark string) error {
	move := entity.MoveRecord{
		GameID: gameID,
		Cell:   cell,
		Mark:   mark,
		MadeAt: time.Now().UTC(),
	}

	moveJSON, err := json.Marshal(move)
	if err != nil {
		return fmt.Errorf("failed to marshal move: %w", err)
	}

	err = that.client.RPush(ctx, movesKeyPrefix+gameID, moveJSON).Err()
	if err != nil {
		return fmt.Errorf("failed to append move: %w", err)
	}

	return nil
}

// RecordOutcome - sets the final winner on the game record.
func (that *dbArchive) RecordOutcome(ctx context.Context, gameID, winner string) error {
	record, err := that.getRecord(ctx, gameID)
	if err != nil {
		return err
	}

	record.Winner = winner

	return that.saveRecord(ctx, record)
}

// ListRecentGames - most recently created games first.
func (that *dbArchive) ListRecentGames(ctx context.Context, limit int) ([]entity.GameRecord, error) {
	if limit <= 0 {
		return []entity.GameRecord{}, nil
	}

	ids, err := that.client.ZRevRange(ctx, byCreatedKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list games by creation time: %w", err)
	}

	records := make([]entity.GameRecord, 0, len(ids))
	for _, id := range ids {
		record, err := that.getRecord(ctx, id)
		if errors.Is(err, ErrGameNotFound) {
			// index entry outlived its record, skip it
			continue
		}
		if err != nil {
			return nil, err
		}

		records = append(records, *record)
	}

	return records, nil
}

// GetGameByID - returns one game record with its moves in insertion order.
func (that *dbArchive) GetGameByID(ctx context.Context, id string) (*entity.GameRecord, []entity.MoveRecord, error) {
	record, err := that.getRecord(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rawMoves, err := that.client.LRange(ctx, movesKeyPrefix+id, 0, -1).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read moves: %w", err)
	}

	moves := make([]entity.MoveRecord, 0, len(rawMoves))
	for _, raw := range rawMoves {
		var move entity.MoveRecord
		if err = json.Unmarshal([]byte(raw), &move); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal move: %w", err)
		}
		moves = append(moves, move)
	}

	return record, moves, nil
}

func (that *dbArchive) saveRecord(ctx context.Context, record *entity.GameRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal game record: %w", err)
	}

	err = that.client.Set(ctx, gameKeyPrefix+record.ID, recordJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set game record: %w", err)
	}

	return nil
}

func (that *dbArchive) getRecord(ctx context.Context, id string) (*entity.GameRecord, error) {
	response, err := that.client.Get(ctx, gameKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game record: %w", err)
	}

	var record entity.GameRecord
	if err = json.Unmarshal([]byte(response), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game record: %w", err)
	}

	return &record, nil
}
