package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"baskt/internal/logger"
	"baskt/internal/market"
	"baskt/internal/store/archive"
	"baskt/internal/store/gormstore"
	storemodel "baskt/internal/store/model"
)

// DataSource tags where a candle response came from.
type DataSource string

const (
	SourceCache    DataSource = "cache"
	SourceProvider DataSource = "provider"
)

var (
	// ErrSessionCompleted rejects state advances after completion.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrCursorOutOfRange rejects a candle index beyond the cached data.
	ErrCursorOutOfRange = errors.New("candle index out of range")
)

// Service owns the session replay core: the read-through candle cache and the
// wholesale replay-state updates. It trusts the caller's computed balances and
// positions; trade-matching logic lives in the client.
type Service struct {
	store   *gormstore.GormStore
	source  market.Source
	archive *archive.Store
}

func NewService(store *gormstore.GormStore, source market.Source, archiveStore *archive.Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("replay service requires a store")
	}
	if source == nil {
		return nil, fmt.Errorf("replay service requires a market source")
	}
	return &Service{store: store, source: source, archive: archiveStore}, nil
}

// HistoricalData returns the session's candle sequence, read-through cached on
// the session row. A decodable stored blob is served without any network call;
// a corrupt blob counts as a miss and is silently repopulated. The persisted
// blob and the returned slice always carry the same data.
func (s *Service) HistoricalData(ctx context.Context, userID, sessionID int64) ([]market.Candle, DataSource, error) {
	session, err := s.store.SessionByIDAndUser(ctx, sessionID, userID)
	if err != nil {
		return nil, "", err
	}
	if candles, ok := decodeCache(session.HistoricalDataCache); ok {
		return candles, SourceCache, nil
	}

	bars, err := s.source.Fetch(ctx, market.Query{
		Symbol:   session.Symbol,
		Interval: session.Timeframe,
		Start:    session.StartDate,
		End:      session.EndDate,
	})
	if err != nil {
		return nil, "", err
	}
	candles, err := market.Normalize(bars)
	if err != nil {
		return nil, "", err
	}
	blob, err := json.Marshal(candles)
	if err != nil {
		return nil, "", err
	}
	if err := s.store.SaveSessionCache(ctx, session.ID, userID, blob); err != nil {
		return nil, "", err
	}
	return candles, SourceProvider, nil
}

func decodeCache(blob []byte) ([]market.Candle, bool) {
	if len(blob) == 0 {
		return nil, false
	}
	var candles []market.Candle
	if err := json.Unmarshal(blob, &candles); err != nil {
		logger.Debugf("cached candle blob is corrupt, treating as miss: %v", err)
		return nil, false
	}
	return candles, true
}

// Advance overwrites the session's replay-mutable fields with the submitted
// snapshot as one atomic unit. The payload must already have passed
// ParseStateUpdate.
func (s *Service) Advance(ctx context.Context, userID, sessionID int64, upd StateUpdate) (*storemodel.SessionModel, error) {
	session, err := s.store.SessionByIDAndUser(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, ErrSessionCompleted
	}
	if upd.Timeframe != "" {
		if _, err := market.ParseTimeframe(upd.Timeframe); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
	}
	// Cursor bounds are only checkable once data has been loaded; before that
	// the index is accepted as submitted.
	if candles, ok := decodeCache(session.HistoricalDataCache); ok {
		if upd.CurrentCandleIndex >= len(candles) {
			return nil, fmt.Errorf("%w: index %d, %d candles cached",
				ErrCursorOutOfRange, upd.CurrentCandleIndex, len(candles))
		}
	}
	err = s.store.UpdateReplayState(ctx, sessionID, userID, gormstore.ReplayStateUpdate{
		CurrentCandleIndex: upd.CurrentCandleIndex,
		CurrentBalance:     upd.CurrentBalance,
		PositionQuantity:   upd.PositionQuantity,
		PositionAvgPrice:   upd.PositionAvgPrice,
		TradesData:         upd.Trades,
		Timeframe:          upd.Timeframe,
	})
	if err != nil {
		return nil, err
	}
	return s.store.SessionByIDAndUser(ctx, sessionID, userID)
}

// Complete sets the final result and marks the session done. Completing an
// already-completed session overwrites the result (last writer wins). The
// trade log is archived best-effort; archive failures never fail the call.
func (s *Service) Complete(ctx context.Context, userID, sessionID int64, result float64) (*storemodel.SessionModel, error) {
	session, err := s.store.SessionByIDAndUser(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.CompleteSession(ctx, sessionID, userID, result); err != nil {
		return nil, err
	}
	if s.archive != nil {
		_, err := s.archive.ArchiveSession(ctx, archive.Request{
			SessionID:  session.ID,
			UserID:     userID,
			Symbol:     session.Symbol,
			Result:     result,
			TradesJSON: session.TradesData,
		})
		if err != nil {
			logger.Warnf("archiving trades for session %d failed: %v", session.ID, err)
		}
	}
	return s.store.SessionByIDAndUser(ctx, sessionID, userID)
}
