package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	storemodel "baskt/internal/store/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound covers both truly absent rows and rows owned by another user;
// callers cannot tell the two apart.
var ErrNotFound = errors.New("record not found")

// GormStore implements user, session and journal storage using Gorm + SQLite.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	models := []interface{}{
		&storemodel.UserModel{},
		&storemodel.SessionModel{},
		&storemodel.JournalEntryModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a small amount of parallelism for concurrent HTTP
	// reads while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &GormStore{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ---- users ----

func (s *GormStore) CreateUser(ctx context.Context, user *storemodel.UserModel) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*storemodel.UserModel, error) {
	var user storemodel.UserModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *GormStore) UserByID(ctx context.Context, id int64) (*storemodel.UserModel, error) {
	var user storemodel.UserModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

// DeleteUser removes the user together with everything they own. The cascade
// is explicit here rather than delegated to foreign-key behavior.
func (s *GormStore) DeleteUser(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&storemodel.JournalEntryModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&storemodel.SessionModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&storemodel.UserModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ---- sessions ----

func (s *GormStore) CreateSession(ctx context.Context, session *storemodel.SessionModel) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *GormStore) SessionsByUser(ctx context.Context, userID int64) ([]storemodel.SessionModel, error) {
	var sessions []storemodel.SessionModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *GormStore) SessionByIDAndUser(ctx context.Context, id, userID int64) (*storemodel.SessionModel, error) {
	var session storemodel.SessionModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&session).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &session, nil
}

func (s *GormStore) DeleteSession(ctx context.Context, id, userID int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&storemodel.SessionModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSessionCache overwrites the session's candle blob. The blob is opaque
// here; the replay service owns its encoding.
func (s *GormStore) SaveSessionCache(ctx context.Context, id, userID int64, blob []byte) error {
	res := s.db.WithContext(ctx).
		Model(&storemodel.SessionModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("historical_data_cache", datatypes.JSON(blob))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplayStateUpdate is the full mutable-state snapshot applied by Advance.
// Every field is enumerated; there is no partial form.
type ReplayStateUpdate struct {
	CurrentCandleIndex int
	CurrentBalance     float64
	PositionQuantity   float64
	PositionAvgPrice   float64
	TradesData         []byte
	Timeframe          string // empty keeps the stored timeframe
}

// UpdateReplayState applies the whole snapshot as a single UPDATE inside a
// transaction: a concurrent reader sees either the previous state or the new
// one, never a mix.
func (s *GormStore) UpdateReplayState(ctx context.Context, id, userID int64, upd ReplayStateUpdate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{
			"current_candle_index": upd.CurrentCandleIndex,
			"current_balance":      upd.CurrentBalance,
			"position_quantity":    upd.PositionQuantity,
			"position_avg_price":   upd.PositionAvgPrice,
			"trades_data":          datatypes.JSON(upd.TradesData),
		}
		if upd.Timeframe != "" {
			fields["timeframe"] = upd.Timeframe
		}
		res := tx.Model(&storemodel.SessionModel{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CompleteSession sets the final result and flags the session completed.
// Calling it again simply overwrites the result (last writer wins).
func (s *GormStore) CompleteSession(ctx context.Context, id, userID int64, result float64) error {
	res := s.db.WithContext(ctx).
		Model(&storemodel.SessionModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"result":       result,
			"is_completed": true,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- journal ----

func (s *GormStore) CreateEntry(ctx context.Context, entry *storemodel.JournalEntryModel) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) EntriesByUser(ctx context.Context, userID int64) ([]storemodel.JournalEntryModel, error) {
	var entries []storemodel.JournalEntryModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *GormStore) EntryByIDAndUser(ctx context.Context, id, userID int64) (*storemodel.JournalEntryModel, error) {
	var entry storemodel.JournalEntryModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&entry).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &entry, nil
}

func (s *GormStore) UpdateEntry(ctx context.Context, id, userID int64, title, content string) error {
	res := s.db.WithContext(ctx).
		Model(&storemodel.JournalEntryModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"title":   title,
			"content": content,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteEntry(ctx context.Context, id, userID int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&storemodel.JournalEntryModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
