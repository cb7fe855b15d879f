package model

import (
	"gorm.io/datatypes"
)

type UserModel struct {
	ID             int64  `gorm:"column:id;primaryKey"`
	FullName       string `gorm:"column:full_name"`
	Username       string `gorm:"column:username;uniqueIndex"`
	Email          string `gorm:"column:email;uniqueIndex"`
	HashedPassword string `gorm:"column:hashed_password"`
	CreatedAtUnix  int64  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAtUnix  int64  `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

// SessionModel is one replay exercise. Configuration fields (symbol, dates,
// starting capital) are immutable after creation; replay state is overwritten
// wholesale by state-advance calls. HistoricalDataCache holds the normalized
// candle blob for exactly this session's (symbol, timeframe, date range).
type SessionModel struct {
	ID                  int64          `gorm:"column:id;primaryKey"`
	UserID              int64          `gorm:"column:user_id;index"`
	Name                string         `gorm:"column:name"`
	Symbol              string         `gorm:"column:symbol"`
	StartDate           string         `gorm:"column:start_date"`
	EndDate             string         `gorm:"column:end_date"`
	StartingCapital     float64        `gorm:"column:starting_capital"`
	Result              *float64       `gorm:"column:result"`
	CurrentCandleIndex  int            `gorm:"column:current_candle_index"`
	CurrentBalance      float64        `gorm:"column:current_balance"`
	PositionQuantity    float64        `gorm:"column:position_quantity"`
	PositionAvgPrice    float64        `gorm:"column:position_avg_price"`
	TradesData          datatypes.JSON `gorm:"column:trades_data;type:TEXT"`
	Timeframe           string         `gorm:"column:timeframe"`
	IsCompleted         bool           `gorm:"column:is_completed"`
	HistoricalDataCache datatypes.JSON `gorm:"column:historical_data_cache;type:TEXT"`
	CreatedAtUnix       int64          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAtUnix       int64          `gorm:"column:updated_at;autoUpdateTime"`
}

func (SessionModel) TableName() string { return "sessions" }

type JournalEntryModel struct {
	ID            int64  `gorm:"column:id;primaryKey"`
	UserID        int64  `gorm:"column:user_id;index"`
	Title         string `gorm:"column:title"`
	Content       string `gorm:"column:content;type:TEXT"`
	CreatedAtUnix int64  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAtUnix int64  `gorm:"column:updated_at;autoUpdateTime"`
}

func (JournalEntryModel) TableName() string { return "journal_entries" }
