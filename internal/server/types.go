package server

import (
	"encoding/json"

	storemodel "baskt/internal/store/model"
)

type signupRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type userOut struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toUserOut(u *storemodel.UserModel) userOut {
	return userOut{ID: u.ID, FullName: u.FullName, Username: u.Username, Email: u.Email}
}

type sessionCreateRequest struct {
	Name            string  `json:"name" binding:"required"`
	Symbol          string  `json:"symbol"`
	Timeframe       string  `json:"timeframe"`
	StartDate       string  `json:"start_date" binding:"required"`
	EndDate         string  `json:"end_date" binding:"required"`
	StartingCapital float64 `json:"starting_capital" binding:"required,gt=0"`
}

type completeRequest struct {
	Result *float64 `json:"result" binding:"required"`
}

type sessionOut struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Symbol             string          `json:"symbol"`
	StartDate          string          `json:"start_date"`
	EndDate            string          `json:"end_date"`
	StartingCapital    float64         `json:"starting_capital"`
	Result             *float64        `json:"result"`
	CurrentCandleIndex int             `json:"current_candle_index"`
	CurrentBalance     float64         `json:"current_balance"`
	PositionQuantity   float64         `json:"position_quantity"`
	PositionAvgPrice   float64         `json:"position_avg_price"`
	Trades             json.RawMessage `json:"trades"`
	Timeframe          string          `json:"timeframe"`
	IsCompleted        bool            `json:"is_completed"`
	CreatedAt          int64           `json:"created_at"`
	UpdatedAt          int64           `json:"updated_at"`
}

func toSessionOut(s *storemodel.SessionModel) sessionOut {
	trades := json.RawMessage(s.TradesData)
	if len(trades) == 0 {
		trades = json.RawMessage("[]")
	}
	return sessionOut{
		ID:                 s.ID,
		Name:               s.Name,
		Symbol:             s.Symbol,
		StartDate:          s.StartDate,
		EndDate:            s.EndDate,
		StartingCapital:    s.StartingCapital,
		Result:             s.Result,
		CurrentCandleIndex: s.CurrentCandleIndex,
		CurrentBalance:     s.CurrentBalance,
		PositionQuantity:   s.PositionQuantity,
		PositionAvgPrice:   s.PositionAvgPrice,
		Trades:             trades,
		Timeframe:          s.Timeframe,
		IsCompleted:        s.IsCompleted,
		CreatedAt:          s.CreatedAtUnix,
		UpdatedAt:          s.UpdatedAtUnix,
	}
}

type journalEntryRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type journalEntryOut struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

func toJournalEntryOut(e *storemodel.JournalEntryModel) journalEntryOut {
	return journalEntryOut{
		ID:        e.ID,
		Title:     e.Title,
		Content:   e.Content,
		CreatedAt: e.CreatedAtUnix,
		UpdatedAt: e.UpdatedAtUnix,
	}
}
