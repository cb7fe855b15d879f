package server

import (
	"io"
	"net/http"
	"time"

	"baskt/internal/market"
	"baskt/internal/replay"
	storemodel "baskt/internal/store/model"

	"github.com/gin-gonic/gin"
)

const (
	defaultSymbol      = "EUR/USD"
	defaultTimeframe   = "15min"
	defaultCandleIndex = 20
)

func (s *Server) handleCreateSession(c *gin.Context) {
	var req sessionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Symbol == "" {
		req.Symbol = defaultSymbol
	}
	if req.Timeframe == "" {
		req.Timeframe = defaultTimeframe
	}
	tf, err := market.ParseTimeframe(req.Timeframe)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
		return
	}
	if start.After(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must not be after end_date"})
		return
	}

	session := &storemodel.SessionModel{
		UserID:             currentUserID(c),
		Name:               req.Name,
		Symbol:             req.Symbol,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		StartingCapital:    req.StartingCapital,
		CurrentBalance:     req.StartingCapital,
		CurrentCandleIndex: defaultCandleIndex,
		Timeframe:          tf.Key,
	}
	if err := s.store.CreateSession(c.Request.Context(), session); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionOut(session))
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions, err := s.store.SessionsByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]sessionOut, 0, len(sessions))
	for i := range sessions {
		out = append(out, toSessionOut(&sessions[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetSession(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := s.store.SessionByIDAndUser(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionOut(session))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.DeleteSession(c.Request.Context(), id, currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleSessionData serves the session's candle sequence, tagging whether it
// came from the stored cache or a fresh provider fetch.
func (s *Server) handleSessionData(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	candles, source, err := s.replay.HistoricalData(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": candles, "source": string(source)})
}

func (s *Server) handleAdvanceState(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
		return
	}
	upd, err := replay.ParseStateUpdate(body)
	if err != nil {
		writeError(c, err)
		return
	}
	session, err := s.replay.Advance(c.Request.Context(), currentUserID(c), id, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionOut(session))
}

func (s *Server) handleCompleteSession(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := s.replay.Complete(c.Request.Context(), currentUserID(c), id, *req.Result)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionOut(session))
}
