package server

import (
	"net/http"

	storemodel "baskt/internal/store/model"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleCreateEntry(c *gin.Context) {
	var req journalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry := &storemodel.JournalEntryModel{
		UserID:  currentUserID(c),
		Title:   req.Title,
		Content: req.Content,
	}
	if err := s.store.CreateEntry(c.Request.Context(), entry); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toJournalEntryOut(entry))
}

func (s *Server) handleListEntries(c *gin.Context) {
	entries, err := s.store.EntriesByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]journalEntryOut, 0, len(entries))
	for i := range entries {
		out = append(out, toJournalEntryOut(&entries[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetEntry(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := s.store.EntryByIDAndUser(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJournalEntryOut(entry))
}

func (s *Server) handleUpdateEntry(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var req journalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := currentUserID(c)
	if err := s.store.UpdateEntry(c.Request.Context(), id, userID, req.Title, req.Content); err != nil {
		writeError(c, err)
		return
	}
	entry, err := s.store.EntryByIDAndUser(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJournalEntryOut(entry))
}

func (s *Server) handleDeleteEntry(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.DeleteEntry(c.Request.Context(), id, currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
