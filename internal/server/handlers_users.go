package server

import (
	"errors"
	"net/http"

	"baskt/internal/auth"
	"baskt/internal/store/gormstore"
	storemodel "baskt/internal/store/model"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	if _, err := s.store.UserByEmail(ctx, req.Email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		return
	} else if !errors.Is(err, gormstore.ErrNotFound) {
		writeError(c, err)
		return
	}
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	user := &storemodel.UserModel{
		FullName:       req.FullName,
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashed,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserOut(user))
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := s.store.UserByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.CheckPassword(req.Password, user.HashedPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleUserDash(c *gin.Context) {
	user, err := s.store.UserByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserOut(user))
}

// handleDeleteAccount removes the account and, by explicit cascade, every
// session and journal entry it owns.
func (s *Server) handleDeleteAccount(c *gin.Context) {
	if err := s.store.DeleteUser(c.Request.Context(), currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
