package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/millbrook-county/civic-portal/backend/internal/models"
	"github.com/millbrook-county/civic-portal/backend/internal/polls"
)

type PollHandler struct {
	polls *polls.Service
}

func NewPollHandler(pollService *polls.Service) *PollHandler {
	return &PollHandler{polls: pollService}
}

func pollErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, polls.ErrPollNotFound):
		return http.StatusNotFound, "Poll not found"
	case errors.Is(err, polls.ErrPollClosed):
		return http.StatusConflict, "Poll is closed"
	case errors.Is(err, polls.ErrUnknownOption):
		return http.StatusBadRequest, "Option does not belong to this poll"
	case errors.Is(err, polls.ErrNotAuthenticated):
		return http.StatusUnauthorized, "User not authenticated"
	case errors.Is(err, polls.ErrAccountBanned):
		return http.StatusForbidden, "Account is banned"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// GetPolls returns all polls with derived status
func (h *PollHandler) GetPolls(c *gin.Context) {
	pollList, err := h.polls.ListPolls(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch polls"})
		return
	}

	if pollList == nil {
		pollList = []models.Poll{}
	}
	c.JSON(http.StatusOK, pollList)
}

// GetPoll returns a single poll with its options and tally
func (h *PollHandler) GetPoll(c *gin.Context) {
	pollID, ok := pathID(c, "id")
	if !ok {
		return
	}

	poll, err := h.polls.GetPoll(c.Request.Context(), pollID)
	if err != nil {
		status, msg := pollErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	results, err := h.polls.Tally(c.Request.Context(), pollID)
	if err != nil {
		status, msg := pollErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"poll":    poll,
		"results": results,
	})
}

// GetResults returns the tally for a poll
func (h *PollHandler) GetResults(c *gin.Context) {
	pollID, ok := pathID(c, "id")
	if !ok {
		return
	}

	results, err := h.polls.Tally(c.Request.Context(), pollID)
	if err != nil {
		status, msg := pollErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetOptionVoters returns who voted for an option, with the anonymity
// projection applied
func (h *PollHandler) GetOptionVoters(c *gin.Context) {
	pollID, ok := pathID(c, "id")
	if !ok {
		return
	}
	optionID, ok := pathID(c, "optionId")
	if !ok {
		return
	}

	voters, err := h.polls.ListVoters(c.Request.Context(), pollID, optionID)
	if err != nil {
		status, msg := pollErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, voters)
}

// Vote casts or replaces the caller's vote on a poll (PROTECTED)
func (h *PollHandler) Vote(c *gin.Context) {
	pollID, ok := pathID(c, "id")
	if !ok {
		return
	}

	accountID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CastVoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.polls.CastVote(c.Request.Context(), pollID, accountID, input.OptionID, input.IsAnonymous)
	if err != nil {
		status, msg := pollErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vote recorded"})
}

// GetComments returns the visible comment thread for a poll
func (h *PollHandler) GetComments(c *gin.Context) {
	pollID, ok := pathID(c, "id")
	if !ok {
		return
	}

	comments, err := h.polls.ListComments(c.Request.Context(), pollID)
	if err != nil {
		status, msg := pollErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment appends a comment to a poll (PROTECTED)
func (h *PollHandler) CreateComment(c *gin.Context) {
	pollID, ok := pathID(c, "id")
	if !ok {
		return
	}

	accountID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.polls.PostComment(c.Request.Context(), pollID, accountID, input.Content)
	if err != nil {
		status, msg := pollErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// GetSuggestions returns all suggestions, newest first
func (h *PollHandler) GetSuggestions(c *gin.Context) {
	suggestions, err := h.polls.ListSuggestions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch suggestions"})
		return
	}

	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}
	c.JSON(http.StatusOK, suggestions)
}

// CreateSuggestion appends a citizen suggestion (PROTECTED)
func (h *PollHandler) CreateSuggestion(c *gin.Context) {
	accountID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateSuggestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestion, err := h.polls.CreateSuggestion(c.Request.Context(), accountID, input)
	if err != nil {
		status, msg := pollErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, suggestion)
}
