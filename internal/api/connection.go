package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tafsiri/tafsiri/internal/models"
)

// testDBConnection handles POST /test_db_connection
func (s *Server) testDBConnection(c *gin.Context) {
	var req models.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, models.KindInvalidPayload, "Invalid request: "+err.Error())
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.errorResponse(c, http.StatusTooManyRequests, models.KindRateLimited, "Too many connection tests, try again later")
		return
	}

	if err := s.tester.Test(c.Request.Context(), req); err != nil {
		s.failure(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "Database connection successful"})
}
