package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tafsiri/tafsiri/internal/models"
)

// listConfigs handles GET /get_configs
func (s *Server) listConfigs(c *gin.Context) {
	configs, err := s.store.ListConfigs(c.Request.Context())
	if err != nil {
		s.failure(c, err)
		return
	}
	if configs == nil {
		configs = []models.Configuration{}
	}

	c.JSON(http.StatusOK, configs)
}

// createConfig handles POST /new_config
func (s *Server) createConfig(c *gin.Context) {
	cfg, ok := s.bindConfiguration(c, models.ModeCreate)
	if !ok {
		return
	}

	created, err := s.store.CreateConfig(c.Request.Context(), cfg)
	if err != nil {
		s.failure(c, err)
		return
	}

	c.JSON(http.StatusOK, created)
}

// getConfig handles GET /get_config/:config_id
func (s *Server) getConfig(c *gin.Context) {
	cfg, err := s.store.GetConfig(c.Request.Context(), c.Param("config_id"))
	if err != nil {
		s.failure(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// updateConfig handles PUT /update_config/:config_id
func (s *Server) updateConfig(c *gin.Context) {
	fields, ok := s.bindConfiguration(c, models.ModeUpdate)
	if !ok {
		return
	}

	updated, err := s.store.UpdateConfig(c.Request.Context(), c.Param("config_id"), fields)
	if err != nil {
		s.failure(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// deleteConfig handles DELETE /delete_config/:config_id
func (s *Server) deleteConfig(c *gin.Context) {
	if err := s.store.DeleteConfig(c.Request.Context(), c.Param("config_id")); err != nil {
		s.failure(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "Config deleted successfully"})
}

// bindConfiguration decodes the request body against the configuration
// schema, keeping only the fields the client sent
func (s *Server) bindConfiguration(c *gin.Context, mode models.DecodeMode) (models.Configuration, bool) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		s.errorResponse(c, http.StatusBadRequest, models.KindInvalidPayload, "Invalid request: "+err.Error())
		return nil, false
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	cfg, err := s.schema.Decode(raw, mode)
	if err != nil {
		s.failure(c, err)
		return nil, false
	}
	return cfg, true
}
