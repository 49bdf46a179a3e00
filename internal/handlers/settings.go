package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/haven-labs/haven-backend/internal/services"
  "github.com/haven-labs/haven-backend/internal/types"
)

type SettingsHandler struct {
  settingsService   services.SettingsService
}

func NewSettingsHandler(settingsService services.SettingsService) *SettingsHandler {
  return &SettingsHandler{settingsService: settingsService}
}

// GetSettings returns 404 when the user has no settings row yet; clients
// treat that as the first-run signal and open the onboarding wizard.
func (sh *SettingsHandler) GetSettings(c *gin.Context) {
  settings, err := sh.settingsService.Get(c.Request.Context())
  if err != nil {
    if errors.Is(err, services.ErrSettingsNotFound) {
      c.JSON(http.StatusNotFound, gin.H{"error": "settings not found"})
      return
    }
    if errors.Is(err, services.ErrUnauthorized) {
      c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
      return
    }
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
    return
  }
  c.JSON(http.StatusOK, settings)
}

func (sh *SettingsHandler) PutSettings(c *gin.Context) {
  var req types.AISettings
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  saved, err := sh.settingsService.Upsert(c.Request.Context(), req)
  if err != nil {
    if errors.Is(err, services.ErrUnauthorized) {
      c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
      return
    }
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": "settings saved", "updatedAt": saved.UpdatedAt})
}
