package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/dmitrijs2005/lifecycle/internal/server/services"
	"github.com/gin-gonic/gin"
)

// CalendarScheduler is the service behind the pet calendar endpoint.
type CalendarScheduler interface {
	Schedule(ctx context.Context, ownerID, petID string, in services.CalendarInput) (*models.CalendarEntry, error)
}

type CalendarHandler struct {
	calendar CalendarScheduler
}

func NewCalendarHandler(calendar CalendarScheduler) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

type CalendarEntryRequest struct {
	ScheduledAt time.Time  `json:"scheduledAt"`
	AlarmAt     *time.Time `json:"alarmAt"`
	Text        string     `json:"text" validate:"required,max=500"`
}

type CalendarEntryResponse struct {
	ID          string     `json:"id"`
	PetID       string     `json:"petId"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	AlarmAt     *time.Time `json:"alarmAt,omitempty"`
	Text        string     `json:"text"`
}

// Register mounts the handler on a group whose path carries the pet :id.
func (h *CalendarHandler) Register(g *gin.RouterGroup) {
	g.POST("", h.Create)
}

func (h *CalendarHandler) Create(c *gin.Context) {
	var req CalendarEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
		return
	}
	if details := validateRequest(req); details != nil {
		respondWithValidationError(c, details)
		return
	}

	e, err := h.calendar.Schedule(c.Request.Context(), ownerID(c), c.Param("id"), services.CalendarInput{
		ScheduledAt: req.ScheduledAt,
		AlarmAt:     req.AlarmAt,
		Text:        req.Text,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CalendarEntryResponse{
		ID:          e.ID,
		PetID:       e.PetID,
		ScheduledAt: e.ScheduledAt,
		AlarmAt:     e.AlarmAt,
		Text:        e.Text,
	})
}
