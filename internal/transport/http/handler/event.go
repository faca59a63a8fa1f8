package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/requestid"
	"github.com/bigMackD/Glyloop-sub002/internal/usecase"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventUsecase *usecase.EventUsecase
	logger       *slog.Logger
}

func NewEventHandler(eventUsecase *usecase.EventUsecase, logger *slog.Logger) *EventHandler {
	return &EventHandler{eventUsecase: eventUsecase, logger: logger.With("component", "event_handler")}
}

type logFoodRequest struct {
	OccurredAt time.Time `json:"occurred_at" binding:"required"`
	Grams      int       `json:"grams"       binding:"required"`
	MealTagID  string    `json:"meal_tag_id" binding:"required"`
	Absorption string    `json:"absorption"  binding:"required,oneof=rapid normal slow other"`
	Note       string    `json:"note"`
}

type logInsulinRequest struct {
	OccurredAt  time.Time `json:"occurred_at" binding:"required"`
	Type        string    `json:"type"        binding:"required,oneof=fast long"`
	Units       float64   `json:"units"       binding:"required"`
	Preparation string    `json:"preparation"`
	Delivery    string    `json:"delivery"`
	Timing      string    `json:"timing"`
	Note        string    `json:"note"`
}

type logExerciseRequest struct {
	OccurredAt     time.Time `json:"occurred_at"      binding:"required"`
	ExerciseTypeID string    `json:"exercise_type_id" binding:"required"`
	Minutes        int       `json:"minutes"          binding:"required"`
	Intensity      string    `json:"intensity"        binding:"required,oneof=light moderate vigorous"`
	Note           string    `json:"note"`
}

type logNoteRequest struct {
	OccurredAt time.Time `json:"occurred_at" binding:"required"`
	Body       string    `json:"body"        binding:"required"`
}

type foodResponse struct {
	Grams      int    `json:"grams"`
	MealTagID  string `json:"meal_tag_id"`
	Absorption string `json:"absorption"`
}

type insulinResponse struct {
	Type        string  `json:"type"`
	Units       float64 `json:"units"`
	Preparation string  `json:"preparation,omitempty"`
	Delivery    string  `json:"delivery,omitempty"`
	Timing      string  `json:"timing,omitempty"`
}

type exerciseResponse struct {
	ExerciseTypeID string `json:"exercise_type_id"`
	Minutes        int    `json:"minutes"`
	Intensity      string `json:"intensity"`
}

type noteResponse struct {
	Body string `json:"body"`
}

type eventResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	Origin     string    `json:"origin"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	Food     *foodResponse     `json:"food,omitempty"`
	Insulin  *insulinResponse  `json:"insulin,omitempty"`
	Exercise *exerciseResponse `json:"exercise,omitempty"`
	NoteBody *noteResponse     `json:"note_body,omitempty"`
}

func toEventResponse(e *domain.Event) eventResponse {
	resp := eventResponse{
		ID:         e.ID().String(),
		Kind:       string(e.Kind()),
		OccurredAt: e.OccurredAt(),
		Origin:     string(e.Origin()),
		Note:       e.Note().String(),
		CreatedAt:  e.CreatedAt(),
	}
	e.Match(domain.EventMatch{
		Food: func(d domain.FoodDetails) {
			resp.Food = &foodResponse{
				Grams:      d.Carbohydrates.Grams(),
				MealTagID:  d.MealTag.String(),
				Absorption: string(d.Absorption),
			}
		},
		Insulin: func(d domain.InsulinDetails) {
			resp.Insulin = &insulinResponse{
				Type:        string(d.Type),
				Units:       d.Dose.Units(),
				Preparation: d.Preparation.String(),
				Delivery:    d.Delivery.String(),
				Timing:      d.Timing.String(),
			}
		},
		Exercise: func(d domain.ExerciseDetails) {
			resp.Exercise = &exerciseResponse{
				ExerciseTypeID: d.ExerciseType.String(),
				Minutes:        d.Duration.Minutes(),
				Intensity:      string(d.Intensity),
			}
		},
		Note: func(d domain.NoteDetails) {
			resp.NoteBody = &noteResponse{Body: d.Body.String()}
		},
	})
	return resp
}

// POST /events/food
func (h *EventHandler) LogFood(c *gin.Context) {
	var req logFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.eventUsecase.LogFood(c.Request.Context(), usecase.LogFoodInput{
		UserID:        c.GetString("userID"),
		OccurredAt:    req.OccurredAt,
		Grams:         req.Grams,
		MealTagID:     req.MealTagID,
		Absorption:    domain.AbsorptionHint(req.Absorption),
		Note:          req.Note,
		CorrelationID: requestid.FromContext(c.Request.Context()),
	})
	h.respondLogged(c, result)
}

// POST /events/insulin
func (h *EventHandler) LogInsulin(c *gin.Context) {
	var req logInsulinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.eventUsecase.LogInsulin(c.Request.Context(), usecase.LogInsulinInput{
		UserID:        c.GetString("userID"),
		OccurredAt:    req.OccurredAt,
		Type:          domain.InsulinType(req.Type),
		Units:         req.Units,
		Preparation:   req.Preparation,
		Delivery:      req.Delivery,
		Timing:        req.Timing,
		Note:          req.Note,
		CorrelationID: requestid.FromContext(c.Request.Context()),
	})
	h.respondLogged(c, result)
}

// POST /events/exercise
func (h *EventHandler) LogExercise(c *gin.Context) {
	var req logExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.eventUsecase.LogExercise(c.Request.Context(), usecase.LogExerciseInput{
		UserID:         c.GetString("userID"),
		OccurredAt:     req.OccurredAt,
		ExerciseTypeID: req.ExerciseTypeID,
		Minutes:        req.Minutes,
		Intensity:      domain.Intensity(req.Intensity),
		Note:           req.Note,
		CorrelationID:  requestid.FromContext(c.Request.Context()),
	})
	h.respondLogged(c, result)
}

// POST /events/notes
func (h *EventHandler) LogNote(c *gin.Context) {
	var req logNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.eventUsecase.LogNote(c.Request.Context(), usecase.LogNoteInput{
		UserID:        c.GetString("userID"),
		OccurredAt:    req.OccurredAt,
		Body:          req.Body,
		CorrelationID: requestid.FromContext(c.Request.Context()),
	})
	h.respondLogged(c, result)
}

func (h *EventHandler) respondLogged(c *gin.Context, result domain.Result[*domain.Event]) {
	if result.IsFailure() {
		if result.Err().Code == domain.CodeExternal {
			h.logger.ErrorContext(c.Request.Context(), "log event", "error", result.Err().Message)
		}
		writeDomainError(c, result.Err())
		return
	}
	c.JSON(http.StatusCreated, toEventResponse(result.Value()))
}

// GET /events/:id
func (h *EventHandler) GetByID(c *gin.Context) {
	result := h.eventUsecase.GetByID(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if result.IsFailure() {
		if result.Err().Code == domain.CodeExternal {
			h.logger.ErrorContext(c.Request.Context(), "get event", "event_id", c.Param("id"), "error", result.Err().Message)
		}
		writeDomainError(c, result.Err())
		return
	}
	c.JSON(http.StatusOK, toEventResponse(result.Value()))
}

// GET /events?kind=&from=&to=&limit=
func (h *EventHandler) List(c *gin.Context) {
	input := usecase.ListEventsInput{
		UserID: c.GetString("userID"),
		Kind:   domain.EventKind(c.Query("kind")),
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
		input.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
		input.To = &t
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		input.Limit = n
	}

	result := h.eventUsecase.ListByUser(c.Request.Context(), input)
	if result.IsFailure() {
		if result.Err().Code == domain.CodeExternal {
			h.logger.ErrorContext(c.Request.Context(), "list events", "error", result.Err().Message)
		}
		writeDomainError(c, result.Err())
		return
	}

	events := result.Value()
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}
