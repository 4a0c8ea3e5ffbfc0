package handler

import (
	"net/http"

	"tastyreply/reviews-service/internal/app/reviews/entity"
	"tastyreply/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// AIHandler - генерация вариантов ответа
type AIHandler struct {
	generationService service.GenerationServiceInterface
	validator         *validator.Validate
}

func NewAIHandler(generationService service.GenerationServiceInterface) *AIHandler {
	return &AIHandler{
		generationService: generationService,
		validator:         validator.New(),
	}
}

// GenerateReply - генерация по тексту из запроса.
// allTones=true возвращает все четыре тона, иначе один ответ.
func (h *AIHandler) GenerateReply(c *gin.Context) {
	if _, _, ok := userFromContext(c); !ok {
		return
	}

	var req entity.GenerateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		abortWithError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	candidates, err := h.generationService.GenerateAdHoc(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to generate reply")
		return
	}

	if req.AllTones {
		c.JSON(http.StatusOK, entity.RepliesResponse{Success: true, Replies: candidates})
		return
	}

	first := candidates[0]
	respondData(c, http.StatusOK, entity.GeneratedReply{
		Reply:       first.Text,
		Tone:        first.Tone,
		Source:      first.Source,
		GeneratedAt: first.GeneratedAt,
	})
}

func (h *AIHandler) GenerateForReview(c *gin.Context) {
	userID, _, ok := userFromContext(c)
	if !ok {
		return
	}

	// Тело необязательно
	var req entity.GenerateForReviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			abortWithError(c, http.StatusBadRequest, formatValidationError(err))
			return
		}
	}

	session, err := h.generationService.GenerateForReview(c.Request.Context(), userID, c.Param("reviewId"), req.BusinessInfo)
	if err != nil {
		respondError(c, err, "Failed to generate reply")
		return
	}

	c.JSON(http.StatusOK, entity.RepliesResponse{
		Success:   true,
		Replies:   session.GeneratedReplies,
		AIReplyID: session.ID.Hex(),
	})
}

func (h *AIHandler) SaveReply(c *gin.Context) {
	userID, _, ok := userFromContext(c)
	if !ok {
		return
	}

	var req entity.SaveReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		abortWithError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	session, err := h.generationService.SaveSelection(c.Request.Context(), userID, c.Param("sessionId"), &req)
	if err != nil {
		respondError(c, err, "Failed to save reply")
		return
	}

	respondMessage(c, http.StatusOK, "Reply saved successfully", session)
}
