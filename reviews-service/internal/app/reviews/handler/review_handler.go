package handler

import (
	"net/http"

	"tastyreply/reviews-service/internal/app/reviews/entity"
	"tastyreply/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ReviewHandler struct {
	reviewService service.ReviewServiceInterface
	syncService   service.SyncServiceInterface
	validator     *validator.Validate
}

func NewReviewHandler(reviewService service.ReviewServiceInterface, syncService service.SyncServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		syncService:   syncService,
		validator:     validator.New(),
	}
}

func (h *ReviewHandler) ListReviews(c *gin.Context) {
	userID, _, ok := userFromContext(c)
	if !ok {
		return
	}

	reviews, source, err := h.reviewService.ListReviews(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to fetch reviews")
		return
	}

	response := entity.ReviewListResponse{
		Success: true,
		Data:    reviews,
		Total:   len(reviews),
		Source:  source,
	}
	if source == service.SourceDemo {
		response.Message = service.DemoMessage
	}

	c.JSON(http.StatusOK, response)
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	userID, _, ok := userFromContext(c)
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch review")
		return
	}

	respondData(c, http.StatusOK, review)
}

func (h *ReviewHandler) ImportReviews(c *gin.Context) {
	userID, _, ok := userFromContext(c)
	if !ok {
		return
	}

	var req entity.ImportReviewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		abortWithError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	result, err := h.reviewService.IngestReviews(c.Request.Context(), userID, req.Reviews)
	if err != nil {
		respondError(c, err, "Failed to import reviews")
		return
	}

	respondData(c, http.StatusOK, result)
}

func (h *ReviewHandler) PostReply(c *gin.Context) {
	userID, name, ok := userFromContext(c)
	if !ok {
		return
	}

	var req entity.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		abortWithError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	review, err := h.reviewService.AttachReply(c.Request.Context(), userID, name, c.Param("id"), req.Reply)
	if err != nil {
		respondError(c, err, "Failed to post reply")
		return
	}

	respondMessage(c, http.StatusOK, "Reply posted successfully", review)
}

func (h *ReviewHandler) SyncGoogle(c *gin.Context) {
	userID, _, ok := userFromContext(c)
	if !ok {
		return
	}

	result, err := h.syncService.SyncUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to sync reviews")
		return
	}

	respondMessage(c, http.StatusOK, "Sync completed", result)
}

func (h *ReviewHandler) Analytics(c *gin.Context) {
	userID, _, ok := userFromContext(c)
	if !ok {
		return
	}

	analytics, err := h.reviewService.Analytics(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to fetch analytics")
		return
	}

	respondData(c, http.StatusOK, analytics)
}
