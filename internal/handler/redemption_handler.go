package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"uniplay.tv/loyalty/internal/dto"
	"uniplay.tv/loyalty/internal/model"
	"uniplay.tv/loyalty/internal/service"
	"uniplay.tv/loyalty/pkg/response"
	"uniplay.tv/loyalty/pkg/validator"
)

type RedemptionHandler struct {
	service service.RedemptionService
}

func NewRedemptionHandler(service service.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{service: service}
}

func (h *RedemptionHandler) Redeem(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	rewardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reward id"})
		return
	}

	redemption, err := h.service.Redeem(c.Request.Context(), userID, rewardID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, redemption)
}

func (h *RedemptionHandler) GetMyRedemptions(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	redemptions, err := h.service.MyRedemptions(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": redemptions})
}

func (h *RedemptionHandler) GetAllRedemptions(c *gin.Context) {
	var filter dto.RedemptionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	redemptions, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, redemptions)
}

func (h *RedemptionHandler) ApproveRedemption(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

func (h *RedemptionHandler) RejectRedemption(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

func (h *RedemptionHandler) MarkRedemptionUsed(c *gin.Context) {
	h.transition(c, h.service.MarkUsed)
}

func (h *RedemptionHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*model.Redemption, error)) {
	redemptionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid redemption id"})
		return
	}

	redemption, err := fn(c.Request.Context(), redemptionID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, redemption)
}
