package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/nnsurvey/internal/models"
	"github.com/yoockh/nnsurvey/internal/services"
	"github.com/yoockh/nnsurvey/internal/utils"
)

type SurveyHandler struct {
	svc     services.SurveyService
	qr      services.QRService
	baseURL string
}

func NewSurveyHandler(svc services.SurveyService, qr services.QRService, baseURL string) *SurveyHandler {
	return &SurveyHandler{svc: svc, qr: qr, baseURL: baseURL}
}

type statusRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *SurveyHandler) Create(c *gin.Context) {
	const op = "SurveyHandler.Create"

	var in models.SurveyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid JSON body", err))
		return
	}
	sv, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sv)
}

func (h *SurveyHandler) List(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *SurveyHandler) Get(c *gin.Context) {
	sv, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sv)
}

func (h *SurveyHandler) UpdateStatus(c *gin.Context) {
	const op = "SurveyHandler.UpdateStatus"

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "is_active is required", err))
		return
	}
	if err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), *req.IsActive); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Survey status updated"})
}

func (h *SurveyHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Survey deleted"})
}

// QRCode encodes the public page of one survey.
func (h *SurveyHandler) QRCode(c *gin.Context) {
	sv, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	url := publicBase(c, h.baseURL) + "/survey/" + sv.ID
	uri, err := h.qr.DataURI(url)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, QRResponse{URL: url, QRCode: uri})
}
