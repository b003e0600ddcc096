package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/nnsurvey/internal/services"
)

type QRResponse struct {
	URL    string `json:"url"`
	QRCode string `json:"qrCode"`
}

type QRHandler struct {
	qr      services.QRService
	baseURL string
}

func NewQRHandler(qr services.QRService, baseURL string) *QRHandler {
	return &QRHandler{qr: qr, baseURL: baseURL}
}

// Form encodes the partner form's own URL.
func (h *QRHandler) Form(c *gin.Context) {
	url := publicBase(c, h.baseURL) + "/"
	uri, err := h.qr.DataURI(url)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, QRResponse{URL: url, QRCode: uri})
}
