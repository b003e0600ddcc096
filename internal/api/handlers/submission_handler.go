package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/nnsurvey/internal/models"
	"github.com/yoockh/nnsurvey/internal/services"
	"github.com/yoockh/nnsurvey/internal/utils"
)

type SubmissionHandler struct {
	svc    services.SubmissionService
	export *services.Exporter
}

func NewSubmissionHandler(svc services.SubmissionService, export *services.Exporter) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, export: export}
}

// Create accepts the partner form as multipart (attachments under "files")
// or as plain JSON without attachments.
func (h *SubmissionHandler) Create(c *gin.Context) {
	const op = "SubmissionHandler.Create"

	var in models.SubmissionInput
	if err := c.ShouldBind(&in); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid form data", err))
		return
	}

	var uploads []services.Upload
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid multipart body", err))
			return
		}
		uploads = toUploads(form.File["files"])
	}

	sub, err := h.svc.Create(c.Request.Context(), in, uploads)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedResponse{ID: sub.ID, Message: "Submission received"})
}

func (h *SubmissionHandler) List(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *SubmissionHandler) Get(c *gin.Context) {
	out, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *SubmissionHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Submission deleted"})
}

func (h *SubmissionHandler) Export(c *gin.Context) {
	const op = "SubmissionHandler.Export"

	out, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.export.Submissions(&buf, out); err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to export submissions", err))
		return
	}
	attachCSV(c, "submissions_"+time.Now().Format("20060102")+".csv", buf.Bytes())
}
