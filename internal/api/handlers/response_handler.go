package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/nnsurvey/internal/services"
	"github.com/yoockh/nnsurvey/internal/utils"
)

const fileFieldPrefix = "files_"

type ResponseHandler struct {
	svc     services.ResponseService
	surveys services.SurveyService
	export  *services.Exporter
}

func NewResponseHandler(svc services.ResponseService, surveys services.SurveyService, export *services.Exporter) *ResponseHandler {
	return &ResponseHandler{svc: svc, surveys: surveys, export: export}
}

// Submit takes "answers" as a form field (or a JSON body with an "answers"
// member) and files under files_<questionIndex>.
func (h *ResponseHandler) Submit(c *gin.Context) {
	const op = "ResponseHandler.Submit"

	var (
		answers string
		uploads map[int][]services.Upload
	)
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid multipart body", err))
			return
		}
		if v := form.Value["answers"]; len(v) > 0 {
			answers = v[0]
		}
		uploads = make(map[int][]services.Upload)
		for field, fhs := range form.File {
			rest, ok := strings.CutPrefix(field, fileFieldPrefix)
			if !ok {
				continue
			}
			i, err := strconv.Atoi(rest)
			if err != nil || i < 0 {
				writeError(c, utils.E(utils.CodeInvalidArgument, op, "unexpected file field "+field, err))
				return
			}
			uploads[i] = append(uploads[i], toUploads(fhs)...)
		}
	} else {
		var body struct {
			Answers json.RawMessage `json:"answers"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid JSON body", err))
			return
		}
		answers = string(body.Answers)
	}

	row, err := h.svc.Submit(c.Request.Context(), c.Param("id"), answers, uploads)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedResponse{ID: row.ID, Message: "Response received"})
}

func (h *ResponseHandler) List(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ResponseHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), c.Param("responseId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Response deleted"})
}

func (h *ResponseHandler) Export(c *gin.Context) {
	const op = "ResponseHandler.Export"

	ctx := c.Request.Context()
	sv, err := h.surveys.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	rows, err := h.svc.List(ctx, sv.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.export.Responses(&buf, sv, rows); err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to export responses", err))
		return
	}
	attachCSV(c, sv.Title+"_responses.csv", buf.Bytes())
}
