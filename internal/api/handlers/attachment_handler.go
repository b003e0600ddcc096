package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/nnsurvey/internal/storage"
	"github.com/yoockh/nnsurvey/internal/utils"
)

// AttachmentHandler serves /uploads/:name for stores that are not a local
// directory. Public objects are redirected to, the rest are streamed.
type AttachmentHandler struct {
	links storage.Linker
	files storage.Opener
}

// Either argument may be nil.
func NewAttachmentHandler(links storage.Linker, files storage.Opener) *AttachmentHandler {
	return &AttachmentHandler{links: links, files: files}
}

func (h *AttachmentHandler) Serve(c *gin.Context) {
	const op = "AttachmentHandler.Serve"

	name := c.Param("name")
	if name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") {
		writeError(c, utils.E(utils.CodeNotFound, op, "file not found", nil))
		return
	}

	if h.links != nil {
		if u := h.links.PublicURL(name); u != "" {
			c.Redirect(http.StatusFound, u)
			return
		}
	}
	if h.files == nil {
		writeError(c, utils.E(utils.CodeNotFound, op, "file not found", nil))
		return
	}

	obj, err := h.files.Open(c.Request.Context(), name)
	if errors.Is(err, storage.ErrNotExist) {
		writeError(c, utils.E(utils.CodeNotFound, op, "file not found", err))
		return
	}
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read file", err))
		return
	}
	defer obj.Body.Close()

	ct := obj.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, obj.Size, ct, obj.Body, nil)
}
