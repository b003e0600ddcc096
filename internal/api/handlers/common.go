package handlers

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/nnsurvey/internal/services"
	"github.com/yoockh/nnsurvey/internal/utils"
)

type APIError = utils.ErrorBody

type MessageResponse struct {
	Message string `json:"message"`
}

type CreatedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// writeError keeps the cause on the gin context for the request logger and
// sends the client only the safe message.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(utils.HTTPStatus(err), APIError{
		Code:  utils.CodeOf(err),
		Error: utils.SafeMessage(err),
	})
}

// toUploads adapts multipart headers; the bytes are only read when the
// service stores them.
func toUploads(fhs []*multipart.FileHeader) []services.Upload {
	out := make([]services.Upload, 0, len(fhs))
	for _, fh := range fhs {
		ct := fh.Header.Get("Content-Type")
		if ct == "" || ct == "application/octet-stream" {
			if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename))); byExt != "" {
				ct = byExt
			}
		}
		out = append(out, services.Upload{
			OriginalName: fh.Filename,
			Size:         fh.Size,
			ContentType:  ct,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return out
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// publicBase is the configured public URL or, failing that, the scheme and
// host the request came in on.
func publicBase(c *gin.Context, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}

func attachCSV(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}
