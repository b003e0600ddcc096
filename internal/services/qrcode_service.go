package services

import (
	"encoding/base64"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/yoockh/nnsurvey/internal/utils"
)

type QRService interface {
	// DataURI renders content as a PNG QR code embedded in a data URI.
	DataURI(content string) (string, error)
}

type qrService struct {
	size int
}

func NewQRService(size int) QRService {
	if size <= 0 {
		size = 256
	}
	return &qrService{size: size}
}

func (s *qrService) DataURI(content string) (string, error) {
	const op = "QRService.DataURI"

	if strings.TrimSpace(content) == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "nothing to encode", nil)
	}
	png, err := qrcode.Encode(content, qrcode.Medium, s.size)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to generate QR code", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
