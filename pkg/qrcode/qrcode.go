package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent             = errors.New("content cannot be empty")
	ErrorFailedToGenerateQRCode = errors.New("failed to generate QR code")
)

// DefaultSize is used when a non-positive size is requested.
const DefaultSize = 256

const dataURIPrefix = "data:image/png;base64,"

// Level is the error-correction level of the rendered code.
type Level = skipqrcode.RecoveryLevel

const (
	Low     Level = skipqrcode.Low
	Medium  Level = skipqrcode.Medium
	High    Level = skipqrcode.High
	Highest Level = skipqrcode.Highest
)

// Renderer produces PNG QR images.
type Renderer struct {
	Size  int
	Level Level
}

// Default renders 256px images with medium error correction.
var Default = Renderer{Size: DefaultSize, Level: Medium}

// PNG encodes content as a PNG image.
func (r Renderer) PNG(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	size := r.Size
	if size <= 0 {
		size = DefaultSize
	}
	png, err := skipqrcode.Encode(content, r.Level, size)
	if err != nil {
		return nil, errors.Join(ErrorFailedToGenerateQRCode, err)
	}
	return png, nil
}

// DataURI encodes content as a base64 PNG data URI usable as an <img> src.
func (r Renderer) DataURI(content string) (string, error) {
	png, err := r.PNG(content)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// Generate renders content with the default renderer at the given size.
func Generate(content string, size int) ([]byte, error) {
	return Renderer{Size: size, Level: Medium}.PNG(content)
}

// GenerateBase64Image is Generate returned as a data URI.
func GenerateBase64Image(content string, size int) (string, error) {
	return Renderer{Size: size, Level: Medium}.DataURI(content)
}
