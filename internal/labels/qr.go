package labels

import (
	"errors"
	"fmt"

	goqr "github.com/skip2/go-qrcode"
)

// ErrEmptyPayload is returned when a QR code is requested for an empty string.
var ErrEmptyPayload = errors.New("qr payload is empty")

// qrPixelsPerModule keeps rendered PNGs crisp when scaled down on paper.
const qrPixelsPerModule = 8

// QRCode is a deterministic QR encoding of a payload.
type QRCode struct {
	payload string
	code    *goqr.QRCode
}

// EncodeQR encodes payload at medium error correction with the standard quiet zone.
func EncodeQR(payload string) (*QRCode, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	code, err := goqr.New(payload, goqr.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr %q: %w", payload, err)
	}
	return &QRCode{payload: payload, code: code}, nil
}

// Payload returns the encoded string.
func (q *QRCode) Payload() string {
	return q.payload
}

// Bitmap returns the module matrix including the quiet zone; true is dark.
func (q *QRCode) Bitmap() [][]bool {
	return q.code.Bitmap()
}

// PNG renders the code with a fixed number of pixels per module.
func (q *QRCode) PNG() ([]byte, error) {
	png, err := q.code.PNG(-qrPixelsPerModule)
	if err != nil {
		return nil, fmt.Errorf("render qr png: %w", err)
	}
	return png, nil
}
