package vision

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
)

// ParseDataURI extracts the image bytes from a base64 data URI such as
// "data:image/jpeg;base64,/9j/...". A bare base64 payload without header is accepted too.
func ParseDataURI(uri string) ([]byte, error) {
	payload := strings.TrimSpace(uri)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.IndexByte(payload, ',')
		if idx < 0 {
			return nil, fmt.Errorf("%w: data URI has no payload", apperror.ErrDecode)
		}
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: empty frame", apperror.ErrDecode)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", apperror.ErrDecode, err)
	}
	return data, nil
}

// DecodeFrame decodes raw frame bytes as JPEG, PNG or GIF and returns the detected format
func DecodeFrame(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty frame", apperror.ErrDecode)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperror.ErrDecode, err)
	}
	return img, format, nil
}
