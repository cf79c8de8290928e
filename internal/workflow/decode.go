package workflow

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

const DefaultMaxBytes int64 = 10 * 1024 * 1024

// File is a user-selected photo. Open is called at most once, and only after
// the declared type and size pass validation.
type File struct {
	Name     string
	MIMEType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// validate checks the declared size, then the declared type. It never opens
// the file.
func validate(f File, maxBytes int64) error {
	if f.Size > maxBytes {
		return fmt.Errorf("%w: the maximum size is %dMB", ErrTooLarge, maxBytes/(1024*1024))
	}
	if !strings.HasPrefix(f.MIMEType, "image/") {
		return ErrNotImage
	}
	return nil
}

// readFile loads the whole file. A body longer than maxBytes is rejected even
// when the declared size was smaller.
func readFile(f File, maxBytes int64) ([]byte, error) {
	if f.Open == nil {
		return nil, ErrUnreadable
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: the maximum size is %dMB", ErrTooLarge, maxBytes/(1024*1024))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrUnreadable)
	}
	return data, nil
}

// DataURL encodes an image as an RFC 2397 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
