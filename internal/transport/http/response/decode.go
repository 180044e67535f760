package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

const maxBodyBytes = 1 << 20

// DecodeJSON decodes a single JSON object into dst, rejecting unknown fields
// and trailing values.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return domain.ErrInvalidJSON(err)
	}

	if err := dec.Decode(&struct{}{}); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.ErrInvalidJSON(err)
	}
	return domain.ErrInvalidJSON(errors.New("multiple JSON values"))
}
