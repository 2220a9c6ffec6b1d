package authority

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload is returned when a response body cannot be decoded
// into the expected shape.
var ErrMalformedPayload = errors.New("authority: malformed payload")

type seatListWrapper struct {
	EventID *int64       `json:"eventoId"`
	Seats   []RemoteSeat `json:"asientos"`
}

// decodeSeatList accepts either a bare JSON array of seats or the wrapped
// form {"eventoId": .., "asientos": [..]}.  An empty body or JSON null
// decodes to an empty list.
func decodeSeatList(body []byte) ([]RemoteSeat, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var seats []RemoteSeat
		if err := json.Unmarshal(trimmed, &seats); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return seats, nil
	case '{':
		var w seatListWrapper
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return w.Seats, nil
	}
	return nil, fmt.Errorf("%w: unexpected leading byte %q", ErrMalformedPayload, trimmed[0])
}

// decodeObject decodes a JSON object into v.  found is false when the body
// is empty or null.
func decodeObject(body []byte, v any) (found bool, err error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return true, nil
}
