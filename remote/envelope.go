// ABOUTME: Wire envelope shared by the hosted record API client and server
// ABOUTME: Decodes responses once into typed records and batch outcomes

package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harperreed/dealdeck/recordstore"
)

// Error codes carried in failed envelopes.
const (
	CodeUnknownTable = "UNKNOWN_TABLE"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
)

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Code    string                `json:"code,omitempty"`
	Data    json.RawMessage       `json:"data,omitempty"`
	Results []recordstore.Outcome `json:"results,omitempty"`
}

type recordsBody struct {
	Records []recordstore.Record `json:"records"`
}

type idsBody struct {
	RecordIDs []int64 `json:"recordIds"`
}

// APIError is a failed envelope or a non-2xx response without one.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("record api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("record api %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case recordstore.ErrRecordNotFound:
		return e.Code == recordstore.CodeNotFound
	case recordstore.ErrUnknownTable:
		return e.Code == CodeUnknownTable
	case recordstore.ErrInvalidRecord:
		return e.Code == recordstore.CodeInvalid
	}
	return false
}

var errMalformed = errors.New("malformed response")

func decodeEnvelope(status int, body []byte) (*envelope, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		if status >= 300 {
			return nil, &APIError{Status: status, Message: string(bytes.TrimSpace(body))}
		}
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if !env.Success || status >= 300 {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return nil, &APIError{Status: status, Code: env.Code, Message: msg}
	}
	return &env, nil
}

func (e *envelope) records() ([]recordstore.Record, error) {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return []recordstore.Record{}, nil
	}
	var out []recordstore.Record
	dec := json.NewDecoder(bytes.NewReader(e.Data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: data is not a record list: %v", errMalformed, err)
	}
	return out, nil
}

func (e *envelope) record() (recordstore.Record, error) {
	var out recordstore.Record
	dec := json.NewDecoder(bytes.NewReader(e.Data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil || out == nil {
		return nil, fmt.Errorf("%w: data is not a record", errMalformed)
	}
	return out, nil
}

// batch normalizes per-item results. Failures always carry a code, and
// successes on writes that return data must include it.
func (e *envelope) batch(expected int, wantData bool) (recordstore.BatchResult, error) {
	if len(e.Results) != expected {
		return recordstore.BatchResult{}, fmt.Errorf("%w: %d results for %d items", errMalformed, len(e.Results), expected)
	}
	result := recordstore.BatchResult{Outcomes: make([]recordstore.Outcome, len(e.Results))}
	for i, o := range e.Results {
		switch {
		case !o.Success:
			if o.Code == "" {
				o.Code = recordstore.CodeFailed
			}
			o.Record = nil
		case wantData && o.Record == nil:
			o = recordstore.Failed(recordstore.CodeInvalid, "result missing data")
		}
		result.Outcomes[i] = o
	}
	return result, nil
}
