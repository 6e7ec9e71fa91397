package framing

import (
	"bytes"
	"encoding/json"
	"fmt"

	"msl/internal/crypto"
	"msl/internal/domain"
)

var xmlPrefix = []byte("<?xml")

// Result is the decoded body of a response: either raw XML or a JSON value.
type Result struct {
	XML  []byte
	JSON json.RawMessage
}

// IsXML reports whether the body was XML and is carried untouched.
func (r Result) IsXML() bool { return r.XML != nil }

// UnwrapResult interprets the joined payload plaintext. XML passes through.
// JSON is unwrapped from its "result" member, or from the older
// [{}, {"payload": {...}}] envelope via payload.json.result or the base64
// payload.data. A JSON body carrying "error" and no result is a
// *domain.RemoteAPIError; an undecodable one is domain.ErrMalformed.
func UnwrapResult(plain []byte) (Result, error) {
	trimmed := bytes.TrimSpace(plain)
	if bytes.HasPrefix(trimmed, xmlPrefix) {
		return Result{XML: plain}, nil
	}

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			Result json.RawMessage `json:"result"`
			Error  json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return Result{}, fmt.Errorf("%w: payload json: %v", domain.ErrMalformed, err)
		}
		switch {
		case len(obj.Result) > 0:
			return Result{JSON: obj.Result}, nil
		case len(obj.Error) > 0:
			return Result{}, RemoteError(trimmed)
		default:
			return Result{JSON: json.RawMessage(trimmed)}, nil
		}
	}

	var legacy []struct {
		Payload struct {
			Data string `json:"data"`
			JSON *struct {
				Result json.RawMessage `json:"result"`
			} `json:"json"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(trimmed, &legacy); err != nil {
		return Result{}, fmt.Errorf("%w: payload json: %v", domain.ErrMalformed, err)
	}
	if len(legacy) < 2 {
		return Result{JSON: json.RawMessage(trimmed)}, nil
	}
	p := legacy[1].Payload
	if p.JSON != nil {
		return Result{JSON: p.JSON.Result}, nil
	}
	raw, err := crypto.UnB64(p.Data)
	if err != nil {
		return Result{}, fmt.Errorf("%w: payload data: %v", domain.ErrMalformed, err)
	}
	if !json.Valid(raw) {
		return Result{}, fmt.Errorf("%w: payload data is not json", domain.ErrMalformed)
	}
	return Result{JSON: raw}, nil
}
