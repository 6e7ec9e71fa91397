package framing

import (
	"bytes"
	"encoding/json"
	"fmt"

	"msl/internal/crypto"
	"msl/internal/domain"
	"msl/internal/protocol/envelope"
)

// Parsed is a response split into its header and payload chunk objects.
type Parsed struct {
	Header   []byte
	Payloads [][]byte
}

// ParseChunkedResponse splits raw into header and payload objects. A body
// that is one complete JSON document never reaches the scanner: it is the
// server's error report and comes back as *domain.RemoteAPIError. Anything
// the scanner rejects is domain.ErrMalformed; nothing was decrypted yet.
func ParseChunkedResponse(raw []byte) (Parsed, error) {
	trimmed := bytes.TrimSpace(raw)
	if json.Valid(trimmed) {
		return Parsed{}, RemoteError(trimmed)
	}
	objs, err := splitObjects(trimmed)
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	return Parsed{Header: objs[0], Payloads: objs[1:]}, nil
}

// errorData is the decoded errordata block of an MSL error message.
type errorData struct {
	ErrorCode    json.RawMessage `json:"errorcode"`
	InternalCode json.RawMessage `json:"internalcode"`
	ErrorMsg     string          `json:"errormsg"`
	UserMsg      string          `json:"usermsg"`
}

// RemoteError turns a plain-JSON error body into a *domain.RemoteAPIError,
// extracting code and message where the server provided them.
func RemoteError(body []byte) *domain.RemoteAPIError {
	e := &domain.RemoteAPIError{Body: append([]byte(nil), body...)}

	var top struct {
		ErrorData string          `json:"errordata"`
		Error     json.RawMessage `json:"error"`
		errorData
	}
	if err := json.Unmarshal(body, &top); err != nil {
		return e
	}
	ed := top.errorData
	if top.ErrorData != "" {
		if raw, err := crypto.UnB64(top.ErrorData); err == nil {
			_ = json.Unmarshal(raw, &ed)
		}
	} else if len(top.Error) > 0 {
		var nested struct {
			errorData
			Code    json.RawMessage `json:"code"`
			Display string          `json:"display"`
			Detail  string          `json:"detail"`
		}
		if json.Unmarshal(top.Error, &nested) == nil {
			ed = nested.errorData
			if len(ed.ErrorCode) == 0 {
				ed.ErrorCode = nested.Code
			}
			if ed.ErrorMsg == "" {
				ed.ErrorMsg = firstNonEmpty(nested.Detail, nested.Display)
			}
		} else {
			ed.ErrorMsg = string(top.Error)
		}
	}
	e.Code = unquote(ed.ErrorCode)
	e.Message = firstNonEmpty(ed.ErrorMsg, ed.UserMsg)
	return e
}

// DecryptHeader verifies and decrypts a response header. An errordata header
// is returned as a *domain.RemoteAPIError.
func DecryptHeader(codec *envelope.Codec, header []byte) (HeaderData, error) {
	var wh wireHeader
	if err := json.Unmarshal(header, &wh); err != nil {
		return HeaderData{}, fmt.Errorf("%w: header: %v", domain.ErrMalformed, err)
	}
	if wh.ErrorData != "" {
		return HeaderData{}, RemoteError(header)
	}
	plain, err := openB64(codec, wh.HeaderData, wh.Signature)
	if err != nil {
		return HeaderData{}, err
	}
	var hd HeaderData
	if err := json.Unmarshal(plain, &hd); err != nil {
		return HeaderData{}, fmt.Errorf("%w: header data: %v", domain.ErrDecryption, err)
	}
	return hd, nil
}

// DecryptPayloads verifies, decrypts and decompresses every chunk in order and
// returns the concatenated data.
func DecryptPayloads(codec *envelope.Codec, payloads [][]byte) ([]byte, error) {
	var out []byte
	for i, raw := range payloads {
		var wc wireChunk
		if err := json.Unmarshal(raw, &wc); err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", domain.ErrMalformed, i, err)
		}
		plain, err := openB64(codec, wc.Payload, wc.Signature)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		var chunk domain.PayloadChunk
		if err := json.Unmarshal(plain, &chunk); err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", domain.ErrDecryption, i, err)
		}
		data, err := envelope.Decompress(chunk.CompressionAlgo, chunk.Data)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		out = append(out, data...)
	}
	return out, nil
}

func openB64(codec *envelope.Codec, data, sig string) ([]byte, error) {
	encoded, err := crypto.UnB64(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	s, err := crypto.UnB64(sig)
	if err != nil {
		return nil, fmt.Errorf("%w: signature encoding: %v", domain.ErrIntegrity, err)
	}
	return codec.Open(encoded, s)
}

func unquote(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
