package types

import "net/http"

// Compression algorithms a PayloadChunk may declare.
const (
	CompressionNone = "NONE"
	CompressionGZIP = "GZIP"
)

// Envelope is one encrypted unit of wire data. Byte fields marshal as
// standard base64. The signature travels beside the envelope, not inside it.
type Envelope struct {
	Ciphertext []byte `json:"ciphertext"`
	KeyID      string `json:"keyid"`
	SHA256     string `json:"sha256"`
	IV         []byte `json:"iv"`
}

// PayloadChunk is one fragment of a possibly multi-chunk message body.
type PayloadChunk struct {
	MessageID       int64  `json:"messageid"`
	Data            []byte `json:"data"`
	CompressionAlgo string `json:"compressionalgo,omitempty"`
	SequenceNumber  int64  `json:"sequencenumber"`
	EndOfMsg        bool   `json:"endofmsg"`
}

// Response is what a Transport hands back: status, raw body and headers.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}
