package framing

import (
	"encoding/json"

	"msl/internal/crypto"
	"msl/internal/domain"
	"msl/internal/protocol/envelope"
)

// EncodeResponse frames data the way the server does: an encrypted header
// followed by one chunk per chunkSize bytes of data (one chunk if chunkSize
// <= 0), each GZIP-compressed. Fakes and tests use it to stand in for the
// remote end.
func EncodeResponse(codec *envelope.Codec, hd HeaderData, token *domain.MasterToken, data []byte, chunkSize int) ([]byte, error) {
	hb, err := json.Marshal(hd)
	if err != nil {
		return nil, err
	}
	henc, hsig, err := codec.Seal(hb)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(wireHeader{HeaderData: crypto.B64(henc), Signature: crypto.B64(hsig), MasterToken: token})
	if err != nil {
		return nil, err
	}

	if chunkSize <= 0 || chunkSize > len(data) {
		chunkSize = len(data)
	}
	var seq int64 = 1
	for off := 0; off < len(data) || seq == 1; off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		z, err := envelope.Compress(data[off:end])
		if err != nil {
			return nil, err
		}
		pb, err := json.Marshal(domain.PayloadChunk{
			MessageID:       hd.MessageID,
			Data:            z,
			CompressionAlgo: domain.CompressionGZIP,
			SequenceNumber:  seq,
			EndOfMsg:        end == len(data),
		})
		if err != nil {
			return nil, err
		}
		penc, psig, err := codec.Seal(pb)
		if err != nil {
			return nil, err
		}
		cb, err := json.Marshal(wireChunk{Payload: crypto.B64(penc), Signature: crypto.B64(psig)})
		if err != nil {
			return nil, err
		}
		out = append(out, cb...)
		seq++
		if chunkSize == 0 {
			break
		}
	}
	return out, nil
}
