package manifest

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/google/uuid"

	"msl/internal/domain"
)

// WidevineSchemeURI identifies the Widevine ContentProtection element.
const WidevineSchemeURI = "urn:uuid:EDEF8BA9-79D6-4ACE-A3C8-27DCD51D21ED"

var widevineSystemID = []byte{
	0xed, 0xef, 0x8b, 0xa9, 0x79, 0xd6, 0x4a, 0xce,
	0xa3, 0xc8, 0x27, 0xdc, 0xd5, 0x1d, 0x21, 0xed,
}

// decodePSSH parses a base64 PSSH box and checks that it targets Widevine.
func decodePSSH(b64 string) (*mp4.PsshBox, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("pssh encoding: %w", err)
	}
	box, err := mp4.DecodeBox(0, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("pssh box: %w", err)
	}
	pssh, ok := box.(*mp4.PsshBox)
	if !ok {
		return nil, fmt.Errorf("pssh box: got %q", box.Type())
	}
	if !bytes.Equal(pssh.SystemID, widevineSystemID) {
		return nil, fmt.Errorf("pssh system id %s is not widevine", hex.EncodeToString(pssh.SystemID))
	}
	return pssh, nil
}

// keyIDFromBase64 renders a raw 16-byte key id in UUID form.
func keyIDFromBase64(b64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("key id encoding: %w", err)
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return "", fmt.Errorf("key id: %w", err)
	}
	return id.String(), nil
}

func protection(h *sourceDRMHeader) (cp domain.ContentProtection, err error) {
	if h == nil {
		return cp, nil
	}
	if h.KeyID != "" {
		if cp.DefaultKID, err = keyIDFromBase64(h.KeyID); err != nil {
			return cp, err
		}
	}
	if h.Bytes == "" {
		return cp, nil
	}
	box, err := decodePSSH(h.Bytes)
	if err != nil {
		return cp, err
	}
	cp.PSSH = h.Bytes
	if cp.DefaultKID == "" && len(box.KIDs) > 0 {
		id, err := uuid.FromBytes(box.KIDs[0])
		if err != nil {
			return cp, fmt.Errorf("pssh kid: %w", err)
		}
		cp.DefaultKID = id.String()
	}
	return cp, nil
}
