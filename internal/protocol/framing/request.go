package framing

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"msl/internal/crypto"
	"msl/internal/domain"
	"msl/internal/protocol/envelope"
)

// Message is a framed request ready for the transport.
type Message struct {
	Body      []byte
	MessageID int64
}

// Framer builds requests on behalf of one device identity.
type Framer struct {
	ESN       string
	Languages []string
	now       func() time.Time
}

// New returns a Framer for esn advertising languages.
func New(esn string, languages []string) *Framer {
	if len(languages) == 0 {
		languages = []string{"en-US"}
	}
	return &Framer{ESN: esn, Languages: languages, now: time.Now}
}

// WithClock replaces the header timestamp source.
func (f *Framer) WithClock(now func() time.Time) *Framer {
	f.now = now
	return f
}

func (f *Framer) header(handshake bool, algos []string) (HeaderData, error) {
	id, err := crypto.MessageID()
	if err != nil {
		return HeaderData{}, err
	}
	if algos == nil {
		algos = []string{}
	}
	return HeaderData{
		Sender:        f.ESN,
		Handshake:     handshake,
		NonReplayable: false,
		Capabilities: &Capabilities{
			Languages:        f.Languages,
			CompressionAlgos: algos,
			EncoderFormats:   []string{EncoderFormatJSON},
		},
		MessageID: id,
		Timestamp: f.now().Unix(),
	}, nil
}

// BuildHandshake frames a key request for kp. Nothing is encrypted: no
// session keys exist yet.
func (f *Framer) BuildHandshake(kp domain.KeyPair) (Message, error) {
	h, err := f.header(true, nil)
	if err != nil {
		return Message{}, err
	}
	der, err := crypto.PublicDER(kp.Public())
	if err != nil {
		return Message{}, err
	}
	var kr KeyRequestData
	kr.Scheme = KeyExchangeWrapped
	kr.KeyData.PublicKey = crypto.B64(der)
	kr.KeyData.Mechanism = KeyMechanismJWKRSA
	kr.KeyData.KeyPairID = KeyPairID
	h.KeyRequestData = []KeyRequestData{kr}
	h.Renewable = true

	hb, err := json.Marshal(h)
	if err != nil {
		return Message{}, err
	}
	msg := handshakeMessage{HeaderData: crypto.B64(hb), Signature: ""}
	msg.EntityAuthData.Scheme = EntityAuthNone
	msg.EntityAuthData.AuthData.Identity = f.ESN

	b, err := json.Marshal(msg)
	if err != nil {
		return Message{}, err
	}
	return Message{Body: b, MessageID: h.MessageID}, nil
}

// BuildRequest frames body under the keys and tokens in st. creds is only
// consulted when st holds no user id token and may be nil.
func (f *Framer) BuildRequest(st domain.SessionState, creds *domain.Credentials, body []byte) (Message, error) {
	seq, err := st.MasterToken.Decode()
	if err != nil {
		return Message{}, fmt.Errorf("%w: master token: %v", domain.ErrNoSession, err)
	}
	codec := envelope.New(st.Keys, envelope.KeyID(f.ESN, seq.SequenceNumber))

	h, err := f.header(false, []string{domain.CompressionGZIP})
	if err != nil {
		return Message{}, err
	}
	applyUserAuth(&h, st, creds)

	hb, err := json.Marshal(h)
	if err != nil {
		return Message{}, err
	}
	henc, hsig, err := codec.Seal(hb)
	if err != nil {
		return Message{}, err
	}
	token := st.MasterToken
	header, err := json.Marshal(wireHeader{
		HeaderData:  crypto.B64(henc),
		Signature:   crypto.B64(hsig),
		MasterToken: &token,
	})
	if err != nil {
		return Message{}, err
	}

	z, err := envelope.Compress(body)
	if err != nil {
		return Message{}, err
	}
	pb, err := json.Marshal(domain.PayloadChunk{
		MessageID:       h.MessageID,
		Data:            z,
		CompressionAlgo: domain.CompressionGZIP,
		SequenceNumber:  1,
		EndOfMsg:        true,
	})
	if err != nil {
		return Message{}, err
	}
	penc, psig, err := codec.Seal(pb)
	if err != nil {
		return Message{}, err
	}
	chunk, err := json.Marshal(wireChunk{Payload: crypto.B64(penc), Signature: crypto.B64(psig)})
	if err != nil {
		return Message{}, err
	}

	out := make([]byte, 0, len(header)+len(chunk))
	out = append(append(out, header...), chunk...)
	return Message{Body: out, MessageID: h.MessageID}, nil
}

// applyUserAuth picks, in order: user id token (with service tokens), netflix
// ids, email/password.
func applyUserAuth(h *HeaderData, st domain.SessionState, creds *domain.Credentials) {
	switch {
	case len(st.UserIDToken) > 0:
		h.UserIDToken = st.UserIDToken
		names := make([]string, 0, len(st.ServiceTokens))
		for name := range st.ServiceTokens {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			h.ServiceTokens = append(h.ServiceTokens, st.ServiceTokens[name])
		}
	case creds != nil && creds.HasNetflixID():
		h.UserAuthData = &UserAuthData{
			Scheme: UserAuthNetflixID,
			AuthData: map[string]string{
				"netflixid":       creds.NetflixID,
				"securenetflixid": creds.SecureNetflixID,
			},
		}
		h.Renewable = true
	case creds != nil && creds.Email != "":
		h.UserAuthData = &UserAuthData{
			Scheme: UserAuthEmailPassword,
			AuthData: map[string]string{
				"email":    creds.Email,
				"password": creds.Password,
			},
		}
		h.Renewable = true
	}
}
