package playback

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"msl/internal/domain"
	"msl/internal/protocol/framing"
)

// serviceTokenName reads the name inside a service token's tokendata.
func serviceTokenName(raw json.RawMessage) (string, bool) {
	var tok struct {
		TokenData string `json:"tokendata"`
	}
	if json.Unmarshal(raw, &tok) != nil || tok.TokenData == "" {
		return "", false
	}
	b, err := base64.StdEncoding.DecodeString(tok.TokenData)
	if err != nil {
		return "", false
	}
	var data struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(b, &data) != nil || data.Name == "" {
		return "", false
	}
	return data.Name, true
}

// mergeHeader folds tokens from a response header into st and reports
// whether anything changed.
func mergeHeader(st *domain.SessionState, hd framing.HeaderData) bool {
	changed := false
	if len(hd.UserIDToken) > 0 && string(hd.UserIDToken) != string(st.UserIDToken) {
		st.UserIDToken = append(json.RawMessage(nil), hd.UserIDToken...)
		changed = true
	}
	for _, raw := range hd.ServiceTokens {
		name, ok := serviceTokenName(raw)
		if !ok {
			log.Debug("playback: service token without name ignored")
			continue
		}
		if string(st.ServiceTokens[name]) == string(raw) {
			continue
		}
		if st.ServiceTokens == nil {
			st.ServiceTokens = map[string]json.RawMessage{}
		}
		st.ServiceTokens[name] = append(json.RawMessage(nil), raw...)
		changed = true
	}
	return changed
}

// mergeCookies applies Set-Cookie headers to the stored cookies. Expired or
// deleted cookies are dropped.
func mergeCookies(st *domain.SessionState, h http.Header, now time.Time) bool {
	set := (&http.Response{Header: h}).Cookies()
	if len(set) == 0 {
		return false
	}
	byName := make(map[string]domain.Cookie, len(st.Cookies))
	for _, c := range st.Cookies {
		byName[c.Name] = c
	}
	for _, c := range set {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(byName, c.Name)
			continue
		}
		dc := domain.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path}
		switch {
		case c.MaxAge > 0:
			dc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second).Unix()
		case !c.Expires.IsZero():
			dc.Expires = c.Expires.Unix()
		}
		byName[c.Name] = dc
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	st.Cookies = st.Cookies[:0:0]
	for _, n := range names {
		st.Cookies = append(st.Cookies, byName[n])
	}
	return true
}

// cookieHeader renders the unexpired cookies for a request.
func cookieHeader(cookies []domain.Cookie, now time.Time) http.Header {
	var parts []string
	for _, c := range cookies {
		if c.Expires != 0 && time.Unix(c.Expires, 0).Before(now) {
			continue
		}
		parts = append(parts, (&http.Cookie{Name: c.Name, Value: c.Value}).String())
	}
	if len(parts) == 0 {
		return nil
	}
	return http.Header{"Cookie": {strings.Join(parts, "; ")}}
}
