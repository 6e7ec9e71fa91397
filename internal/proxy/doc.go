// Package proxy exposes a PlaybackService to a local media player over HTTP.
//
// Endpoints
//
//	HEAD /
//	    Health check, always 200.
//
//	GET /manifest?id={viewable}
//	    Fetch the manifest for {viewable} and return it as a DASH MPD.
//
//	POST /license
//	    Body is "<base64 challenge>!<base64 session id>". The raw license
//	    bytes are returned as application/octet-stream.
//
//	GET /metrics
//	    Prometheus exposition, when a metrics handler is configured.
//
// GET /?id= and POST / are kept as aliases for players configured against
// the bare root.
//
// Failures are plain-text bodies. Malformed requests get 400, a license
// request before any manifest gets 409, an untranscodable manifest gets 422
// and upstream session or remote errors get 502.
package proxy
