// Package manifest turns the decrypted manifest result into a player-ready
// description of the title and renders it as a DASH MPD.
//
// The input is the version 2 manifest JSON:
//
//   - duration in milliseconds, links.license.href, playbackContextId and
//     drmContextId at the top level
//   - video_tracks with an optional drmHeader {keyId, bytes} and streams
//   - audio_tracks grouped by language, each with streams
//   - timedtexttracks with one ttDownloadables entry per subtitle profile
//
// Transcode fails with domain.ErrManifestParse when required fields are
// missing. RenderMPD is deterministic for a given ManifestDocument.
package manifest
