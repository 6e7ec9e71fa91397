package store

// Well-known blob names.
const (
	RSAKeyFile       = "rsa_key"
	SessionFile      = "msl_data.json"
	ManifestJSONFile = "manifest.json"
	ManifestMPDFile  = "manifest.mpd"
)
