// Package assets holds files compiled into the binary.
package assets

import "embed"

// Index contains the vector index snapshot shipped with the build.
// Replace index/vector_index.json with the output of "prana ingest" before building a release.
//
//go:embed index/*.json
var Index embed.FS

// IndexPath is the snapshot path inside Index.
const IndexPath = "index/vector_index.json"
