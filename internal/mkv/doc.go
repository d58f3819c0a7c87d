// Package mkv models the Matroska files mkvbatch operates on.
//
// It identifies a container by running `mkvmerge -J` and decoding the JSON
// identification document into FileMetadata, a tree of tracks and attachments
// that also carries the per-asset extraction state used by the extraction
// drivers. The package never parses the container format itself.
package mkv
