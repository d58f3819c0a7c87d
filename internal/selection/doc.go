// Package selection turns user selector tokens into Marked extraction state.
//
// Track and timecode selectors accept `all`, `none`, a track type, or a bare
// track ID; attachment selectors accept `all`, `none`, or `fonts`. Tokens are
// evaluated independently and their effects are unioned, so overlapping
// selectors mark an asset once. Unsupported tokens are reported individually
// without blocking the valid ones.
package selection
