package mkvextract

import (
	"context"
	"fmt"
	"log/slog"

	"mkvbatch/internal/logging"
	"mkvbatch/internal/mkv"
	"mkvbatch/internal/naming"
)

// Tracks extracts the payload of every Marked track with a known extension.
func (e *Extractor) Tracks(ctx context.Context, meta *mkv.FileMetadata) Result {
	dir := e.outputDir(meta)
	var targets []*target
	for _, track := range meta.Tracks {
		if track == nil || track.State != mkv.StateMarked {
			continue
		}
		if !track.Extractable() {
			e.logger.Info("track codec cannot be extracted",
				logging.String(logging.FieldFile, meta.Path),
				logging.Int("track_id", track.ID),
				logging.String("codec_id", track.CodecID),
				logging.String(logging.FieldEventType, "track_unsupported_codec"),
			)
			continue
		}
		track.Path = naming.Resolve(dir, e.settings.Patterns.Track, naming.TrackBindings(meta, track), track.Extension)
		targets = append(targets, &target{
			label:   fmt.Sprintf("track %d", track.ID),
			spec:    fmt.Sprintf("%d:%s", track.ID, track.Path),
			state:   &track.State,
			path:    &track.Path,
			trackID: track.ID,
		})
	}

	var extra []string
	if e.settings.FullRaw {
		extra = append(extra, "--fullraw")
	}
	b := newBatch(CategoryTracks, targets, true)
	return e.run(ctx, meta, b, "tracks", extra, e.identityHandler(LineTrack))
}

// Timecodes extracts v2 timecode files for every track with Marked timecodes.
func (e *Extractor) Timecodes(ctx context.Context, meta *mkv.FileMetadata) Result {
	dir := e.outputDir(meta)
	var targets []*target
	for _, track := range meta.Tracks {
		if track == nil || track.TimecodesState != mkv.StateMarked {
			continue
		}
		track.TimecodesPath = naming.Resolve(dir, e.settings.Patterns.Timecode, naming.TimecodeBindings(meta, track), "txt")
		targets = append(targets, &target{
			label:   fmt.Sprintf("timecodes of track %d", track.ID),
			spec:    fmt.Sprintf("%d:%s", track.ID, track.TimecodesPath),
			state:   &track.TimecodesState,
			path:    &track.TimecodesPath,
			trackID: track.ID,
		})
	}
	b := newBatch(CategoryTimecodes, targets, true)
	return e.run(ctx, meta, b, "timestamps_v2", nil, e.identityHandler(LineTimecodes))
}

// identityHandler reports which asset the tool is working on. Identity lines
// never change state for tracks and timecodes.
func (e *Extractor) identityHandler(kind LineKind) lineHandler {
	return func(logger *slog.Logger, b *batch, line Line) {
		if line.Kind != kind {
			e.chatter(logger, "mkvextract output", line)
			return
		}
		level := slog.LevelDebug
		if e.settings.Verbosity >= VerbosityChatter {
			level = slog.LevelInfo
		}
		attrs := []logging.Attr{
			logging.Int("track_id", line.TrackID),
			logging.String("output_path", line.Path),
		}
		if line.CodecID != "" {
			attrs = append(attrs, logging.String("codec_id", line.CodecID))
		}
		if line.Container != "" {
			attrs = append(attrs, logging.String("container_format", line.Container))
		}
		logger.Log(context.Background(), level, "extracting "+b.category.singular(), logging.Args(attrs...)...)
	}
}

func (c Category) singular() string {
	switch c {
	case CategoryTracks:
		return "track"
	case CategoryAttachments:
		return "attachment"
	case CategoryTimecodes:
		return "timecodes"
	default:
		return string(c)
	}
}
