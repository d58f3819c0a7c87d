package mkvextract

import (
	"context"
	"fmt"
	"log/slog"

	"mkvbatch/internal/logging"
	"mkvbatch/internal/mkv"
	"mkvbatch/internal/naming"
)

// Attachments extracts every Marked attachment into <output>/<basename>_Attachments.
//
// Attachments complete independently: each "is written to" line marks the
// attachment it names Succeeded. The line is matched by UID first and by
// mkvextract's attachment number as a fallback.
func (e *Extractor) Attachments(ctx context.Context, meta *mkv.FileMetadata) Result {
	dir := naming.AttachmentDir(e.outputDir(meta), meta)
	var targets []*target
	for _, att := range meta.Attachments {
		if att == nil || att.State != mkv.StateMarked {
			continue
		}
		att.Path = naming.Resolve(dir, e.settings.Patterns.Attachment, naming.AttachmentBindings(meta, att), att.Extension())
		targets = append(targets, &target{
			label: fmt.Sprintf("attachment %s", att.FileName),
			spec:  fmt.Sprintf("%d:%s", att.ID, att.Path),
			state: &att.State,
			path:  &att.Path,
			attID: att.ID,
			uid:   att.UID,
		})
	}
	b := newBatch(CategoryAttachments, targets, false)
	return e.run(ctx, meta, b, "attachments", nil, e.handleAttachmentLine)
}

func (e *Extractor) handleAttachmentLine(logger *slog.Logger, b *batch, line Line) {
	if line.Kind != LineAttachment {
		e.chatter(logger, "mkvextract output", line)
		return
	}
	t := matchAttachment(b.targets, line)
	if t == nil {
		logger.Debug("written attachment does not match a selected asset",
			logging.Int("attachment_id", line.AttachmentID),
			logging.Uint64("uid", line.UID),
		)
		return
	}
	if *t.state == mkv.StateMarked && line.Path != "" {
		*t.path = line.Path
	}
	t.succeed()
	e.chatter(logger, "attachment written", line)
}

func matchAttachment(targets []*target, line Line) *target {
	for _, t := range targets {
		if line.UID != 0 && t.uid == line.UID {
			return t
		}
	}
	for _, t := range targets {
		if t.attID == line.AttachmentID {
			return t
		}
	}
	return nil
}
