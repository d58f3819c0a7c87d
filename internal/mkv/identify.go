package mkv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Identifier returns the metadata for one container file.
type Identifier interface {
	Identify(ctx context.Context, path string) (*FileMetadata, error)
}

// CommandRunner executes a command and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Provider identifies files with `mkvmerge -J`.
type Provider struct {
	binary string
	run    CommandRunner
}

// NewProvider constructs a Provider for the given mkvmerge binary.
func NewProvider(binary string) *Provider {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "mkvmerge"
	}
	return &Provider{binary: binary, run: defaultCommandRunner}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (p *Provider) WithCommandRunner(r CommandRunner) *Provider {
	if p != nil && r != nil {
		p.run = r
	}
	return p
}

// Identify executes mkvmerge against path and decodes the identification document.
func (p *Provider) Identify(ctx context.Context, path string) (*FileMetadata, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("mkvmerge identify: empty path")
	}
	output, err := p.run(ctx, p.binary, "-J", "--", path)
	if err != nil {
		return nil, fmt.Errorf("mkvmerge identify: %w", err)
	}
	meta, err := ParseIdentification(output)
	if err != nil {
		return nil, err
	}
	meta.Path = path
	return meta, nil
}

type identification struct {
	Errors    []string `json:"errors"`
	Container struct {
		Type       string `json:"type"`
		Recognized bool   `json:"recognized"`
		Supported  bool   `json:"supported"`
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"container"`
	Tracks []struct {
		ID         int    `json:"id"`
		Type       string `json:"type"`
		Codec      string `json:"codec"`
		Properties struct {
			CodecID   string `json:"codec_id"`
			Language  string `json:"language"`
			TrackName string `json:"track_name"`
		} `json:"properties"`
	} `json:"tracks"`
	Attachments []struct {
		ID          int    `json:"id"`
		FileName    string `json:"file_name"`
		ContentType string `json:"content_type"`
		Description string `json:"description"`
		Size        int64  `json:"size"`
		Properties  struct {
			UID uint64 `json:"uid"`
		} `json:"properties"`
	} `json:"attachments"`
	Chapters []struct {
		NumEntries int `json:"num_entries"`
	} `json:"chapters"`
}

// ParseIdentification decodes mkvmerge's JSON identification output.
func ParseIdentification(data []byte) (*FileMetadata, error) {
	var doc identification
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("mkvmerge parse: %w", err)
	}
	if len(doc.Errors) > 0 {
		return nil, fmt.Errorf("mkvmerge error: %s", strings.Join(doc.Errors, "; "))
	}
	if !doc.Container.Recognized {
		return nil, errors.New("mkvmerge: container not recognized")
	}

	meta := &FileMetadata{
		Title:     strings.TrimSpace(doc.Container.Properties.Title),
		Container: doc.Container.Type,
	}
	for _, t := range doc.Tracks {
		kind, ok := ParseTrackType(t.Type)
		if !ok {
			continue
		}
		meta.Tracks = append(meta.Tracks, &Track{
			ID:        t.ID,
			Type:      kind,
			Name:      strings.TrimSpace(t.Properties.TrackName),
			Language:  strings.TrimSpace(t.Properties.Language),
			Codec:     t.Codec,
			CodecID:   t.Properties.CodecID,
			Extension: ExtensionForCodec(t.Properties.CodecID),
		})
	}
	for _, a := range doc.Attachments {
		meta.Attachments = append(meta.Attachments, &Attachment{
			ID:          a.ID,
			UID:         a.Properties.UID,
			FileName:    a.FileName,
			MIMEType:    a.ContentType,
			Size:        a.Size,
			Description: a.Description,
		})
	}
	for _, c := range doc.Chapters {
		meta.ChapterEntries += c.NumEntries
	}
	return meta, nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		// mkvmerge reports identification problems in the JSON errors array
		// and exits with status 2; keep that payload for the caller.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(output) > 0 && json.Valid(output) {
			return output, nil
		}
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}
