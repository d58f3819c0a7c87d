package naming

import (
	"path/filepath"
	"testing"

	"mkvbatch/internal/mkv"
)

func TestExpandIsLiteral(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		b       Bindings
		want    string
	}{
		{"basic", "$f_$i", Bindings{VarFile: "movie", VarID: "2"}, "movie_2"},
		{"missing binding", "$f_$n_$l", Bindings{VarFile: "movie"}, "movie__"},
		{"no re-expansion", "$n", Bindings{VarName: "$f", VarFile: "movie"}, "$f"},
		{"regex metacharacters", "[$f].(*)+$i", Bindings{VarFile: "a", VarID: "1"}, "[a].(*)+1"},
		{"literal dollar", "$$x$v", Bindings{VarVersion: "v2"}, "$$xv2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expand(tt.pattern, tt.b); got != tt.want {
				t.Fatalf("Expand(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestResolveJoinsDirectoryAndExtension(t *testing.T) {
	got := Resolve("/out", "$f_$i", Bindings{VarFile: "movie", VarID: "2"}, "h264")
	if got != filepath.Join("/out", "movie_2.h264") {
		t.Fatalf("unexpected path %q", got)
	}
	if got := Resolve("/out", "$f", Bindings{VarFile: "movie"}, ""); got != filepath.Join("/out", "movie") {
		t.Fatalf("unexpected extensionless path %q", got)
	}
	if got := Resolve("/out", "$f", Bindings{VarFile: "movie"}, ".txt"); got != filepath.Join("/out", "movie.txt") {
		t.Fatalf("leading dot should be tolerated, got %q", got)
	}
}

func TestOutputDirDefaultsToInputParent(t *testing.T) {
	if got := OutputDir("", "/media/show/ep1.mkv"); got != "/media/show" {
		t.Fatalf("unexpected default dir %q", got)
	}
	if got := OutputDir(" /out ", "/media/show/ep1.mkv"); got != "/out" {
		t.Fatalf("unexpected configured dir %q", got)
	}
}

func TestCategoryBindings(t *testing.T) {
	meta := &mkv.FileMetadata{Path: "/media/movie.mkv", Title: "A/B"}
	track := &mkv.Track{ID: 3, Type: mkv.TrackAudio, Name: "Director: Commentary", Language: "eng"}

	if got := Expand("$f-$i-$t-$n-$l", TrackBindings(meta, track)); got != "movie-3-audio-Director- Commentary-eng" {
		t.Fatalf("unexpected track expansion %q", got)
	}
	if got := Expand("$f_$i_$v", TimecodeBindings(meta, track)); got != "movie_3_v2" {
		t.Fatalf("unexpected timecode expansion %q", got)
	}
	att := &mkv.Attachment{UID: 99, FileName: "Arial.ttf"}
	if got := Expand("$f_$i_$n", AttachmentBindings(meta, att)); got != "movie_99_Arial" {
		t.Fatalf("unexpected attachment expansion %q", got)
	}
	if got := Expand("$f ($n)", ChapterBindings(meta)); got != "movie (A-B)" {
		t.Fatalf("unexpected chapter expansion %q", got)
	}
	if got := AttachmentDir("/out", meta); got != filepath.Join("/out", "movie_Attachments") {
		t.Fatalf("unexpected attachment dir %q", got)
	}
}

func TestAttachmentDirMatchesFileBinding(t *testing.T) {
	meta := &mkv.FileMetadata{Path: "/media/A: B.mkv"}
	track := &mkv.Track{ID: 0, Type: mkv.TrackVideo}

	base := Expand("$f", TrackBindings(meta, track))
	if base != "A- B" {
		t.Fatalf("unexpected file binding %q", base)
	}
	if got, want := AttachmentDir("/out", meta), filepath.Join("/out", base+AttachmentDirSuffix); got != want {
		t.Fatalf("AttachmentDir = %q, want %q", got, want)
	}
}
