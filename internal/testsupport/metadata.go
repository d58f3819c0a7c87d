package testsupport

import "mkvbatch/internal/mkv"

// SampleMetadata returns an identified feature-film container: one video,
// two audio and one subtitle track, a font and a cover attachment, and
// three chapters. Every call returns fresh, Unmarked objects.
func SampleMetadata(path string) *mkv.FileMetadata {
	return &mkv.FileMetadata{
		Path:           path,
		Title:          "Sample Feature",
		Container:      "Matroska",
		ChapterEntries: 3,
		Tracks: []*mkv.Track{
			{ID: 0, Type: mkv.TrackVideo, Codec: "AVC/H.264/MPEG-4p10", CodecID: "V_MPEG4/ISO/AVC", Extension: "h264", Language: "und"},
			{ID: 1, Type: mkv.TrackAudio, Name: "Stereo", Codec: "AAC", CodecID: "A_AAC", Extension: "aac", Language: "eng"},
			{ID: 2, Type: mkv.TrackAudio, Name: "Commentary", Codec: "AC-3", CodecID: "A_AC3", Extension: "ac3", Language: "eng"},
			{ID: 3, Type: mkv.TrackSubtitles, Codec: "SubRip/SRT", CodecID: "S_TEXT/UTF8", Extension: "srt", Language: "fre"},
		},
		Attachments: []*mkv.Attachment{
			{ID: 1, UID: 8423617264387213, FileName: "DejaVuSans.ttf", MIMEType: "application/x-truetype-font", Size: 757076},
			{ID: 2, UID: 5541021932274821, FileName: "cover.jpg", MIMEType: "image/jpeg", Size: 48213},
		},
	}
}

// ProgressLines is the output of a clean mkvextract run.
func ProgressLines() []string {
	return []string{"Progress: 0%", "Progress: 42%", "Progress: 100%"}
}

// IdentificationJSON is `mkvmerge -J` output matching SampleMetadata.
const IdentificationJSON = `{
  "attachments": [
    {"content_type": "application/x-truetype-font", "file_name": "DejaVuSans.ttf", "id": 1, "properties": {"uid": 8423617264387213}, "size": 757076},
    {"content_type": "image/jpeg", "file_name": "cover.jpg", "id": 2, "properties": {"uid": 5541021932274821}, "size": 48213}
  ],
  "chapters": [{"num_entries": 3}],
  "container": {"properties": {"title": "Sample Feature"}, "recognized": true, "supported": true, "type": "Matroska"},
  "errors": [],
  "tracks": [
    {"codec": "AVC/H.264/MPEG-4p10", "id": 0, "properties": {"codec_id": "V_MPEG4/ISO/AVC", "language": "und"}, "type": "video"},
    {"codec": "AAC", "id": 1, "properties": {"codec_id": "A_AAC", "language": "eng", "track_name": "Stereo"}, "type": "audio"},
    {"codec": "AC-3", "id": 2, "properties": {"codec_id": "A_AC3", "language": "eng", "track_name": "Commentary"}, "type": "audio"},
    {"codec": "SubRip/SRT", "id": 3, "properties": {"codec_id": "S_TEXT/UTF8", "language": "fre"}, "type": "subtitles"}
  ]
}`

// MKVMergeScript is a stub mkvmerge body printing IdentificationJSON.
func MKVMergeScript() string {
	return "cat <<'JSON'\n" + IdentificationJSON + "\nJSON\n"
}
