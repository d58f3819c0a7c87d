package mkv

import "strings"

// codecExtensions maps Matroska codec IDs to the file extension mkvextract
// writes for them. Prefix entries end in "/".
var codecExtensions = map[string]string{
	"V_MPEG4/ISO/AVC":  "h264",
	"V_MPEGH/ISO/HEVC": "h265",
	"V_AV1":            "ivf",
	"V_VP8":            "ivf",
	"V_VP9":            "ivf",
	"V_MPEG1":          "mpg",
	"V_MPEG2":          "mpg",
	"V_MS/VFW/FOURCC":  "avi",
	"V_THEORA":         "ogg",
	"V_REAL/":          "rm",
	"A_AAC":            "aac",
	"A_AAC/":           "aac",
	"A_AC3":            "ac3",
	"A_EAC3":           "eac3",
	"A_DTS":            "dts",
	"A_FLAC":           "flac",
	"A_MPEG/L2":        "mp2",
	"A_MPEG/L3":        "mp3",
	"A_OPUS":           "ogg",
	"A_VORBIS":         "ogg",
	"A_PCM/":           "wav",
	"A_TRUEHD":         "thd",
	"A_MLP":            "mlp",
	"A_TTA1":           "tta",
	"A_WAVPACK4":       "wv",
	"A_ALAC":           "caf",
	"A_REAL/":          "ra",
	"S_TEXT/UTF8":      "srt",
	"S_TEXT/ASCII":     "srt",
	"S_TEXT/ASS":       "ass",
	"S_ASS":            "ass",
	"S_TEXT/SSA":       "ssa",
	"S_SSA":            "ssa",
	"S_TEXT/WEBVTT":    "vtt",
	"S_TEXT/USF":       "usf",
	"S_VOBSUB":         "sub",
	"S_HDMV/PGS":       "sup",
	"S_KATE":           "ogg",
}

// ExtensionForCodec returns the output extension for a codec ID, or "" when
// mkvextract cannot write the codec to a standalone file.
func ExtensionForCodec(codecID string) string {
	codecID = strings.ToUpper(strings.TrimSpace(codecID))
	if codecID == "" {
		return ""
	}
	if ext, ok := codecExtensions[codecID]; ok && !strings.HasSuffix(codecID, "/") {
		return ext
	}
	for prefix, ext := range codecExtensions {
		if strings.HasSuffix(prefix, "/") && strings.HasPrefix(codecID, prefix) {
			return ext
		}
	}
	return ""
}
