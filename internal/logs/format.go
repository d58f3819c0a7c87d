package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"mkvbatch/internal/logging"
)

// Entry is one decoded line of the JSON log file.
type Entry struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Component string
	Fields    map[string]any
}

// Parse decodes a JSON log line. ok is false for lines that are not JSON
// objects.
func Parse(line string) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	entry := Entry{Fields: raw}
	if ts, ok := raw["ts"].(string); ok {
		entry.Time, _ = time.Parse(time.RFC3339Nano, ts)
		delete(raw, "ts")
	}
	if level, ok := raw["level"].(string); ok {
		entry.Level = logging.ParseLevel(level)
		delete(raw, "level")
	}
	if msg, ok := raw["msg"].(string); ok {
		entry.Message = msg
		delete(raw, "msg")
	}
	if component, ok := raw[logging.FieldComponent].(string); ok {
		entry.Component = component
		delete(raw, logging.FieldComponent)
	}
	return entry, true
}

// String renders the entry like the console handler's single-line form.
func (e Entry) String() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", e.Level.String())
	if e.Component != "" {
		fmt.Fprintf(&b, "[%s] ", e.Component)
	}
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, e.Fields[key])
	}
	return b.String()
}

// Format renders a raw log line for display; non-JSON lines pass through.
func Format(line string) string {
	entry, ok := Parse(line)
	if !ok {
		return line
	}
	return entry.String()
}
