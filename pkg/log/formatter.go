package log

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Level represents the severity of an Entry rendered by a Formatter. It
// is distinct from slog's levels: a Formatter renders an Entry for a
// reader and does not gate what the structured Logger emits. Nothing in
// cmd/kadroutectl uses a Formatter; it logs through Logger only.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

// String returns the uppercase name of the level.
func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Entry holds all data for a single rendered event: a CLI observation
// replay, a change-set summary, or a refresh-sweep notice.
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Fields    map[string]interface{}
}

// Formatter renders an Entry into a printable line.
type Formatter interface {
	Format(entry Entry) string
}

// TextFormatter renders entries as plain text in the format:
//
//	[2024-01-01 12:00:00] INFO  message key=value
type TextFormatter struct {
	// TimeFormat controls the timestamp layout. Defaults to
	// "2006-01-02 15:04:05" when empty.
	TimeFormat string
}

// Format produces a plain-text line for the given entry.
func (f *TextFormatter) Format(entry Entry) string {
	tf := f.TimeFormat
	if tf == "" {
		tf = "2006-01-02 15:04:05"
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(entry.Timestamp.Format(tf))
	b.WriteString("] ")
	b.WriteString(fmt.Sprintf("%-5s", entry.Level.String()))
	b.WriteString(" ")
	b.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		for _, k := range sortedKeys(entry.Fields) {
			b.WriteString(" ")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(fmt.Sprintf("%v", entry.Fields[k]))
		}
	}
	return b.String()
}

// JSONFormatter renders entries as a single JSON object per line, for
// callers piping kadroutectl output into another tool.
type JSONFormatter struct {
	// TimeFormat controls the timestamp layout. Defaults to
	// time.RFC3339 when empty.
	TimeFormat string
}

// Format produces a JSON string for the given entry.
func (f *JSONFormatter) Format(entry Entry) string {
	tf := f.TimeFormat
	if tf == "" {
		tf = time.RFC3339
	}

	obj := make(map[string]interface{}, 3+len(entry.Fields))
	obj["time"] = entry.Timestamp.Format(tf)
	obj["level"] = entry.Level.String()
	obj["msg"] = entry.Message
	for k, v := range entry.Fields {
		obj[k] = v
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Sprintf(`{"time":%q,"level":%q,"msg":%q,"error":"marshal failed"}`,
			entry.Timestamp.Format(tf), entry.Level.String(), entry.Message)
	}
	return string(data)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
