package report

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntryKind discriminates step entries. It is the "type" field on the wire.
type EntryKind string

const (
	KindLog        EntryKind = "log"
	KindCheck      EntryKind = "check"
	KindAttachment EntryKind = "attachment"
	KindURL        EntryKind = "url"
)

// Log levels known to the viewer. Other levels are rendered as info.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// EntryKinds returns every step entry kind. Code switching over entries is
// tested against this list.
func EntryKinds() []EntryKind {
	return []EntryKind{KindLog, KindCheck, KindAttachment, KindURL}
}

// StepEntry is one of *Log, *Check, *Attachment or *URL.
type StepEntry interface {
	Kind() EntryKind
	stepEntry()
}

// Log is a message logged during a step.
type Log struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Check is the outcome of an assertion.
type Check struct {
	Description  string  `json:"description"`
	IsSuccessful bool    `json:"is_successful"`
	Details      *string `json:"details"`
}

// Attachment is a file saved in the report directory.
type Attachment struct {
	Filename    string `json:"filename"`
	Description string `json:"description"`
	AsImage     bool   `json:"as_image"`
}

// URL is a link logged during a step.
type URL struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (*Log) Kind() EntryKind        { return KindLog }
func (*Check) Kind() EntryKind      { return KindCheck }
func (*Attachment) Kind() EntryKind { return KindAttachment }
func (*URL) Kind() EntryKind        { return KindURL }

func (*Log) stepEntry()        {}
func (*Check) stepEntry()      {}
func (*Attachment) stepEntry() {}
func (*URL) stepEntry()        {}

// unknownEntry keeps an entry of an unsupported kind until validation
// rejects it. It never survives Parse.
type unknownEntry struct {
	kind EntryKind
}

func (u *unknownEntry) Kind() EntryKind { return u.kind }
func (*unknownEntry) stepEntry()        {}

// Entries is the ordered list of a step's entries.
type Entries []StepEntry

// UnmarshalJSON decodes each entry according to its "type" field.
func (e *Entries) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	entries := make(Entries, 0, len(raws))

	for i, raw := range raws {
		entry, err := decodeEntry(raw)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}

		entries = append(entries, entry)
	}

	*e = entries

	return nil
}

// MarshalJSON encodes each entry with its "type" discriminator.
func (e Entries) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(e))

	for _, entry := range e {
		switch v := entry.(type) {
		case *Log:
			out = append(out, struct {
				Type EntryKind `json:"type"`
				*Log
			}{KindLog, v})
		case *Check:
			out = append(out, struct {
				Type EntryKind `json:"type"`
				*Check
			}{KindCheck, v})
		case *Attachment:
			out = append(out, struct {
				Type EntryKind `json:"type"`
				*Attachment
			}{KindAttachment, v})
		case *URL:
			out = append(out, struct {
				Type EntryKind `json:"type"`
				*URL
			}{KindURL, v})
		default:
			return nil, fmt.Errorf("unsupported entry kind %q", entry.Kind())
		}
	}

	return json.Marshal(out)
}

func decodeEntry(raw json.RawMessage) (StepEntry, error) {
	var head struct {
		Type EntryKind `json:"type"`
	}

	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	var entry StepEntry

	switch head.Type {
	case KindLog:
		entry = &Log{}
	case KindCheck:
		entry = &Check{}
	case KindAttachment:
		entry = &Attachment{}
	case KindURL:
		entry = &URL{}
	default:
		return &unknownEntry{kind: head.Type}, nil
	}

	if err := json.Unmarshal(raw, entry); err != nil {
		return nil, err
	}

	return entry, nil
}
