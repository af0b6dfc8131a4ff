package board

import (
	"encoding/json"
	"strings"
)

// A task's rich fields travel in a single "content" column on the wire. The
// packed form is a JSON object; older rows may instead hold plain text with
// the description in its own column, and some hold nothing at all. Unpacking
// must accept all three without ever failing.

type packedContent struct {
	Content     string       `json:"content"`
	Description string       `json:"description,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	IsChecklist bool         `json:"isChecklist,omitempty"`
}

// Unpacked is the result of decoding a content column. Every field is always
// defined; malformed input yields empty defaults, never an error.
type Unpacked struct {
	Content     string
	Description string
	Attachments []Attachment
	IsChecklist bool
}

// PackContent serializes a task's rich fields into the single content blob.
func PackContent(t Task) string {
	p := packedContent{
		Content:     t.Content,
		Description: t.Description,
		Attachments: t.Attachments,
		IsChecklist: t.IsChecklist,
	}
	data, err := json.Marshal(p)
	if err != nil {
		// Marshal of plain strings and slices cannot fail; keep the title
		// rather than dropping the row if it somehow does.
		return t.Content
	}
	return string(data)
}

// UnpackContent decodes a content column. legacyDescription is the separate
// description column older rows carried; it only applies when content is not
// the structured blob.
func UnpackContent(content, legacyDescription string) Unpacked {
	u := Unpacked{Attachments: []Attachment{}}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		u.Description = legacyDescription
		return u
	}

	if strings.HasPrefix(trimmed, "{") {
		// Only treat it as the packed blob if it is a JSON object that
		// actually carries a content key; a card whose title merely starts
		// with "{" stays plain text.
		var keys map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &keys); err == nil {
			if _, ok := keys["content"]; ok {
				var p packedContent
				if err := json.Unmarshal([]byte(trimmed), &p); err == nil {
					u.Content = p.Content
					u.Description = p.Description
					u.IsChecklist = p.IsChecklist
					if p.Attachments != nil {
						u.Attachments = p.Attachments
					}
					return u
				}
			}
		}
	}

	// Legacy plain text.
	u.Content = content
	u.Description = legacyDescription
	return u
}

// ApplyUnpacked copies decoded rich fields onto a task.
func (t *Task) ApplyUnpacked(u Unpacked) {
	t.Content = u.Content
	t.Description = u.Description
	t.Attachments = u.Attachments
	t.IsChecklist = u.IsChecklist
}
