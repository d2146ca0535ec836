// Package format renders tool output and durations for the chat surface.
// Replies are plain text: Telegram markup is unreliable under the
// plain-text fallback the bot uses, so structure is conveyed with line
// breaks, bullets, and Key: Value pairs only.
package format

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultBulletLimit is how many list items render before truncation.
const DefaultBulletLimit = 5

// notProvided substitutes for nil and empty values.
const notProvided = "Not provided"

// acronyms are upcased wholesale when keys are prettified.
var acronyms = map[string]string{
	"id":   "ID",
	"url":  "URL",
	"api":  "API",
	"ui":   "UI",
	"uuid": "UUID",
	"http": "HTTP",
	"html": "HTML",
}

// Formatter converts a tool's JSON envelope (or any plain string) into a
// chat-ready reply.
type Formatter struct {
	bulletLimit int
}

// New creates a Formatter. A non-positive bulletLimit selects the default.
func New(bulletLimit int) *Formatter {
	if bulletLimit <= 0 {
		bulletLimit = DefaultBulletLimit
	}
	return &Formatter{bulletLimit: bulletLimit}
}

// Reply formats raw tool output. Non-JSON input passes through unchanged;
// envelope objects follow the status rules; everything else renders as
// message-plus-fields text.
func (f *Formatter) Reply(raw string) string {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return raw
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return raw
	}
	return f.renderObject(obj, 0)
}

func (f *Formatter) renderValue(v any, depth int) string {
	switch t := v.(type) {
	case nil:
		return notProvided
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case string:
		if t == "" {
			return notProvided
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		return f.renderObject(t, depth)
	case []any:
		return f.renderList(t)
	default:
		return fmt.Sprint(t)
	}
}

func (f *Formatter) renderObject(m map[string]any, depth int) string {
	// Envelope interception: only the literal success/error statuses are
	// envelopes; domain objects carry their own status fields (e.g. a
	// player's "active") and render normally.
	switch m["status"] {
	case "error":
		msg, _ := m["message"].(string)
		if msg == "" {
			msg = "Something went wrong."
		}
		return "❌ " + msg
	case "success":
		if data, ok := m["data"]; ok {
			return f.renderValue(data, depth)
		}
		if msg, ok := m["message"].(string); ok && msg != "" {
			return msg
		}
		return "Done."
	}

	message, _ := m["message"].(string)

	keys := make([]string, 0, len(m))
	for k := range m {
		if k == "message" || strings.HasPrefix(k, "_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		label := PrettyKey(k)
		switch val := m[k].(type) {
		case []any:
			lines = append(lines, label+":")
			lines = append(lines, f.renderList(val))
		case map[string]any:
			if depth >= 1 {
				// One level of nesting is all a chat reply can bear.
				continue
			}
			lines = append(lines, label+":")
			lines = append(lines, indent(f.renderObject(val, depth+1)))
		default:
			lines = append(lines, label+": "+f.renderValue(val, depth+1))
		}
	}

	body := strings.Join(lines, "\n")
	switch {
	case message != "" && body != "":
		return message + "\n\n" + body
	case message != "":
		return message
	default:
		return body
	}
}

func (f *Formatter) renderList(items []any) string {
	var lines []string
	for i, item := range items {
		if i == f.bulletLimit {
			lines = append(lines, "…")
			break
		}
		lines = append(lines, "• "+f.renderListItem(item))
	}
	return strings.Join(lines, "\n")
}

// renderListItem flattens one list element to a single line.
func (f *Formatter) renderListItem(item any) string {
	obj, ok := item.(map[string]any)
	if !ok {
		return f.renderValue(item, 1)
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if strings.HasPrefix(k, "_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, PrettyKey(k)+": "+f.renderValue(obj[k], 1))
	}
	return strings.Join(parts, ", ")
}

// PrettyKey turns a snake_case field name into a label: words title-cased,
// known acronyms upcased. "player_id" becomes "Player ID".
func PrettyKey(key string) string {
	words := strings.Split(key, "_")
	caser := cases.Title(language.English)
	for i, w := range words {
		if up, ok := acronyms[strings.ToLower(w)]; ok {
			words[i] = up
			continue
		}
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
