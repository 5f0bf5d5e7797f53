package transcript

import (
	"encoding/xml"
	"html"
	"strings"
)

// ParseVTT extracts cue text from a WebVTT payload, discarding the
// header, cue timing lines, and bare cue indices.
func ParseVTT(vtt string) string {
	var lines []string
	for _, line := range strings.Split(vtt, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "WEBVTT") {
			continue
		}
		if strings.Contains(trimmed, "-->") {
			continue
		}
		if isDigits(trimmed) {
			continue
		}
		lines = append(lines, trimmed)
	}
	return strings.Join(lines, " ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// ParseTimedTextXML extracts cue text from the XML timed-text variants
// (the plain transcript format, srv3, ttml) by collecting the
// character data of every element, entity-decoded. Malformed XML
// yields nothing.
func ParseTimedTextXML(payload string) []string {
	decoder := xml.NewDecoder(strings.NewReader(payload))
	// Caption payloads occasionally carry undeclared entities.
	decoder.Strict = false

	var out []string
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			if text := strings.TrimSpace(html.UnescapeString(string(cd))); text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}
