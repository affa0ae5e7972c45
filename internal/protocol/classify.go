package protocol

import "strings"

// LineKind is the routing decision for one inbound line.
type LineKind int

const (
	LineText LineKind = iota
	LineCommand
	LineProtocol
)

// ClassifyLine routes a raw input line: commands start with '/', protocol
// messages contain the field separator, everything else is plain text.
func ClassifyLine(line string) LineKind {
	switch {
	case strings.HasPrefix(line, "/"):
		return LineCommand
	case strings.Contains(line, Separator):
		return LineProtocol
	default:
		return LineText
	}
}

var fileExtensions = []string{
	".pdf", ".jpg", ".png", ".gif", ".txt",
	".doc", ".docx", ".zip", ".mp3", ".mp4",
}

var emojis = map[string]string{
	":rocket:":   "🚀",
	":smile:":    "😄",
	":heart:":    "❤️",
	":thumbsup:": "👍",
	":fire:":     "🔥",
}

// IsFile reports whether text names a file with a known extension.
func IsFile(text string) bool {
	lower := strings.ToLower(text)
	for _, ext := range fileExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// IsEmoji reports whether the trimmed text is wrapped in colons, like ":fire:".
func IsEmoji(text string) bool {
	t := strings.TrimSpace(text)
	return len(t) >= 2 && strings.HasPrefix(t, ":") && strings.HasSuffix(t, ":")
}

// ClassifyText picks the message type for plain chat text. File names win
// over emoji codes.
func ClassifyText(text string) MessageType {
	switch {
	case IsFile(text):
		return TypeFileTransfer
	case IsEmoji(text):
		return TypeEmoji
	default:
		return TypeText
	}
}

// Emoji maps a known code to its glyph; unknown codes come back unchanged.
func Emoji(code string) string {
	code = strings.TrimSpace(code)
	if glyph, ok := emojis[code]; ok {
		return glyph
	}
	return code
}
