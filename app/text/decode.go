package text

import (
	"log/slog"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

// Decode turns a fetched body into a UTF-8 string. A charset declared in the
// Content-Type header wins; otherwise valid UTF-8 is taken as is and anything
// else goes through charset detection. Undecodable bytes become U+FFFD.
func Decode(raw []byte, contentType string) string {
	if len(raw) == 0 {
		return ""
	}

	name := declaredCharset(contentType)
	if name == "" {
		if utf8.Valid(raw) {
			return string(raw)
		}
		name = detectCharset(raw)
	}

	if name == "" {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		slog.Debug("Unknown charset, falling back to UTF-8", "charset", name, "error", err)
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return strings.ToValidUTF8(string(decoded), "\uFFFD")
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(params["charset"]))
}

func detectCharset(raw []byte) string {
	result, err := chardet.NewHtmlDetector().DetectBest(raw)
	if err != nil || result == nil {
		return ""
	}
	return strings.ToLower(result.Charset)
}
