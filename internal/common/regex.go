package common

import "regexp"

var (
	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	urlPattern     = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]]+")
)

// FindSubmatch returns the first capture group of pattern in text, or "".
func FindSubmatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ExtractHashtags returns every #tag in text in order of appearance, including duplicates.
func ExtractHashtags(text string) []string {
	return hashtagPattern.FindAllString(text, -1)
}

// ExtractURLs returns every http(s) URL in text in order of appearance.
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}
