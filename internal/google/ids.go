package google

import "regexp"

var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`),
}

// ExtractID returns the file or folder id found in a Docs, Sheets or Drive
// URL. Input that matches none of them is assumed to already be an id.
func ExtractID(url string) string {
	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return url
}
