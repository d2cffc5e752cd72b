package intercept

import "strings"

// Element is the host's view of a freshly inserted DOM element.
type Element struct {
	Tag   string
	ID    string
	Class string
	Text  string
	Src   string
}

// adKeywords are matched as substrings against class, id and text of
// every inserted element.
//
// TODO: "error"/"success"/"info" flag legitimate notification UI as
// ads; drop them once the false-positive reports are triaged.
var adKeywords = []string{
	"advert",
	"banner",
	"sponsor",
	"popup",
	"promo",
	"tracker",
	"adsbox",
	"ad-slot",
	"ad-frame",
	"error",
	"success",
	"info",
}

// ShouldRemoveElement reports whether an inserted element matches the
// ad-keyword screen, and which keyword fired.
func ShouldRemoveElement(el Element) (bool, string) {
	class := strings.ToLower(el.Class)
	id := strings.ToLower(el.ID)
	text := strings.ToLower(el.Text)

	for _, kw := range adKeywords {
		if strings.Contains(class, kw) || strings.Contains(id, kw) || strings.Contains(text, kw) {
			return true, kw
		}
	}
	return false, ""
}
