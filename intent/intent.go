// Package intent classifies message text into dispatchable intents
// using fast keyword rules
package intent

import (
	"regexp"
	"strings"
)

// Decision is the outcome of classifying one message.
type Decision struct {
	Generate  bool
	Edit      bool
	Merge     bool
	WebSearch bool
}

// Phrase tables are package-level so deployments can tune them and
// tests can exercise classification in isolation.
var (
	// GenerationPhrases trigger text-to-image generation.
	GenerationPhrases = []string{
		"draw", "paint", "sketch", "imagine",
		"generate an image", "generate a picture", "generate art",
		"create an image", "create a picture",
		"make an image", "make a picture", "make art",
		"image of", "picture of",
	}

	// EditPhrases explicitly request editing an existing image.
	EditPhrases = []string{
		"edit", "retouch", "redraw", "restyle",
		"modify this", "modify the image", "change this image",
		"remove the background", "change the background",
	}

	// WeakEditPhrases only count as editing intent when the message
	// actually carries an image.
	WeakEditPhrases = []string{
		"make it", "make this", "make them", "turn it", "turn this",
		"change it", "change the", "add a", "add some", "remove the",
	}

	// MergePhrases explicitly request merging images.
	MergePhrases = []string{
		"merge",
	}

	// WeakMergePhrases only count as merge intent when at least two
	// images are available.
	WeakMergePhrases = []string{
		"combine", "blend", "mix these", "put together", "fuse",
	}

	// SearchPhrases trigger web search.
	SearchPhrases = []string{
		"search for", "search the web", "look up", "google",
		"latest news", "current news", "what happened",
		"who won", "search online", "find out",
	}
)

var mergeKeywordRe = regexp.MustCompile(`(?i)\bmerge\b`)

// matcher reports whether any phrase occurs in the text on a word
// boundary.
type matcher struct {
	re *regexp.Regexp
}

func newMatcher(phrases []string) matcher {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(p))
	}
	return matcher{re: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

func (m matcher) match(lower string) bool {
	return m.re.MatchString(lower)
}

var (
	generationMatcher = newMatcher(GenerationPhrases)
	editMatcher       = newMatcher(EditPhrases)
	weakEditMatcher   = newMatcher(WeakEditPhrases)
	mergeMatcher      = newMatcher(MergePhrases)
	weakMergeMatcher  = newMatcher(WeakMergePhrases)
	searchMatcher     = newMatcher(SearchPhrases)
)

// RebuildMatchers recompiles the phrase matchers after the phrase
// tables have been replaced.
func RebuildMatchers() {
	generationMatcher = newMatcher(GenerationPhrases)
	editMatcher = newMatcher(EditPhrases)
	weakEditMatcher = newMatcher(WeakEditPhrases)
	mergeMatcher = newMatcher(MergePhrases)
	weakMergeMatcher = newMatcher(WeakMergePhrases)
	searchMatcher = newMatcher(SearchPhrases)
}

// Classify maps cleaned message text plus image presence information
// to an intent decision. It is a pure function with no I/O: presence
// of any image forecloses generation, while editing and merge phrases
// are flagged even when the image count makes them error paths, so the
// dispatcher can answer with a corrective notice.
func Classify(cleanText string, hasAnyImages bool, totalImageCount int) Decision {
	lower := strings.ToLower(strings.TrimSpace(cleanText))
	if lower == "" {
		return Decision{}
	}

	var d Decision
	d.Generate = generationMatcher.match(lower) && !hasAnyImages

	d.Edit = editMatcher.match(lower)
	if !d.Edit && hasAnyImages {
		d.Edit = weakEditMatcher.match(lower)
	}

	d.WebSearch = searchMatcher.match(lower)

	d.Merge = mergeMatcher.match(lower)
	if !d.Merge && totalImageCount >= 2 {
		d.Merge = weakMergeMatcher.match(lower)
	}

	return d
}

// StripMergeKeyword removes the merge keyword from the text to derive
// the merge prompt. Falls back to a generic prompt when nothing is
// left.
func StripMergeKeyword(cleanText string) string {
	prompt := strings.TrimSpace(mergeKeywordRe.ReplaceAllString(cleanText, ""))
	if prompt == "" {
		return "combine these images"
	}
	return prompt
}
