package rules

import (
	"sort"
	"strings"
)

// Exclusions decides which matches of a rule within one text are dropped.
type Exclusions struct {
	rule     *CompiledRule
	text     string
	comments [][2]int // sorted [start, end) byte ranges of block comments
}

// Exclusions prepares the exclusion checks of r for text.
func (r *CompiledRule) Exclusions(text string) *Exclusions {
	e := &Exclusions{rule: r, text: text}
	for _, bc := range r.BlockComments {
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], bc.Open)
			if i < 0 {
				break
			}
			start := from + i
			end := len(text)
			if j := strings.Index(text[start+len(bc.Open):], bc.Close); j >= 0 {
				end = start + len(bc.Open) + j + len(bc.Close)
			}
			e.comments = append(e.comments, [2]int{start, end})
			from = end
		}
	}
	sort.Slice(e.comments, func(i, j int) bool { return e.comments[i][0] < e.comments[j][0] })
	return e
}

// Excluded reports whether a match starting at offset is dropped: it lies
// inside a block comment, or the text of its line before it matches an
// exclude pattern.
func (e *Exclusions) Excluded(offset int) bool {
	i := sort.Search(len(e.comments), func(i int) bool { return e.comments[i][0] > offset }) - 1
	if i >= 0 && offset < e.comments[i][1] {
		return true
	}
	lead := e.text[strings.LastIndexByte(e.text[:offset], '\n')+1 : offset]
	for _, re := range e.rule.ExcludePatterns {
		if re.MatchString(lead) {
			return true
		}
	}
	return false
}
