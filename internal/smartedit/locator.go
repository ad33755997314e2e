// Package smartedit locates an edit target within file content from a fuzzy
// natural-language description, applies the edit, and produces a unified
// diff. Location resolution falls back through four strategies in order:
// exact substring, line/line-range, function/keyword block, and bigram+word
// fuzzy scoring.
package smartedit

import (
	"fmt"
	"strconv"
	"strings"
)

// LocationMatch is a resolved edit target within a file's content.
type LocationMatch struct {
	Start          int    // start byte offset
	End            int    // end byte offset (exclusive)
	MatchedText    string
	LineNumber     int // 1-based line where the match starts
	ContextPreview string
}

// fnPrefixes are common function/type signature prefixes across the
// languages a workspace might contain.
var fnPrefixes = []string{
	"fn ", "def ", "func ", "function ", "pub fn ", "async fn ", "pub async fn ",
	"impl ", "class ", "struct ", "enum ",
}

var identifierKeywords = map[string]bool{
	"fn": true, "def": true, "func": true, "function": true, "pub": true,
	"async": true, "impl": true, "class": true, "struct": true, "enum": true,
	"let": true, "const": true, "var": true, "type": true, "trait": true,
	"interface": true, "the": true, "a": true, "an": true, "in": true,
	"of": true, "for": true, "with": true, "from": true, "to": true,
}

// FindLocation resolves pattern against content using, in order: an exact
// substring match, a "line N"/"lines N-M" pattern, a function/keyword block
// pattern, and a bigram+word-containment fuzzy match. It returns an error
// naming the pattern when none of the four strategies resolves.
func FindLocation(content, pattern string) (LocationMatch, error) {
	if start := strings.Index(content, pattern); start >= 0 {
		end := start + len(pattern)
		lineNumber := strings.Count(content[:start], "\n") + 1
		return LocationMatch{
			Start:          start,
			End:            end,
			MatchedText:    pattern,
			LineNumber:     lineNumber,
			ContextPreview: extractContext(content, start, end, 2),
		}, nil
	}

	if from, to, ok := parseLinePattern(pattern); ok {
		return findByLineRange(content, from, to)
	}

	if m, ok := findByFunctionPattern(content, pattern); ok {
		return m, nil
	}

	if m, ok := findByFuzzyMatch(content, pattern); ok {
		return m, nil
	}

	return LocationMatch{}, fmt.Errorf("could not locate %q in the file; try exact text, a line number (e.g. \"line 42\"), or a function name", truncate(pattern, 80))
}

// parseLinePattern parses "line N" or "lines N-M".
func parseLinePattern(pattern string) (from, to int, ok bool) {
	lower := strings.ToLower(strings.TrimSpace(pattern))

	if rest, found := strings.CutPrefix(lower, "line "); found {
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return 0, 0, false
		}
		return n, n, true
	}

	if rest, found := strings.CutPrefix(lower, "lines "); found {
		parts := strings.SplitN(rest, "-", 2)
		if len(parts) != 2 {
			return 0, 0, false
		}
		a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
		b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errA != nil || errB != nil {
			return 0, 0, false
		}
		return a, b, true
	}

	return 0, 0, false
}

// findByLineRange resolves a 1-based inclusive [startLine, endLine] range.
func findByLineRange(content string, startLine, endLine int) (LocationMatch, error) {
	lines := strings.Split(content, "\n")
	// strings.Split on a trailing-newline file yields a spurious trailing
	// empty element; drop it so "total" matches the file's visible line count.
	total := len(lines)
	if total > 0 && lines[total-1] == "" && strings.HasSuffix(content, "\n") {
		total--
	}

	if startLine <= 0 || startLine > total {
		return LocationMatch{}, fmt.Errorf("line %d is out of range (file has %d lines)", startLine, total)
	}
	if endLine > total {
		endLine = total
	}

	startIdx := startLine - 1
	endIdx := endLine

	byteOffset := 0
	startByte := 0
	endByte := len(content)
	for i := 0; i < total; i++ {
		if i == startIdx {
			startByte = byteOffset
		}
		byteOffset += len(lines[i]) + 1
		if i+1 == endIdx {
			endByte = byteOffset
			if endByte > len(content) {
				endByte = len(content)
			}
		}
	}

	matched := content[startByte:endByte]
	return LocationMatch{
		Start:          startByte,
		End:            endByte,
		MatchedText:    matched,
		LineNumber:     startLine,
		ContextPreview: extractContext(content, startByte, endByte, 1),
	}, nil
}

// findByFunctionPattern looks for a line declaring a function/type whose
// name matches an identifier extracted from pattern, then extends the match
// to the end of that block.
func findByFunctionPattern(content, pattern string) (LocationMatch, bool) {
	patternLower := strings.ToLower(pattern)

	isFnPattern := false
	for _, p := range fnPrefixes {
		if strings.HasPrefix(patternLower, p) {
			isFnPattern = true
			break
		}
	}
	isFnPattern = isFnPattern ||
		strings.HasPrefix(patternLower, "the ") ||
		strings.Contains(patternLower, " function") ||
		strings.Contains(patternLower, " method")

	if !isFnPattern {
		return LocationMatch{}, false
	}

	name := extractIdentifierFromPattern(patternLower)
	if name == "" {
		return LocationMatch{}, false
	}

	lines := strings.Split(content, "\n")
	byteStart := 0
	for i, line := range lines {
		lineLower := strings.ToLower(line)
		hasFnKeyword := false
		for _, p := range fnPrefixes {
			if strings.Contains(lineLower, p) {
				hasFnKeyword = true
				break
			}
		}
		if hasFnKeyword && strings.Contains(lineLower, name) {
			blockEnd := findBlockEnd(content, byteStart)
			matched := content[byteStart:blockEnd]
			return LocationMatch{
				Start:          byteStart,
				End:            blockEnd,
				MatchedText:    matched,
				LineNumber:     i + 1,
				ContextPreview: extractContext(content, byteStart, blockEnd, 0),
			}, true
		}
		byteStart += len(line) + 1
	}

	return LocationMatch{}, false
}

// extractIdentifierFromPattern pulls a likely snake_case/camelCase
// identifier out of a natural-language location description, skipping
// common language keywords.
func extractIdentifierFromPattern(pattern string) string {
	cleaned := pattern
	cleaned = strings.ReplaceAll(cleaned, "the ", "")
	cleaned = strings.ReplaceAll(cleaned, " function", "")
	cleaned = strings.ReplaceAll(cleaned, " method", "")
	cleaned = strings.ReplaceAll(cleaned, " that ", " ")
	cleaned = strings.ReplaceAll(cleaned, "called ", "")

	trim := func(r rune) bool { return !isAlnumOrUnderscore(r) }

	words := strings.Fields(cleaned)
	for _, w := range words {
		word := strings.TrimFunc(w, trim)
		if len(word) >= 2 && !identifierKeywords[word] {
			if strings.Contains(word, "_") || hasUpper(word) || isIdentifier(word) {
				return word
			}
		}
	}

	for i := len(words) - 1; i >= 0; i-- {
		word := strings.TrimFunc(words[i], trim)
		if len(word) >= 2 && !identifierKeywords[word] {
			return word
		}
	}

	return ""
}

func isAlnumOrUnderscore(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}

func hasUpper(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}

func isIdentifier(s string) bool {
	for _, r := range s {
		if !isAlnumOrUnderscore(r) {
			return false
		}
	}
	return len(s) > 0
}

// findBlockEnd extends a match starting at a function/type declaration to
// the end of its block: brace matching for C-like languages, or a return
// to the declaration's own indentation level for Python-like languages.
func findBlockEnd(content string, start int) int {
	rest := content[start:]
	if rest == "" {
		return len(content)
	}
	lines := strings.Split(rest, "\n")
	firstLine := lines[0]

	if strings.Contains(firstLine, "{") {
		depth := 0
		pos := start
		for _, ch := range content[start:] {
			switch ch {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return pos + 1
				}
			}
			pos++
		}
		return len(content)
	}

	baseIndent := len(firstLine) - len(strings.TrimLeft(firstLine, " \t"))
	end := start + len(firstLine) + 1
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			end += len(line) + 1
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent <= baseIndent {
			break
		}
		end += len(line) + 1
	}
	if end > len(content) {
		end = len(content)
	}
	return end
}

// findByFuzzyMatch scores every non-blank line against pattern using
// 0.5*bigram_jaccard + 0.5*word_containment_ratio and returns the
// highest-scoring line above the 0.25 threshold.
func findByFuzzyMatch(content, pattern string) (LocationMatch, bool) {
	patternLower := strings.ToLower(pattern)
	patternWords := strings.Fields(patternLower)

	bestScore := 0.0
	bestLineIdx := -1

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lineLower := strings.ToLower(line)
		lineTrimmed := strings.TrimSpace(lineLower)
		if lineTrimmed == "" {
			continue
		}

		bigramScore := bigramJaccard(lineTrimmed, patternLower)

		containWords := 0
		for _, w := range patternWords {
			if strings.Contains(lineTrimmed, w) {
				containWords++
			}
		}
		denom := len(patternWords)
		if denom == 0 {
			denom = 1
		}
		wordScore := float64(containWords) / float64(denom)

		score := 0.5*bigramScore + 0.5*wordScore
		if score > bestScore && score > 0.25 {
			bestScore = score
			bestLineIdx = i
		}
	}

	if bestLineIdx < 0 {
		return LocationMatch{}, false
	}

	byteStart := 0
	for i := 0; i < bestLineIdx; i++ {
		byteStart += len(lines[i]) + 1
	}
	lineText := lines[bestLineIdx]
	byteEnd := byteStart + len(lineText)

	return LocationMatch{
		Start:          byteStart,
		End:            byteEnd,
		MatchedText:    lineText,
		LineNumber:     bestLineIdx + 1,
		ContextPreview: extractContext(content, byteStart, byteEnd, 2),
	}, true
}

// bigramJaccard is the Jaccard similarity of two strings' character bigram
// sets.
func bigramJaccard(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	bigramsA := bigramSet(a)
	bigramsB := bigramSet(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0
	}

	intersection := 0
	for bg := range bigramsA {
		if bigramsB[bg] {
			intersection++
		}
	}
	union := len(bigramsA) + len(bigramsB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func bigramSet(s string) map[[2]rune]bool {
	runes := []rune(s)
	set := make(map[[2]rune]bool, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		set[[2]rune{runes[i], runes[i+1]}] = true
	}
	return set
}

// extractContext renders the lines spanning [start,end) plus contextLines
// of padding on either side, each prefixed with its 1-based line number.
func extractContext(content string, start, end, contextLines int) string {
	lines := strings.Split(content, "\n")
	startLine := strings.Count(content[:start], "\n")
	endLine := strings.Count(content[:end], "\n") + 1

	from := startLine - contextLines
	if from < 0 {
		from = 0
	}
	to := endLine + contextLines
	if to > len(lines) {
		to = len(lines)
	}

	out := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, fmt.Sprintf("%4d | %s", i+1, lines[i]))
	}
	return strings.Join(out, "\n")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	if cut < 0 {
		cut = 0
	}
	return s[:cut] + "..."
}
