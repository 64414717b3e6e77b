package domain

import (
	"regexp"
	"strings"
)

const (
	// Title length cap (characters, not bytes)
	maxTitleLen = 50

	// Summary caps
	maxSummaryLines = 3
	maxSummaryWords = 50

	// Appended when a title or summary is cut short
	ellipsis = "..."

	// Fallback title for blank captures
	untitled = "Untitled"
)

// titleCommentPatterns extract the inner text of a leading comment
// line. Checked in order; first match wins.
var titleCommentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^//\s*(.+?)\s*$`),
	regexp.MustCompile(`^/\*\s*(.*?)\s*\*/$`),
	regexp.MustCompile(`^#\s*(.+?)\s*$`),
	regexp.MustCompile(`^--\s*(.+?)\s*$`),
	regexp.MustCompile(`^<!--\s*(.*?)\s*-->$`),
}

// ExtractTitle derives a short label from the first non-blank line.
// A leading comment line yields its inner text; anything else is
// truncated to 50 characters.
func ExtractTitle(text string) string {
	line := firstNonBlankLine(text)
	if line == "" {
		return untitled
	}

	for _, re := range titleCommentPatterns {
		if m := re.FindStringSubmatch(line); m != nil && m[1] != "" {
			return m[1]
		}
	}

	runes := []rune(line)
	if len(runes) > maxTitleLen {
		return string(runes[:maxTitleLen]) + ellipsis
	}
	return line
}

func firstNonBlankLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// languageBuckets map a tag label to the keywords that trigger it.
// Any keyword present as a substring adds the label.
var languageBuckets = []struct {
	label    string
	keywords []string
}{
	{LangJavascript, []string{"function ", "const ", "let ", "var ", "=>", "console.log"}},
	{LangPython, []string{"def ", "import ", "print(", "lambda", "elif"}},
	{LangJava, []string{"public class", "static void", "system.out"}},
	{LangCpp, []string{"#include", "std::", "cout <<"}},
	{LangSQL, []string{"select ", "insert ", "update ", "delete from", "create table"}},
	{LangHTML, []string{"<html", "<div", "<body", "<span"}},
	{LangCSS, []string{"margin:", "padding:", "font-size:", "background-color:"}},
}

// algorithmKeywords each add both the generic "algorithm" tag and the
// keyword itself.
var algorithmKeywords = []string{
	"sort", "search", "binary", "hash", "tree", "graph", "dynamic",
	"recursive", "iterative", "breadth", "depth", "dijkstra", "bellman",
	"greedy",
}

// GenerateTags classifies text into language, algorithm and topic tags.
// The result contains no duplicates; order follows the fixed scan order.
func GenerateTags(text string) []string {
	lower := strings.ToLower(text)

	var tags []string
	seen := make(map[string]bool)
	add := func(tag string) {
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	for _, bucket := range languageBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				add(bucket.label)
				break
			}
		}
	}

	for _, kw := range algorithmKeywords {
		if strings.Contains(lower, kw) {
			add("algorithm")
			add(kw)
		}
	}

	if strings.Contains(lower, "api") || strings.Contains(lower, "endpoint") {
		add("api")
	}
	if strings.Contains(lower, "database") || strings.Contains(lower, "db") {
		add("database")
	}
	if strings.Contains(lower, "async") || strings.Contains(lower, "promise") {
		add("async")
	}

	return tags
}

// GenerateSummary shortens text to at most 3 non-blank lines or 50
// words. Short text passes through unchanged.
func GenerateSummary(text string) string {
	if countNonBlankLines(text) <= maxSummaryLines {
		return text
	}

	words := strings.Fields(text)
	if len(words) <= maxSummaryWords {
		return text
	}
	return strings.Join(words[:maxSummaryWords], " ") + ellipsis
}

func countNonBlankLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// languageMarkers are tested in priority order; the first rule with a
// matching substring wins. Order matters because markers overlap
// (plain braces with no "margin:" fall through to text).
var languageMarkers = []struct {
	label   string
	markers []string
}{
	{LangPython, []string{"def ", "import "}},
	{LangJavascript, []string{"function ", "const "}},
	{LangJava, []string{"public class", "static void"}},
	{LangCpp, []string{"#include", "namespace"}},
	{LangSQL, []string{"select ", "insert "}},
	{LangHTML, []string{"<html", "<div"}},
}

// DetectLanguage labels text with one member of the fixed language set.
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)

	for _, rule := range languageMarkers {
		for _, marker := range rule.markers {
			if strings.Contains(lower, marker) {
				return rule.label
			}
		}
	}

	if strings.Contains(lower, "{") && strings.Contains(lower, "margin:") {
		return LangCSS
	}
	return LangText
}

// DeriveMetadata runs the full local heuristic pipeline. When autoTag
// is off the tag scan is skipped and the bookmark keeps an empty set.
func DeriveMetadata(b *Bookmark, autoTag bool) {
	b.Title = ExtractTitle(b.Content)
	if autoTag {
		b.Tags = GenerateTags(b.Content)
	} else {
		b.Tags = []string{}
	}
	b.Summary = GenerateSummary(b.Content)
	b.Language = DetectLanguage(b.Content)
	b.AIGenerated = false
}
