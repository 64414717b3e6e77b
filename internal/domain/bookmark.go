package domain

import "time"

// Bookmark represents one captured text snippet.
//
// It is NOT tied to the clipboard, Redis or any external source.
// All inputs (clipboard captures, seed files, API calls) are merged
// into this structure.
//
// A Bookmark is considered uniquely identified by its ID.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier.
	// Allocated at creation time, time-ordered.
	ID string `json:"id"`

	// Content is the captured snippet text, stored verbatim.
	Content string `json:"content"`

	// ─────────────────────────────
	// Derived metadata
	// (from the external analyzer or local heuristics)
	// ─────────────────────────────

	// Title is a short human-readable label.
	// Example: "Binary search helper"
	Title string `json:"title"`

	// Tags classify the snippet. No duplicate labels.
	// Example: ["python", "algorithm", "search"]
	Tags []string `json:"tags"`

	// Summary is a shortened representative text.
	Summary string `json:"summary"`

	// Language is one label from the fixed set
	// {python, javascript, java, cpp, sql, html, css, text}.
	Language string `json:"language"`

	// ─────────────────────────────
	// Provenance
	// ─────────────────────────────

	// Timestamp is the creation instant, used for default ordering.
	Timestamp time.Time `json:"timestamp"`

	// AIGenerated is true only if the metadata came from the
	// external analyzer, false if from local heuristics.
	AIGenerated bool `json:"aiGenerated"`
}

// Clone returns a deep copy. Collection readers receive snapshots;
// a clone guarantees later mutations never show through.
func (b *Bookmark) Clone() *Bookmark {
	if b == nil {
		return nil
	}
	c := *b
	if b.Tags != nil {
		c.Tags = append([]string(nil), b.Tags...)
	}
	return &c
}

// Language labels. DetectLanguage only ever returns one of these.
const (
	LangPython     = "python"
	LangJavascript = "javascript"
	LangJava       = "java"
	LangCpp        = "cpp"
	LangSQL        = "sql"
	LangHTML       = "html"
	LangCSS        = "css"
	LangText       = "text"
)
