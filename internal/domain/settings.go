package domain

// Settings are the user-tunable options persisted alongside the
// bookmark collection. Desktop collaborators (tray, overlay) read
// Shortcut but registration happens outside this process.
type Settings struct {
	// Shortcut is the global capture chord, stored for UI collaborators.
	Shortcut string `json:"shortcut"`

	// AutoTag enables heuristic tag generation for fallback metadata.
	AutoTag bool `json:"autoTag"`

	// Deduplicate enables the near-duplicate scan at creation time.
	Deduplicate bool `json:"deduplicate"`

	// MinSimilarity is the duplicate threshold in [0,1]. A candidate is
	// refused when its similarity to an existing bookmark strictly
	// exceeds this value.
	MinSimilarity float64 `json:"minSimilarity"`

	// ClipboardMonitoring gates the clipboard polling loop.
	ClipboardMonitoring bool `json:"clipboardMonitoring"`
}

// SettingsPatch is a partial settings update. Nil fields keep the
// current value.
type SettingsPatch struct {
	Shortcut            *string  `json:"shortcut"`
	AutoTag             *bool    `json:"autoTag"`
	Deduplicate         *bool    `json:"deduplicate"`
	MinSimilarity       *float64 `json:"minSimilarity"`
	ClipboardMonitoring *bool    `json:"clipboardMonitoring"`
}

func DefaultSettings() Settings {
	return Settings{
		Shortcut:            "CommandOrControl+Shift+B",
		AutoTag:             true,
		Deduplicate:         true,
		MinSimilarity:       0.8,
		ClipboardMonitoring: true,
	}
}

// Apply merges a patch into s and returns the normalized result.
func (s Settings) Apply(p SettingsPatch) Settings {
	if p.Shortcut != nil {
		s.Shortcut = *p.Shortcut
	}
	if p.AutoTag != nil {
		s.AutoTag = *p.AutoTag
	}
	if p.Deduplicate != nil {
		s.Deduplicate = *p.Deduplicate
	}
	if p.MinSimilarity != nil {
		s.MinSimilarity = *p.MinSimilarity
	}
	if p.ClipboardMonitoring != nil {
		s.ClipboardMonitoring = *p.ClipboardMonitoring
	}
	return s.Normalized()
}

// Normalized clamps out-of-range values and fills empty fields with
// defaults. Loaded documents pass through here so a hand-edited store
// cannot produce a nonsense threshold.
func (s Settings) Normalized() Settings {
	def := DefaultSettings()
	if s.Shortcut == "" {
		s.Shortcut = def.Shortcut
	}
	if s.MinSimilarity < 0 {
		s.MinSimilarity = 0
	}
	if s.MinSimilarity > 1 {
		s.MinSimilarity = 1
	}
	return s
}
