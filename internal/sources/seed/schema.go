package seed

// File is the top-level structure of the seed snippets YAML file.
type File struct {
	Snippets []Snippet `yaml:"snippets"`
}

// Snippet is one seed entry. Only the content matters; title, tags,
// summary and language are derived by the normal intake pipeline.
type Snippet struct {
	Content string `yaml:"content"`

	// Name is optional and purely for the file author's readability.
	Name string `yaml:"name,omitempty"`
}
