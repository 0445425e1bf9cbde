package extract

// BlockKind classifies a content block.
type BlockKind string

const (
	KindVerse     BlockKind = "verse"
	KindRefrain   BlockKind = "refrain"
	KindParagraph BlockKind = "paragraph"
)

// ContentBlock is one unit of content destined for exactly one output slide.
// Text may contain internal newlines but never leading/trailing whitespace
// or consecutive blank lines.
type ContentBlock struct {
	Kind  BlockKind `yaml:"kind" json:"kind"`
	Text  string    `yaml:"text" json:"text"`
	Order int       `yaml:"order" json:"order"`
}

// HymnDocument is the parsed form of one hymn page. Verses keep source
// order; at most one refrain exists per document.
type HymnDocument struct {
	Title   string         `yaml:"title" json:"title"`
	Verses  []ContentBlock `yaml:"verses" json:"verses"`
	Refrain *ContentBlock  `yaml:"refrain,omitempty" json:"refrain,omitempty"`
}

// ScripturePassage is the cleaned body of one passage query, with verse
// numbers restored inline in their original order.
type ScripturePassage struct {
	ReferenceLabel string `yaml:"reference" json:"reference"`
	Body           string `yaml:"body" json:"body"`
}

// SongStatus reports how the email segmenter arrived at its sections.
type SongStatus string

const (
	// SongExact means the body had clear structural or blank-line breaks.
	SongExact SongStatus = "exact"
	// SongHeuristic means the best-effort regrouping stage produced the
	// sections; callers may prefer to skip the song rather than trust it.
	SongHeuristic SongStatus = "heuristic"
)

// EmailSong is the parsed form of a song email. Sections is non-empty
// whenever an EmailSong is returned.
type EmailSong struct {
	Title    string         `yaml:"title" json:"title"`
	Sections []ContentBlock `yaml:"sections" json:"sections"`
	Status   SongStatus     `yaml:"status" json:"status"`
}
