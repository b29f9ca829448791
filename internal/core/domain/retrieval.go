package domain

// RetrievedDocument is a chunk-shaped search result annotated with a
// relevance score in [0,1]. The index client assigns the score at
// construction; backends without scores report 1.0.
type RetrievedDocument struct {
	JobID    int64    `json:"document_id"`
	Ordinal  int      `json:"chunk_index"`
	Source   string   `json:"source_file"`
	FileType FileType `json:"file_type,omitempty"`
	Text     string   `json:"content"`
	Score    float64  `json:"score"`
}
