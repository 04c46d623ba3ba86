package domain

import "time"

// IngestResult describes a completed upload.
type IngestResult struct {
	// Documents are the extracted documents, in upload order.
	Documents []Document

	// ChunkCount is the number of chunks indexed.
	ChunkCount int
}

// SessionInfo summarises the current document session.
type SessionInfo struct {
	// DocumentIDs lists the documents backing the index.
	DocumentIDs []string `json:"document_ids"`

	// DocumentNames lists the original filenames.
	DocumentNames []string `json:"document_names"`

	// ChunkCount is the number of indexed chunks.
	ChunkCount int `json:"chunk_count"`

	// EmbeddingModel is the model the index was built with.
	EmbeddingModel string `json:"embedding_model"`

	// BuiltAt is when the index was last rebuilt. Zero when nothing is indexed.
	BuiltAt time.Time `json:"built_at"`
}

// Indexed reports whether the session has a searchable index.
func (s SessionInfo) Indexed() bool {
	return s.ChunkCount > 0
}

// OracleHealth is the reachability of one oracle.
type OracleHealth struct {
	Name     string `json:"name"`
	Model    string `json:"model,omitempty"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Required bool   `json:"required"`
}

// HealthReport is the result of a readiness check.
type HealthReport struct {
	Ready   bool           `json:"ready"`
	Oracles []OracleHealth `json:"oracles"`
	Session SessionInfo    `json:"session"`
}
