package httpapi

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question" validate:"required"`
	Context  string `json:"context"`
	TopK     int    `json:"top_k" validate:"omitempty,min=1,max=50"`
}

// SummarizeRequest is the body of POST /summarize.
type SummarizeRequest struct {
	Context      string `json:"context" validate:"required"`
	MaxSentences int    `json:"max_sentences" validate:"omitempty,min=1,max=50"`
}

// SummarizeResponse is the body returned by POST /summarize.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// UploadResponse is the body returned by POST /upload.
type UploadResponse struct {
	Message     string   `json:"message"`
	DocumentID  string   `json:"document_id"`
	DocumentIDs []string `json:"document_ids"`
	Text        string   `json:"text"`
	Texts       []string `json:"texts"`
	Chunks      int      `json:"chunks"`
}

func newUploadResponse(res *domain.IngestResult) UploadResponse {
	resp := UploadResponse{
		Message:     "File uploaded and processed successfully.",
		DocumentIDs: make([]string, 0, len(res.Documents)),
		Texts:       make([]string, 0, len(res.Documents)),
		Chunks:      res.ChunkCount,
	}
	for _, d := range res.Documents {
		resp.DocumentIDs = append(resp.DocumentIDs, d.ID)
		resp.Texts = append(resp.Texts, d.Content)
	}
	if len(res.Documents) > 0 {
		resp.DocumentID = resp.DocumentIDs[0]
		resp.Text = resp.Texts[0]
	}
	return resp
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
