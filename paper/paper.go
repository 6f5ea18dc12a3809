package paper

import (
	"encoding/json"
	"strings"

	"github.com/Abraxas-365/papernotes/document"
)

// PDFSuffix is the literal suffix every paper URL must carry
const PDFSuffix = ".pdf"

// IngestRequest is the input of a single ingestion run
type IngestRequest struct {
	PaperURL      string `json:"paperUrl"`
	Name          string `json:"name"`
	PagesToDelete []int  `json:"pagesToDelete,omitempty"`
}

// Validate checks the request before any I/O is made
func (r IngestRequest) Validate() error {
	if !strings.HasSuffix(r.PaperURL, PDFSuffix) {
		return NewError(KindValidation, "Ingest", "not a pdf file: "+r.PaperURL, nil)
	}
	for _, p := range r.PagesToDelete {
		if p < 1 {
			return NewError(KindValidation, "Ingest", "page numbers are 1-indexed", nil)
		}
	}
	return nil
}

// Document is a paper after extraction. It is built once per run and not modified.
type Document struct {
	URL          string
	Name         string
	RawText      string
	PagesDeleted []int
}

// NewDocument builds the paper from the request and the extracted chunks
func NewDocument(req IngestRequest, chunks []document.Document) Document {
	var deleted []int
	if len(req.PagesToDelete) > 0 {
		deleted = append(deleted, req.PagesToDelete...)
	}
	return Document{
		URL:          req.PaperURL,
		Name:         req.Name,
		RawText:      document.FormatAsString(chunks),
		PagesDeleted: deleted,
	}
}

// Note is a single citation-anchored note produced by the model
type Note struct {
	Note        string `json:"note"`
	PageNumbers []int  `json:"pageNumbers"`
}

// Record is a row of the papers table
type Record struct {
	ArxivURL string `json:"arxiv_url"`
	Name     string `json:"name"`
	Paper    string `json:"paper"`
	Notes    []Note `json:"notes"`
}

// NewRecord creates the row that is stored for a processed paper
func NewRecord(doc Document, notes []Note) Record {
	return Record{
		ArxivURL: doc.URL,
		Name:     doc.Name,
		Paper:    doc.RawText,
		Notes:    notes,
	}
}

// NotesJSON encodes the notes for a jsonb column. A nil slice is stored as [].
func (r Record) NotesJSON() ([]byte, error) {
	if r.Notes == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Notes)
}

// QA is a question answered over a paper
type QA struct {
	Question          string   `json:"question"`
	Answer            string   `json:"answer"`
	Context           string   `json:"context"`
	FollowupQuestions []string `json:"followup_questions"`
}
