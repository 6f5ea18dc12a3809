package unstructured

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/papernotes/document"
	"github.com/Abraxas-365/papernotes/paper"
)

func TestNewExtractor_MissingKey(t *testing.T) {
	_, err := NewExtractor("")
	if !errors.Is(err, paper.ErrConfiguration) {
		t.Fatalf("NewExtractor(\"\") error = %v, want configuration", err)
	}
}

func TestExtract(t *testing.T) {
	var gotKey, gotStrategy string
	var gotFile []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(apiKeyHeader)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		gotStrategy = r.FormValue("strategy")
		f, _, err := r.FormFile("files")
		if err != nil {
			t.Errorf("FormFile: %v", err)
		} else {
			gotFile, _ = io.ReadAll(f)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"type":"Title","element_id":"a1","text":"Attention","metadata":{"page_number":1}},
			{"type":"PageBreak","element_id":"a2","text":"","metadata":{"page_number":1}},
			{"type":"NarrativeText","element_id":"a3","text":"We propose","metadata":{"page_number":2}}
		]`)
	}))
	defer srv.Close()

	ex, err := NewExtractor("key", WithURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	docs, err := ex.Extract(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if gotKey != "key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if gotStrategy != DefaultStrategy {
		t.Errorf("strategy = %q", gotStrategy)
	}
	if string(gotFile) != "%PDF-1.4" {
		t.Errorf("uploaded file = %q", gotFile)
	}

	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].PageContent != "Attention" || docs[1].PageContent != "We propose" {
		t.Errorf("unexpected order: %q, %q", docs[0].PageContent, docs[1].PageContent)
	}
	if docs[1].Metadata[document.MetaCategory] != "NarrativeText" || docs[1].Metadata[document.MetaElementID] != "a3" {
		t.Errorf("metadata = %v", docs[1].Metadata)
	}
	if got := document.PageNumbers(docs[1]); len(got) != 1 || got[0] != 2 {
		t.Errorf("PageNumbers() = %v", got)
	}
}

func TestExtract_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad file", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	ex, _ := NewExtractor("key", WithURL(srv.URL))
	_, err := ex.Extract(context.Background(), []byte("x"))
	if paper.KindOf(err) != paper.KindExtraction {
		t.Fatalf("error kind = %q, want Extraction (%v)", paper.KindOf(err), err)
	}
}
