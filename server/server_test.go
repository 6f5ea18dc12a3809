package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Abraxas-365/papernotes/ingest"
	"github.com/Abraxas-365/papernotes/paper"
	"github.com/Abraxas-365/papernotes/vectorstore"
)

type fakePipeline struct {
	ingestErr error
	records   map[string]*paper.Record
	order     []string
	saved     []paper.QA
	saveErr   error
	listErr   error
	limit     int
}

func (f *fakePipeline) Ingest(_ context.Context, req paper.IngestRequest) (*ingest.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	rec := paper.Record{ArxivURL: req.PaperURL, Name: req.Name, Notes: []paper.Note{{Note: "n", PageNumbers: []int{1}}}}
	f.records[req.PaperURL] = &rec
	f.order = append(f.order, req.PaperURL)
	return &ingest.Result{RunID: "run", Record: rec, Chunks: 3}, nil
}

func (f *fakePipeline) GetPaper(_ context.Context, url string) *paper.Record {
	return f.records[url]
}

func (f *fakePipeline) ListPapers(_ context.Context, limit int) ([]paper.Record, error) {
	f.limit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []paper.Record
	for _, u := range f.order {
		out = append(out, *f.records[u])
	}
	return out, nil
}

func (f *fakePipeline) QuestionAnswers(_ context.Context, limit int) ([]paper.QA, error) {
	f.limit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.saved, nil
}

func (f *fakePipeline) SaveQA(_ context.Context, qa paper.QA) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, qa)
	return nil
}

type fakeSearcher struct {
	filter vectorstore.Filter
	limit  int
}

func (f *fakeSearcher) SimilaritySearch(_ context.Context, query string, limit int, filter vectorstore.Filter) ([]vectorstore.Document, error) {
	f.filter = filter
	f.limit = limit
	return []vectorstore.Document{{PageContent: "match for " + query, Score: 0.9}}, nil
}

func newTestServer(p *fakePipeline, s Searcher) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httptest.NewServer(New(p, s, logger).Routes())
}

func TestIngestAndGet(t *testing.T) {
	p := &fakePipeline{records: map[string]*paper.Record{}}
	srv := newTestServer(p, nil)
	defer srv.Close()

	body := `{"paperUrl":"https://arxiv.org/pdf/2311.05556.pdf","name":"lcm","pagesToDelete":[6,7]}`
	resp, err := http.Post(srv.URL+"/papers", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /papers status = %d", resp.StatusCode)
	}
	var notes []paper.Note
	if err := json.NewDecoder(resp.Body).Decode(&notes); err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Note != "n" || notes[0].PageNumbers[0] != 1 {
		t.Errorf("notes = %+v", notes)
	}

	get, err := http.Get(srv.URL + "/papers?url=" + url.QueryEscape("https://arxiv.org/pdf/2311.05556.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	defer get.Body.Close()
	var rec paper.Record
	json.NewDecoder(get.Body).Decode(&rec)
	if get.StatusCode != http.StatusOK || rec.Name != "lcm" {
		t.Errorf("GET /papers = %d %+v", get.StatusCode, rec)
	}

	missing, err := http.Get(srv.URL + "/papers?url=" + url.QueryEscape("https://arxiv.org/pdf/0.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("GET unknown paper status = %d", missing.StatusCode)
	}
}

func TestIngest_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		err    error
		status int
	}{
		{"not a pdf", "https://arxiv.org/abs/1", nil, http.StatusBadRequest},
		{"fetch failed", "https://arxiv.org/pdf/1.pdf", paper.NewError(paper.KindNetwork, "Ingest", "fetch", nil), http.StatusBadGateway},
		{"no tool calls", "https://arxiv.org/pdf/1.pdf", paper.NewError(paper.KindParsing, "notes", "no tool calls found", nil), http.StatusBadGateway},
		{"insert failed", "https://arxiv.org/pdf/1.pdf", paper.NewError(paper.KindPersistence, "persist", "insert", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakePipeline{records: map[string]*paper.Record{}, ingestErr: tt.err}, nil)
			defer srv.Close()

			body := fmt.Sprintf(`{"paperUrl":%q,"name":"x"}`, tt.url)
			resp, err := http.Post(srv.URL+"/papers", "application/json", strings.NewReader(body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestSaveQA(t *testing.T) {
	p := &fakePipeline{records: map[string]*paper.Record{}}
	srv := newTestServer(p, nil)
	defer srv.Close()

	body := `{"question":"q","answer":"a","context":"c","followup_questions":["f1","f2"]}`
	resp, err := http.Post(srv.URL+"/qa", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("POST /qa status = %d", resp.StatusCode)
	}
	if len(p.saved) != 1 || len(p.saved[0].FollowupQuestions) != 2 {
		t.Errorf("saved = %+v", p.saved)
	}

	p.saveErr = paper.NewError(paper.KindPersistence, "SaveQA", "failed", errors.New("db down"))
	resp, err = http.Post(srv.URL+"/qa", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("POST /qa failure status = %d", resp.StatusCode)
	}
}

func TestListPapersAndQA(t *testing.T) {
	p := &fakePipeline{
		records: map[string]*paper.Record{"https://arxiv.org/pdf/1.pdf": {ArxivURL: "https://arxiv.org/pdf/1.pdf", Name: "one"}},
		order:   []string{"https://arxiv.org/pdf/1.pdf"},
		saved:   []paper.QA{{Question: "q"}},
	}
	srv := newTestServer(p, nil)
	defer srv.Close()

	tests := []struct {
		name   string
		path   string
		status int
		limit  int
		count  int
	}{
		{"papers default limit", "/papers", http.StatusOK, 0, 1},
		{"papers with limit", "/papers?limit=5", http.StatusOK, 5, 1},
		{"papers bad limit", "/papers?limit=abc", http.StatusBadRequest, -1, 0},
		{"qa with limit", "/qa?limit=3", http.StatusOK, 3, 1},
		{"qa zero limit", "/qa?limit=0", http.StatusBadRequest, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.limit = -1
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Fatalf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.status)
			}
			if p.limit != tt.limit {
				t.Errorf("limit = %d, want %d", p.limit, tt.limit)
			}
			if tt.status != http.StatusOK {
				return
			}
			var rows []json.RawMessage
			if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
				t.Fatal(err)
			}
			if len(rows) != tt.count {
				t.Errorf("rows = %d, want %d", len(rows), tt.count)
			}
		})
	}

	p.listErr = paper.NewError(paper.KindConfiguration, "QuestionAnswers", "no question store configured", nil)
	resp, err := http.Get(srv.URL + "/qa")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("GET /qa failure status = %d", resp.StatusCode)
	}
}

func TestSearch(t *testing.T) {
	s := &fakeSearcher{}
	srv := newTestServer(&fakePipeline{records: map[string]*paper.Record{}}, s)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/search?q=latent&limit=2&url=" + url.QueryEscape("https://arxiv.org/pdf/1.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var docs []vectorstore.Document
	json.NewDecoder(resp.Body).Decode(&docs)
	if len(docs) != 1 || docs[0].PageContent != "match for latent" {
		t.Errorf("docs = %+v", docs)
	}
	if s.limit != 2 || s.filter["source"] != "https://arxiv.org/pdf/1.pdf" {
		t.Errorf("limit = %d, filter = %v", s.limit, s.filter)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakePipeline{}, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
