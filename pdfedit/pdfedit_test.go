package pdfedit

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/Abraxas-365/papernotes/internal/testpdf"
	"github.com/Abraxas-365/papernotes/paper"
	"github.com/ledongthuc/pdf"
)

// pageWidths identifies each page of doc by its MediaBox width
func pageWidths(t *testing.T, doc []byte) []int {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	widths := make([]int, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		v := r.Page(i).V
		for v.Key("MediaBox").IsNull() && !v.Key("Parent").IsNull() {
			v = v.Key("Parent")
		}
		box := v.Key("MediaBox")
		widths = append(widths, int(box.Index(2).Float64()))
	}
	return widths
}

func originalPages(widths []int) []int {
	out := make([]int, len(widths))
	for i, w := range widths {
		out[i] = w - testpdf.BaseWidth
	}
	return out
}

func TestDeletePages_RemovesRequestedPages(t *testing.T) {
	src := testpdf.New(10)

	out, err := DeletePages(src, []int{6, 7})
	if err != nil {
		t.Fatalf("DeletePages() error = %v", err)
	}

	n, err := PageCount(out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 8 {
		t.Fatalf("page count = %d, want 8", n)
	}

	got := originalPages(pageWidths(t, out))
	want := []int{1, 2, 3, 4, 5, 8, 9, 10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("remaining pages = %v, want %v", got, want)
	}
}

func TestDeletePages_EmptyIsNoop(t *testing.T) {
	src := testpdf.New(3)

	for _, pages := range [][]int{nil, {}} {
		out, err := DeletePages(src, pages)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out, src) {
			t.Error("expected the original bytes back")
		}
	}
}

func TestDeletePages_OutOfRange(t *testing.T) {
	src := testpdf.New(3)

	_, err := DeletePages(src, []int{2, 4})
	if !errors.Is(err, paper.ErrPageOutOfRange) {
		t.Fatalf("DeletePages() error = %v, want ErrPageOutOfRange", err)
	}
	if paper.KindOf(err) != paper.KindValidation {
		t.Errorf("kind = %s", paper.KindOf(err))
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		pages   []int
		want    []int
		wantErr bool
	}{
		{"ascending", 10, []int{6, 7}, []int{6, 7}, false},
		{"first and last", 5, []int{1, 5}, []int{1, 5}, false},
		{"all pages", 3, []int{1, 2, 3}, []int{1, 2, 3}, false},
		// the offset rule applied to unsorted input shifts later removals
		{"descending", 10, []int{7, 6}, []int{7, 5}, false},
		{"repeated", 10, []int{3, 3}, []int{3, 2}, false},
		{"past the end", 3, []int{4}, nil, true},
		{"shifted past the end", 3, []int{3, 4}, nil, true},
		{"zero", 3, []int{0}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve(tt.count, tt.pages)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}
