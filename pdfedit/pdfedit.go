// Package pdfedit removes pages from PDF documents.
package pdfedit

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"

	"github.com/Abraxas-365/papernotes/paper"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var configOnce sync.Once

// pdfcpu otherwise writes a config directory under the user's home
func config() *model.Configuration {
	configOnce.Do(api.DisableConfigDir)
	return model.NewDefaultConfiguration()
}

// PageCount returns the number of pages in pdf
func PageCount(pdf []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdf), config())
	if err != nil {
		return 0, paper.NewError(paper.KindValidation, "PageCount", "failed to read pdf", err)
	}
	return n, nil
}

// DeletePages removes the given 1-indexed pages. Removals are applied one after
// another in input order: the k-th removal (k starting at 1) drops the page at
// zero-based index page-k of the document as it stands after the previous
// removals. For ascending input this removes exactly the listed pages of the
// original. An empty list returns pdf unchanged.
func DeletePages(pdf []byte, pages []int) ([]byte, error) {
	if len(pages) == 0 {
		return pdf, nil
	}

	n, err := PageCount(pdf)
	if err != nil {
		return nil, err
	}

	original, err := resolve(n, pages)
	if err != nil {
		return nil, err
	}

	selected := make([]string, len(original))
	for i, p := range original {
		selected[i] = strconv.Itoa(p)
	}

	var out bytes.Buffer
	if err := api.RemovePages(bytes.NewReader(pdf), &out, selected, config()); err != nil {
		return nil, paper.NewError(paper.KindValidation, "DeletePages", "failed to remove pages", err)
	}
	return out.Bytes(), nil
}

// resolve replays the sequential removals on the list of original page numbers
// and returns the original numbers that were removed, in removal order.
func resolve(pageCount int, pages []int) ([]int, error) {
	remaining := make([]int, pageCount)
	for i := range remaining {
		remaining[i] = i + 1
	}

	removed := make([]int, 0, len(pages))
	offset := 1
	for _, p := range pages {
		idx := p - offset
		if idx < 0 || idx >= len(remaining) {
			return nil, paper.NewError(paper.KindValidation, "DeletePages",
				fmt.Sprintf("page %d does not exist in a %d page document after %d removals", p, pageCount, offset-1),
				paper.ErrPageOutOfRange)
		}
		removed = append(removed, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		offset++
	}
	return removed, nil
}
