package main

import (
	"fmt"
	"strings"

	"github.com/Abraxas-365/papernotes/ingest"
	"github.com/Abraxas-365/papernotes/paper"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD93D")).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			PaddingLeft(2).
			Width(100)

	pageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			PaddingLeft(2)
)

func renderResult(res *ingest.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(res.Record.Name) + "\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("run:"), res.RunID)
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("chunks:"), res.Chunks)
	if res.ArchiveKey != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("archived:"), res.ArchiveKey)
	}
	b.WriteString(renderNotes(res.Record.Notes))
	return b.String()
}

func renderRecord(rec *paper.Record) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(rec.Name) + "\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("url:"), rec.ArxivURL)
	fmt.Fprintf(&b, "%s %d characters\n", labelStyle.Render("text:"), len(rec.Paper))
	b.WriteString(renderNotes(rec.Notes))
	return b.String()
}

func renderPaperList(recs []paper.Record) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d papers", len(recs))) + "\n")
	for _, rec := range recs {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(rec.Name), rec.ArxivURL)
		b.WriteString(pageStyle.Render(fmt.Sprintf("%d notes", len(rec.Notes))) + "\n")
	}
	return b.String()
}

func renderQAList(qas []paper.QA) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d questions", len(qas))) + "\n")
	for _, qa := range qas {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Q:"), qa.Question)
		b.WriteString(noteStyle.Render(qa.Answer) + "\n")
		for _, f := range qa.FollowupQuestions {
			b.WriteString(pageStyle.Render("→ "+f) + "\n")
		}
	}
	return b.String()
}

func renderNotes(notes []paper.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n\n", labelStyle.Render("notes:"), len(notes))
	for i, n := range notes {
		b.WriteString(noteStyle.Render(fmt.Sprintf("%d. %s", i+1, n.Note)) + "\n")
		if len(n.PageNumbers) > 0 {
			pages := make([]string, len(n.PageNumbers))
			for j, p := range n.PageNumbers {
				pages[j] = fmt.Sprint(p)
			}
			b.WriteString(pageStyle.Render("pages "+strings.Join(pages, ", ")) + "\n")
		}
	}
	return b.String()
}

func renderError(err error) string {
	kind := paper.KindOf(err)
	if kind == "" {
		kind = "Error"
	}
	return errorStyle.Render(fmt.Sprintf("%s: %v", kind, err))
}
