package latex

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
	"github.com/ses4j/ebird-statistical-report/pkg/services/layout"
)

func sampleDocument(t *testing.T) *layout.Document {
	t.Helper()
	d := layout.NewDocument()
	d.TitlePage(layout.TitlePage{Title: "DC eBird Report", Subtitle: "District of Columbia", AsOf: "December 31, 2020"})
	d.Contents()
	d.Section("Most Species Seen", "Counts include 50% of R&D birds")

	tbl := &domain.Table{
		Title:    "Year List",
		Subtitle: "2020",
		Columns:  domain.Columns("Observer", "Species", "_url"),
		Rows: []domain.Row{
			{"Bob Roe", int64(3), "https://ebird.org/checklist/S1#top"},
			{"Carol_Diaz", int64(2), "https://ebird.org/checklist/S2"},
			{"Dan Fox", int64(1), ""},
		},
	}
	require.NoError(t, d.AddTablesInColumns([]*domain.Table{tbl}, 2, layout.Options{RankBy: -1}))
	require.NoError(t, d.AddTableSection(tbl, layout.Options{RankBy: -1}))
	require.NoError(t, d.AddListSection(&domain.Table{
		Title:   "Breeding Credits",
		Columns: domain.Columns("Species", "#", "Birders"),
		Rows:    []domain.Row{{"American Robin", int64(2), "Bob Roe, Carol Diaz"}},
	}))
	return d
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `50\% R\&D \#1 a\_b \$5`, Escape("50% R&D #1 a_b $5"))
	assert.Equal(t, `Bob~Roe`, Escape("Bob\u00a0Roe"))
	assert.Equal(t, `\{x\}`, Escape("{x}"))
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleDocument(t)))
	out := buf.String()

	assert.Contains(t, out, `\documentclass`)
	assert.Contains(t, out, `{\Huge DC eBird Report\par}`)
	assert.Contains(t, out, `\tableofcontents`)
	assert.Contains(t, out, `\section{Most Species Seen}`)
	assert.Contains(t, out, `Counts include 50\% of R\&D birds`)
	assert.Contains(t, out, `\begin{minipage}[t]{0.485\textwidth}`)
	assert.Contains(t, out, `\textbf{2020}`)
	assert.Contains(t, out, `\begin{tabularx}{\linewidth}{X r}`)
	assert.Contains(t, out, `\textbf{Observer} & \textbf{Species} \\`)
	assert.Contains(t, out, `\href{https://ebird.org/checklist/S1\#top}{1.~Bob~Roe} & 3 \\`)
	assert.Contains(t, out, `\href{https://ebird.org/checklist/S2}{2.~Carol\_Diaz} & 2 \\`)
	assert.Contains(t, out, "\n3.~Dan~Fox & 1 \\\\")
	assert.Contains(t, out, `\begin{xltabular}{\linewidth}{X r}`)
	assert.Contains(t, out, `\endhead`)
	assert.Contains(t, out, `\begin{multicols}{3}`)
	assert.Contains(t, out, `American~Robin (2)\\`)
	assert.Contains(t, out, `{\small\textit{- Bob~Roe, Carol~Diaz}}\\`)
	assert.NotContains(t, out, "_url")
	assert.Contains(t, out, `\end{document}`)
}

func fakeCompiler(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script compiler")
	}
	path := filepath.Join(t.TempDir(), "fake-pdflatex")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestRenderer_WriteFile(t *testing.T) {
	ctx := context.Background()

	t.Run("tex", func(t *testing.T) {
		r := NewRenderer(Settings{})
		assert.Equal(t, ".tex", r.Extension())

		path := filepath.Join(t.TempDir(), "report.tex")
		require.NoError(t, r.WriteFile(ctx, sampleDocument(t), path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `\section{Most Species Seen}`)
	})

	t.Run("pdf", func(t *testing.T) {
		r := NewRenderer(Settings{PDF: true, Command: fakeCompiler(t, `echo "%PDF" > "$4/report.pdf"`)})
		assert.Equal(t, ".pdf", r.Extension())

		dir := t.TempDir()
		path := filepath.Join(dir, "report.pdf")
		require.NoError(t, r.WriteFile(ctx, sampleDocument(t), path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "%PDF\n", string(data))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("compiler failure leaves no artifact", func(t *testing.T) {
		r := NewRenderer(Settings{PDF: true, Command: fakeCompiler(t, "echo 'Undefined control sequence'; exit 1")})

		dir := t.TempDir()
		path := filepath.Join(dir, "report.pdf")
		err := r.WriteFile(ctx, sampleDocument(t), path)
		assert.Error(t, err)
		assert.NoFileExists(t, path)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
