package output

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/fileutil/pkg/fileutil/exit"
	"github.com/jamesainslie/fileutil/pkg/fileutil/ranker"
	"github.com/jamesainslie/fileutil/pkg/fileutil/types"
)

func sampleResult() *Result {
	return &Result{
		Root:      "/data",
		Recursive: true,
		MinSize:   0,
		MaxSize:   types.Unbounded,
		Top:       3,
		Entries: []Entry{
			{Rank: 1, Path: "/data/videos/clip.mp4", Rel: "videos/clip.mp4", Size: 1572864, SizeHuman: "1.50 MB"},
			{Rank: 2, Path: "/data/notes.txt", Rel: "notes.txt", Size: 2048, SizeHuman: "2.00 KB"},
			{Rank: 3, Path: "/data/a|b", Rel: "a|b", Size: 12, SizeHuman: "12 B"},
		},
		Stats: types.ScanStats{DirsScanned: 2, FilesFound: 1234, Skipped: 1, Elapsed: 1500 * time.Millisecond},
	}
}

func TestRegistry(t *testing.T) {
	want := []string{"csv", "json", "jsonl", "markdown", "null", "paths", "plain", "pretty", "text", "tsv", "yaml"}
	assert.Equal(t, want, Available())

	for _, name := range want {
		f, err := Get(name)
		require.NoError(t, err, name)
		require.NotNil(t, f, name)
	}

	_, err := Get("xml")
	require.ErrorIs(t, err, ErrUnknownFormat)

	r := NewRegistry()
	assert.Empty(t, r.Available())
	r.Register("custom", func() Formatter { return &PathsFormatter{} })
	assert.Equal(t, []string{"custom"}, r.Available())
}

func TestNewResult(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "big"), make([]byte, 2048), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "small"), make([]byte, 10), 0o644))

	cfg, err := ranker.NewScanConfig(ranker.Options{Root: dir, Recursive: true, Top: 5, Pattern: "big|small"})
	require.NoError(t, err)
	res, err := ranker.Rank(context.Background(), cfg)
	require.NoError(t, err)

	r := NewResult(cfg, res)
	require.Len(t, r.Entries, 2)
	assert.Equal(t, Entry{
		Rank:      1,
		Path:      filepath.Join(dir, "sub", "big"),
		Rel:       filepath.Join("sub", "big"),
		Size:      2048,
		SizeHuman: "2.00 KB",
	}, r.Entries[0])
	assert.Equal(t, 2, r.Entries[1].Rank)
	assert.Equal(t, "big|small", r.Pattern)
	assert.True(t, r.Recursive)
	assert.Equal(t, 5, r.Top)
	assert.Equal(t, uint64(2058), r.TotalSize())
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).Format(&buf, sampleResult()))

	want := "1. (1.50 MB) videos/clip.mp4\n" +
		"2. (2.00 KB) notes.txt\n" +
		"3. (12 B) a|b\n"
	assert.Equal(t, want, buf.String())
}

func TestTextFormatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).Format(&buf, &Result{Top: 10}))
	assert.Equal(t, "No matches\n", buf.String())
}

func TestFormatReport(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   string
	}{
		{
			name:   "recursive without pattern",
			result: sampleResult(),
			want: "top 3 largest files\n" +
				"in range [0, 18446744073709551615] bytes\n" +
				"in directory \"/data\" and all subdirectories\n" +
				"matching regex /^.*$/\n" +
				"----------\n" +
				"1. (1.50 MB) videos/clip.mp4\n" +
				"2. (2.00 KB) notes.txt\n" +
				"3. (12 B) a|b\n",
		},
		{
			name: "flat with pattern and no matches",
			result: &Result{
				Root:    "/tmp/x",
				MinSize: 3,
				MaxSize: 7,
				Pattern: "_[0-9]+byte",
				Top:     4,
			},
			want: "top 4 largest files\n" +
				"in range [3, 7] bytes\n" +
				"in directory \"/tmp/x\"\n" +
				"matching regex /^_[0-9]+byte$/\n" +
				"----------\n" +
				"No matches\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, FormatReport(&buf, tt.result))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than nothing"), 0o644))

	require.NoError(t, WriteReport(path, sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "top 3 largest files\n"))
	assert.True(t, strings.HasSuffix(string(data), "3. (12 B) a|b\n"))
}

func TestWriteReportFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "report.txt")
	err := WriteReport(path, sampleResult())
	require.Error(t, err)
	assert.Equal(t, exit.FileOpenFailed, exit.CodeOf(err))
}

func TestPlainFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, sampleResult()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "SIZE    PATH", lines[0])
	assert.Equal(t, "1.50 MB videos/clip.mp4", lines[1])
	assert.Equal(t, "12 B    a|b", lines[3])
}

func TestPathsAndNullFormatters(t *testing.T) {
	var paths bytes.Buffer
	require.NoError(t, (&PathsFormatter{Sep: '\n'}).Format(&paths, sampleResult()))
	assert.Equal(t, "/data/videos/clip.mp4\n/data/notes.txt\n/data/a|b\n", paths.String())

	nf, err := Get("null")
	require.NoError(t, err)
	var null bytes.Buffer
	require.NoError(t, nf.Format(&null, sampleResult()))
	assert.Equal(t, "/data/videos/clip.mp4\x00/data/notes.txt\x00/data/a|b\x00", null.String())

	var empty bytes.Buffer
	require.NoError(t, (&PathsFormatter{Sep: '\n'}).Format(&empty, &Result{}))
	assert.Empty(t, empty.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleResult()))

	var doc document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, sampleResult().Entries, doc.Files)
	assert.Equal(t, int64(1234), doc.Stats.FilesFound)
	assert.Equal(t, "1.5s", doc.Stats.Elapsed)
	assert.Equal(t, "/data", doc.Query.Root)
	assert.Equal(t, types.Unbounded, doc.Query.MaxSize)
	assert.Equal(t, 3, doc.Meta.TotalFiles)
	assert.Equal(t, uint64(1572864+2048+12), doc.Meta.TotalSize)
	assert.Contains(t, buf.String(), "\n  \"files\": [")
}

func TestJSONFormatterEmptyFilesIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, &Result{}))
	assert.Contains(t, buf.String(), `"files": []`)
}

func TestJSONLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONLFormatter{}).Format(&buf, sampleResult()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	var first Entry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, sampleResult().Entries[0], first)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, sampleResult()))

	var doc document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, sampleResult().Entries, doc.Files)
	assert.True(t, doc.Query.Recursive)
	assert.Contains(t, buf.String(), "size_human: 1.50 MB")
}

func TestTableFormatters(t *testing.T) {
	tests := []struct {
		name      string
		formatter Formatter
		want      string
	}{
		{
			name:      "tsv",
			formatter: &TSVFormatter{},
			want:      "RANK\tSIZE\tPATH\n1\t1572864\tvideos/clip.mp4\n2\t2048\tnotes.txt\n3\t12\ta|b\n",
		},
		{
			name:      "csv",
			formatter: &CSVFormatter{},
			want:      "rank,size,size_human,path\n1,1572864,1.50 MB,videos/clip.mp4\n2,2048,2.00 KB,notes.txt\n3,12,12 B,a|b\n",
		},
		{
			name:      "markdown",
			formatter: &MarkdownFormatter{},
			want: "| # | SIZE | PATH |\n|--:|-----:|------|\n" +
				"| 1 | 1.50 MB | videos/clip.mp4 |\n" +
				"| 2 | 2.00 KB | notes.txt |\n" +
				"| 3 | 12 B | a\\|b |\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.formatter.Format(&buf, sampleResult()))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyFormatter(t *testing.T) {
	var buf bytes.Buffer
	r := sampleResult()
	r.Pattern = "clip.*|notes.*|a.b"
	require.NoError(t, (&PrettyFormatter{theme: newTheme()}).Format(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "/data (recursive)")
	assert.Contains(t, out, "1,234 files in 2 dirs")
	assert.Contains(t, out, "1 entries skipped")
	assert.Contains(t, out, "videos/clip.mp4")
	assert.Contains(t, out, "1.50 MB")
	assert.Contains(t, out, "SIZE")
	assert.Contains(t, out, "3 of 3")
	assert.Contains(t, out, "/^clip.*|notes.*|a.b$/")
}

func TestPrettyFormatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{theme: newTheme()}).Format(&buf, &Result{Root: "/x", Top: 10, MaxSize: types.Unbounded}))

	out := buf.String()
	assert.Contains(t, out, "No matches")
	assert.NotContains(t, out, "Size:")
	assert.Contains(t, out, "0 of 10")
}

func TestFormatRangeAndDuration(t *testing.T) {
	assert.Equal(t, "3 B to unbounded", formatRange(3, types.Unbounded))
	assert.Equal(t, "0 B to 1.00 KB", formatRange(0, 1024))
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "2.5s", formatDuration(2500*time.Millisecond))
	assert.Equal(t, "2m 5s", formatDuration(125*time.Second))
	assert.Equal(t, "   ab", padLeft("ab", 5))
	assert.Equal(t, "abcdef", padLeft("abcdef", 3))
}
