package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Store.Driver)
	assert.Equal(t, "exclude-rejected", cfg.Report.ReviewPolicy)
	assert.Equal(t, 4, cfg.Report.Workers)
	assert.Equal(t, "strict", cfg.Names.Policy)
	assert.Equal(t, 20*time.Second, cfg.Names.Timeout)
	assert.Equal(t, "pdf", cfg.Output.Format)
	assert.Equal(t, 20, cfg.Limits.TopList)
	assert.Equal(t, 3.0, cfg.Limits.SingleListMaxHours)
	assert.Equal(t, "images", cfg.Media.Settings.Dir)
	assert.Equal(t, 1, cfg.Media.Photos)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeFile(t, "report.yaml", `
store:
  driver: postgres
  dsn: postgres://localhost/ebird
report:
  review_policy: include-all
  workers: 8
limits:
  top_list: 30
names:
  policy: placeholder
  ttl: 720h
media:
  dir: /tmp/photos
output:
  format: xlsx
publish:
  s3:
    bucket: reports
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "include-all", cfg.Report.ReviewPolicy)
	assert.Equal(t, 8, cfg.Report.Workers)
	assert.Equal(t, 30, cfg.Limits.TopList)
	assert.Equal(t, 10, cfg.Limits.MonthList)
	assert.Equal(t, "placeholder", cfg.Names.Policy)
	assert.Equal(t, 720*time.Hour, cfg.Names.TTL)
	assert.Equal(t, "/tmp/photos", cfg.Media.Settings.Dir)
	assert.Equal(t, "xlsx", cfg.Output.Format)
	assert.Equal(t, "reports", cfg.Publish.S3.Bucket)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("EBIRD_REPORT_OUTPUT_FORMAT", "latex")
	t.Setenv("EBIRD_REPORT_REPORT_WORKERS", "2")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "latex", cfg.Output.Format)
	assert.Equal(t, 2, cfg.Report.Workers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "format", content: "output:\n  format: docx\n"},
		{name: "driver", content: "store:\n  driver: mysql\n"},
		{name: "postgres without dsn", content: "store:\n  driver: postgres\n"},
		{name: "review policy", content: "report:\n  review_policy: sometimes\n"},
		{name: "names policy", content: "names:\n  policy: guess\n"},
		{name: "workers", content: "report:\n  workers: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "report.yaml", tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSubRegions(t *testing.T) {
	path := writeFile(t, "subregions.yaml", `
US-DC:
  - name: Ward 3
    wkt: POLYGON((-77.1 38.9, -77.0 38.9, -77.0 39.0, -77.1 38.9))
  - name: Ward 4
    wkt: POLYGON((-77.0 38.9, -76.9 38.9, -76.9 39.0, -77.0 38.9))
`)

	subs, err := LoadSubRegions(path)
	require.NoError(t, err)
	require.Len(t, subs.For("US-DC"), 2)
	assert.Equal(t, "Ward 3", subs.For("US-DC")[0].Name)
	assert.Empty(t, subs.For("US-MD"))

	empty, err := LoadSubRegions("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = LoadSubRegions(writeFile(t, "bad.yaml", "US-DC:\n  - name: Ward 1\n"))
	assert.Error(t, err)
}
