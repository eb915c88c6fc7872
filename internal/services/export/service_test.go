package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/common"
	"github.com/ternarybob/roundtable/internal/interfaces"
)

type failingEncoder struct {
	format string
}

func (e failingEncoder) Encode(string) ([]byte, error) {
	return nil, errors.New("encoder exploded")
}

func (e failingEncoder) Format() string {
	return e.format
}

func newTestService(t *testing.T, docx, pdf bool) *Service {
	t.Helper()
	svc := NewService(&common.ExportConfig{
		OutputDir: t.TempDir(),
		DOCX:      docx,
		PDF:       pdf,
	}, NewFileSink(), arbor.NewLogger())
	svc.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}
	return svc
}

const testRunID = "run_3f2a9c1e-7b4d-4c1a-9e2f-0123456789ab"

const testBase = "remote_work_20260314_092653_3f2a9c1e7b4d4c1a9e2f0123456789ab"

const sampleReport = "# Remote Work\n\n## Insights\nWorkers value **flexibility**.\n\n## Sources\n[1] https://example.com\n"

func TestSanitizeTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"Remote Work", "remote_work"},
		{"  AI / ML: trends!  ", "ai_ml_trends"},
		{"", "report"},
		{"???", "report"},
		{"Ünïcode Topic", "n_code_topic"},
		{"a very long topic name that keeps going well past fifty characters", "a_very_long_topic_name_that_keeps_going_well_past"},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got := SanitizeTopic(tt.topic)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), 50)
		})
	}
}

func TestService_ExportWritesBothFormats(t *testing.T) {
	svc := newTestService(t, true, true)

	result, err := svc.Export(context.Background(), testRunID, "Remote Work", sampleReport)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(svc.OutputRoot(), testBase), result.Dir)
	assert.Equal(t, filepath.Join(result.Dir, testBase+".docx"), result.DOCXPath)
	assert.Equal(t, filepath.Join(result.Dir, testBase+".pdf"), result.PDFPath)
	assert.Empty(t, result.DOCXError)
	assert.Empty(t, result.PDFError)
	assert.GreaterOrEqual(t, result.PDFPages, 1)

	for _, path := range []string{result.DOCXPath, result.PDFPath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestService_ExportRespectsToggles(t *testing.T) {
	svc := newTestService(t, false, true)

	result, err := svc.Export(context.Background(), testRunID, "topic", sampleReport)
	require.NoError(t, err)
	assert.Empty(t, result.DOCXPath)
	assert.NotEmpty(t, result.PDFPath)
}

func TestService_ExportFormatsAreIndependent(t *testing.T) {
	svc := newTestService(t, true, true)
	svc.encoders = []interfaces.DocumentEncoder{NewDOCXEncoder(), failingEncoder{format: "pdf"}}

	result, err := svc.Export(context.Background(), testRunID, "topic", sampleReport)
	require.NoError(t, err)

	assert.FileExists(t, result.DOCXPath)
	assert.Empty(t, result.PDFPath)
	assert.Contains(t, result.PDFError, "encoder exploded")
}

func TestService_ExportAllFormatsFail(t *testing.T) {
	svc := newTestService(t, true, true)
	svc.encoders = []interfaces.DocumentEncoder{failingEncoder{format: "docx"}, failingEncoder{format: "pdf"}}

	result, err := svc.Export(context.Background(), testRunID, "topic", sampleReport)
	require.Error(t, err)
	assert.Equal(t, "docx", common.StageOf(err))
	assert.NotEmpty(t, result.DOCXError)
	assert.NotEmpty(t, result.PDFError)
}

func TestService_LongReportPaginates(t *testing.T) {
	svc := newTestService(t, false, true)

	report := "# Long\n"
	for i := 0; i < 150; i++ {
		report += "Paragraph line with enough words to be a realistic sentence of the report body.\n"
	}

	result, err := svc.Export(context.Background(), testRunID, "long", report)
	require.NoError(t, err)
	assert.Greater(t, result.PDFPages, 1)
}

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"plain", "report_20260314.pdf", true},
		{"empty", "", false},
		{"parent", "..", false},
		{"traversal", "../secret.pdf", false},
		{"separator", "a/b.pdf", false},
		{"backslash", `a\b.pdf`, false},
		{"absolute", "/etc/passwd", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileName(tt.input)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestService_FindAndRead(t *testing.T) {
	svc := newTestService(t, true, false)

	result, err := svc.Export(context.Background(), testRunID, "Remote Work", sampleReport)
	require.NoError(t, err)

	name := filepath.Base(result.DOCXPath)
	path, err := svc.Find(name)
	require.NoError(t, err)
	assert.Equal(t, result.DOCXPath, path)

	data, err := svc.Read(name)
	require.NoError(t, err)
	onDisk, err := os.ReadFile(result.DOCXPath)
	require.NoError(t, err)
	assert.Equal(t, onDisk, data)
}

func TestService_FindErrors(t *testing.T) {
	svc := newTestService(t, true, true)

	_, err := svc.Find("missing.pdf")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.Read("../escape.pdf")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestService_FindMissingRoot(t *testing.T) {
	svc := NewService(&common.ExportConfig{
		OutputDir: filepath.Join(t.TempDir(), "never-created"),
		PDF:       true,
	}, NewFileSink(), arbor.NewLogger())

	_, err := svc.Find("report.pdf")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestService_ExportSameTopicSameSecondKeepsRunsApart(t *testing.T) {
	svc := newTestService(t, true, true)

	first, err := svc.Export(context.Background(), "run_11111111-aaaa-4aaa-8aaa-aaaaaaaaaaaa", "Remote Work", sampleReport)
	require.NoError(t, err)
	firstDOCX, err := os.ReadFile(first.DOCXPath)
	require.NoError(t, err)
	firstPDF, err := os.ReadFile(first.PDFPath)
	require.NoError(t, err)

	second, err := svc.Export(context.Background(), "run_22222222-bbbb-4bbb-8bbb-bbbbbbbbbbbb", "Remote Work", "# Remote Work\n\nA different report\n")
	require.NoError(t, err)

	assert.NotEqual(t, first.Dir, second.Dir)
	assert.NotEqual(t, filepath.Base(first.DOCXPath), filepath.Base(second.DOCXPath))
	assert.NotEqual(t, filepath.Base(first.PDFPath), filepath.Base(second.PDFPath))

	docx, err := svc.Read(filepath.Base(first.DOCXPath))
	require.NoError(t, err)
	assert.Equal(t, firstDOCX, docx)

	pdf, err := svc.Read(filepath.Base(first.PDFPath))
	require.NoError(t, err)
	assert.Equal(t, firstPDF, pdf)
}

func TestRunSlug(t *testing.T) {
	assert.Equal(t, "3f2a9c1e7b4d4c1a9e2f0123456789ab", RunSlug(testRunID))
	assert.Equal(t, "abc123", RunSlug("ABC-123"))

	generated := RunSlug("")
	assert.Len(t, generated, 32)
	assert.NotEqual(t, generated, RunSlug(""))
}

func TestService_UnreadablePDFFontFailsOnlyPDF(t *testing.T) {
	svc := NewService(&common.ExportConfig{
		OutputDir: t.TempDir(),
		DOCX:      true,
		PDF:       true,
		PDFFont:   filepath.Join(t.TempDir(), "missing.ttf"),
	}, NewFileSink(), arbor.NewLogger())

	result, err := svc.Export(context.Background(), testRunID, "Remote Work", sampleReport)
	require.NoError(t, err)

	assert.FileExists(t, result.DOCXPath)
	assert.Empty(t, result.PDFPath)
	assert.Contains(t, result.PDFError, "failed to read PDF font")
}
