package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/roundtable/internal/common"
	"github.com/ternarybob/roundtable/internal/interfaces"
	"github.com/ternarybob/roundtable/internal/models"
)

const maxTopicLength = 50

var unsafeTopicChars = regexp.MustCompile(`[^a-z0-9]+`)

// Service writes a report to every enabled format under the output root.
// Each report gets its own directory named from the topic, a timestamp and
// the run it belongs to.
type Service struct {
	outputRoot string
	encoders   []interfaces.DocumentEncoder
	sink       interfaces.FileSink
	logger     arbor.ILogger
	now        func() time.Time
}

// NewService creates the exporter for the formats enabled in config
func NewService(config *common.ExportConfig, sink interfaces.FileSink, logger arbor.ILogger) *Service {
	var encoders []interfaces.DocumentEncoder
	if config.DOCX {
		encoders = append(encoders, NewDOCXEncoder())
	}
	if config.PDF {
		var opts []PDFOption
		if config.PDFFont != "" {
			opts = append(opts, WithUTF8Font(config.PDFFont, config.PDFFontBold))
		}
		encoders = append(encoders, NewPDFEncoder(opts...))
	}

	return &Service{
		outputRoot: config.OutputDir,
		encoders:   encoders,
		sink:       sink,
		logger:     logger,
		now:        time.Now,
	}
}

// OutputRoot returns the directory reports are written under
func (s *Service) OutputRoot() string {
	return s.outputRoot
}

// SanitizeTopic turns a topic into a lowercase filesystem-safe name
func SanitizeTopic(topic string) string {
	name := unsafeTopicChars.ReplaceAllString(strings.ToLower(topic), "_")
	name = strings.Trim(name, "_")
	if len(name) > maxTopicLength {
		name = strings.TrimRight(name[:maxTopicLength], "_")
	}
	if name == "" {
		return "report"
	}
	return name
}

// RunSlug reduces a run id to the lowercase alphanumerics used in file names.
// An empty result is replaced by a fresh uuid so names never collide.
func RunSlug(runID string) string {
	slug := unsafeTopicChars.ReplaceAllString(strings.TrimPrefix(strings.ToLower(runID), "run_"), "")
	if slug == "" {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return slug
}

// Export encodes report in every enabled format and writes each file before
// returning. Formats are independent: one failing leaves the others intact and
// is recorded on the result. An error is returned only when no format succeeded.
// Names are <topic>_<yyyymmdd_hhmmss>_<run>, so runs never share files.
func (s *Service) Export(ctx context.Context, runID, topic, report string) (*models.ExportResult, error) {
	base := fmt.Sprintf("%s_%s_%s", SanitizeTopic(topic), s.now().Format("20060102_150405"), RunSlug(runID))
	result := &models.ExportResult{
		Dir: filepath.Join(s.outputRoot, base),
	}

	succeeded := 0
	var failures []error
	for _, encoder := range s.encoders {
		format := encoder.Format()
		path := filepath.Join(result.Dir, base+"."+format)

		if err := s.writeFormat(ctx, encoder, path, report); err != nil {
			exportErr := common.NewExportError(format, err)
			failures = append(failures, exportErr)
			s.recordFailure(result, format, exportErr)
			s.logger.Error().
				Str("format", format).
				Str("path", path).
				Err(err).
				Msg("Export format failed")
			continue
		}

		succeeded++
		s.recordSuccess(result, format, path)
	}

	if succeeded == 0 && len(failures) > 0 {
		return result, errors.Join(failures...)
	}

	s.logger.Info().
		Str("dir", result.Dir).
		Str("docx", result.DOCXPath).
		Str("pdf", result.PDFPath).
		Int("pdf_pages", result.PDFPages).
		Msg("Report exported")

	return result, nil
}

func (s *Service) writeFormat(ctx context.Context, encoder interfaces.DocumentEncoder, path, report string) error {
	data, err := encoder.Encode(report)
	if err != nil {
		return err
	}
	return s.sink.Write(ctx, path, data)
}

func (s *Service) recordSuccess(result *models.ExportResult, format, path string) {
	switch format {
	case "docx":
		result.DOCXPath = path
	case "pdf":
		result.PDFPath = path
		pages, err := PageCount(path)
		if err != nil {
			s.logger.Warn().
				Str("path", path).
				Err(err).
				Msg("Could not verify PDF page count")
			return
		}
		result.PDFPages = pages
	}
}

func (s *Service) recordFailure(result *models.ExportResult, format string, err error) {
	switch format {
	case "docx":
		result.DOCXError = err.Error()
	case "pdf":
		result.PDFError = err.Error()
	}
}

// PageCount reads a written PDF back with pdfcpu and returns its page count
func PageCount(path string) (int, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return pdfCtx.PageCount, nil
}

// ValidateFileName rejects names that could escape the output root
func ValidateFileName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return common.NewValidationError("file name is required")
	case strings.Contains(name, ".."):
		return common.NewValidationError("file name must not contain '..'")
	case strings.ContainsAny(name, `/\`):
		return common.NewValidationError("file name must not contain path separators")
	case filepath.IsAbs(name) || filepath.VolumeName(name) != "":
		return common.NewValidationError("file name must not be an absolute path")
	}
	return nil
}

// Find searches the output root recursively for a file with exactly this name
func (s *Service) Find(name string) (string, error) {
	if err := ValidateFileName(name); err != nil {
		return "", err
	}

	var found string
	err := filepath.WalkDir(s.outputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search output directory: %w", err)
	}

	if found == "" {
		return "", common.NewNotFoundError("file %s not found", name)
	}
	return found, nil
}

// Read returns the contents of the named file under the output root
func (s *Service) Read(name string) ([]byte, error) {
	path, err := s.Find(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
