package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jfyne/csvd"

	"github.com/stwalsh4118/publicrecords/internal/logger"
	"github.com/stwalsh4118/publicrecords/internal/models"
)

// Source yields the candidates for one unit of ledger work. Sessions or
// clients a source needs are held by the implementation and scoped to the
// call; nothing is shared between calls.
type Source interface {
	Name() string
	Candidates(ctx context.Context, producer models.PublicRecordProducer) ([]models.Candidate, error)
}

// fileTypeRules map clerk export file names to practice types. The first
// matching rule wins.
var fileTypeRules = []struct {
	re           *regexp.Regexp
	practiceType string
}{
	{regexp.MustCompile(`PROBAT`), "probate"},
	{regexp.MustCompile(`TENANT|EVICT`), "eviction"},
	{regexp.MustCompile(`WKCIVILGAR|CIVL`), "civil"},
	{regexp.MustCompile(`FELONY|MISDEM`), "criminal"},
	{regexp.MustCompile(`TCDISPO|TIDISPO|INFRAC|TRFFIC`), "traffic"},
}

// PracticeTypeFromFile derives the practice type from an export file name.
// Clerk export codes are tried first; otherwise a file named after a known
// practice type (e.g. "tax-lien.csv") is accepted. It returns "" when the
// file cannot be attributed.
func PracticeTypeFromFile(name string) string {
	base := filepath.Base(name)
	upper := strings.ToUpper(base)
	for _, rule := range fileTypeRules {
		if rule.re.MatchString(upper) {
			return rule.practiceType
		}
	}

	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	if models.PracticeTypeLabel(stem) != "" {
		return stem
	}
	return ""
}

// CSVSource reads delimited exports from DataDir/<state>/<county>/. The
// delimiter is sniffed per file, so comma, tab and pipe exports all load.
type CSVSource struct {
	name string
	dir  string
	log  *logger.Logger
}

// NewCSVSource creates a CSVSource registered in the ledger as name.
func NewCSVSource(name, dir string, log *logger.Logger) *CSVSource {
	return &CSVSource{name: name, dir: dir, log: log.WithComponent("csv-source")}
}

// Name returns the ledger source name.
func (s *CSVSource) Name() string {
	return s.name
}

// Candidates loads every attributable export file for the producer's county.
func (s *CSVSource) Candidates(ctx context.Context, producer models.PublicRecordProducer) ([]models.Candidate, error) {
	dir := filepath.Join(s.dir, strings.ToLower(producer.State), strings.ToLower(producer.County))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info("No export directory for producer", logger.Fields{"producer": producer.String(), "dir": dir})
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".csv" && ext != ".txt") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	var candidates []models.Candidate
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		practiceType := PracticeTypeFromFile(file)
		if practiceType == "" {
			s.log.Warn("Skipping export with unknown practice type", logger.Fields{"file": file})
			continue
		}

		product := models.ProductName(producer.State, producer.County, practiceType)
		loaded, err := s.readFile(filepath.Join(dir, file), product)
		if err != nil {
			return nil, err
		}
		s.log.Info("Loaded export", logger.Fields{
			"file":          file,
			"practice_type": practiceType,
			"candidates":    len(loaded),
		})
		candidates = append(candidates, loaded...)
	}
	return candidates, nil
}

func (s *CSVSource) readFile(path, product string) ([]models.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	candidates, err := ReadCandidates(f, product)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return candidates, nil
}

// ReadCandidates parses a delimited export whose first row is a header.
// Rows without a product column are assigned defaultProduct. Blank rows are
// dropped.
func ReadCandidates(r io.Reader, defaultProduct string) ([]models.Candidate, error) {
	reader := csvd.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var candidates []models.Candidate
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read line %d: %w", line, err)
		}

		record := make(map[string]string, len(header))
		for i, value := range row {
			if i < len(header) && header[i] != "" {
				record[header[i]] = value
			}
		}

		c := models.CandidateFromRecord(record)
		if isBlank(c) {
			continue
		}
		if c.ProductName == "" {
			c.ProductName = defaultProduct
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func isBlank(c models.Candidate) bool {
	return c.OwnerName() == "" && c.PropertyAddress == "" && c.MailingAddress == "" && len(c.Extra) == 0
}
