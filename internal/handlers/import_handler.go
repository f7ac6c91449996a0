package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/stwalsh4118/publicrecords/internal/errors"
	"github.com/stwalsh4118/publicrecords/internal/ingest"
	"github.com/stwalsh4118/publicrecords/internal/logger"
	"github.com/stwalsh4118/publicrecords/internal/middleware"
	"github.com/stwalsh4118/publicrecords/internal/models"
)

// DefaultImportTimeout bounds a synchronous upload.
const DefaultImportTimeout = 30 * time.Minute

// practiceTypePattern accepts product path segments such as "tax-lien". Clerk
// exports also produce types without a display label (civil, traffic).
var practiceTypePattern = regexp.MustCompile(`^[a-z]+(-[a-z]+)*$`)

// CandidateProcessor upserts a batch of candidates and reports the outcome.
// *ingest.Driver implements it.
type CandidateProcessor interface {
	Process(ctx context.Context, label string, candidates []models.Candidate) (*ingest.Report, error)
}

// ImportHandler accepts CSV uploads and feeds them to the upsert engine.
type ImportHandler struct {
	processor CandidateProcessor
	timeout   time.Duration
}

// NewImportHandler creates a new ImportHandler. A zero timeout uses
// DefaultImportTimeout.
func NewImportHandler(processor CandidateProcessor, timeout time.Duration) *ImportHandler {
	if timeout <= 0 {
		timeout = DefaultImportTimeout
	}
	return &ImportHandler{processor: processor, timeout: timeout}
}

// ImportRequest holds the form or query fields of an upload. PracticeType
// defaults to the one implied by the file name.
type ImportRequest struct {
	PracticeType string `form:"practiceType" binding:"omitempty,max=32"`
	State        string `form:"state" binding:"required,len=2,alpha"`
	County       string `form:"county" binding:"required,max=64"`
}

// ImportResponse reports what the upload did.
type ImportResponse struct {
	Report  *ingest.Report `json:"report"`
	Product string         `json:"product"`
	Success bool           `json:"success"`
}

// Import handles POST /api/v1/import.
func (h *ImportHandler) Import(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req ImportRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid import parameters", nil)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "A file upload named \"file\" is required", nil)
		return
	}

	practiceType := strings.ToLower(strings.TrimSpace(req.PracticeType))
	if practiceType == "" {
		practiceType = ingest.PracticeTypeFromFile(header.Filename)
	}
	if !practiceTypePattern.MatchString(practiceType) {
		apierrors.BadRequest(c, "Unknown practice type", map[string]any{
			"practiceType": practiceType,
			"file":         header.Filename,
		})
		return
	}
	product := models.ProductName(req.State, req.County, practiceType)

	f, err := header.Open()
	if err != nil {
		apierrors.InternalServerError(c, "Failed to open upload", err)
		return
	}
	defer f.Close()

	candidates, err := ingest.ReadCandidates(f, product)
	if err != nil {
		apierrors.BadRequest(c, "Unreadable CSV upload", map[string]any{"reason": err.Error()})
		return
	}

	if log != nil {
		log.Info("Processing import", logger.Fields{
			"file":       header.Filename,
			"product":    product,
			"candidates": len(candidates),
			"subject":    tokenSubject(c),
		})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	report, err := h.processor.Process(ctx, product, candidates)
	if err != nil {
		apierrors.InternalServerError(c, "Import stopped before all rows were stored", err)
		return
	}

	c.JSON(http.StatusOK, ImportResponse{Success: true, Product: product, Report: report})
}
