package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/stwalsh4118/publicrecords/internal/errors"
	"github.com/stwalsh4118/publicrecords/internal/logger"
	"github.com/stwalsh4118/publicrecords/internal/middleware"
	"github.com/stwalsh4118/publicrecords/internal/services"
)

const queryDateLayout = "2006-01-02"

// OwnerProductPropertyHandler serves the aggregated owner/product/property query.
type OwnerProductPropertyHandler struct {
	aggregator services.QueryAggregator
}

// NewOwnerProductPropertyHandler creates a new OwnerProductPropertyHandler instance.
func NewOwnerProductPropertyHandler(aggregator services.QueryAggregator) *OwnerProductPropertyHandler {
	return &OwnerProductPropertyHandler{aggregator: aggregator}
}

// OwnerProductPropertiesRequest holds the query parameters of the endpoint.
// Filters is a JSON array of [field, pattern] pairs and PracticeType may be
// repeated or comma separated.
type OwnerProductPropertiesRequest struct {
	From         string   `form:"from" binding:"required,datetime=2006-01-02"`
	To           string   `form:"to" binding:"omitempty,datetime=2006-01-02"`
	State        string   `form:"state" binding:"omitempty,max=32"`
	County       string   `form:"county" binding:"omitempty,max=64"`
	Zip          string   `form:"zip" binding:"omitempty,max=10"`
	Filters      string   `form:"filters"`
	PracticeType []string `form:"practiceType"`
	PerPage      int      `form:"perPage" binding:"omitempty,min=1,max=1000"`
	CurrentPage  int      `form:"currentPage" binding:"omitempty,min=0"`
	GroupSize    int      `form:"groupSize" binding:"omitempty,min=0,max=20"`
}

// QueryResponse is the response body. Data holds the rows encoded as a JSON
// string, which is what existing clients parse.
type QueryResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Count   int64  `json:"count"`
	Error   string `json:"error,omitempty"`
}

// RejectToken writes a failed query response. Clients treat a rejected token
// as an application result, so the status stays 200.
func RejectToken(c *gin.Context, err error) {
	c.JSON(http.StatusOK, QueryResponse{Success: false, Error: "Invalid token: " + err.Error()})
}

// List handles GET /api/v1/owner-product-properties.
func (h *OwnerProductPropertyHandler) List(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req OwnerProductPropertiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	params, err := req.toParams()
	if err != nil {
		apierrors.BadRequest(c, err.Error(), map[string]any{"filters": req.Filters})
		return
	}

	if log != nil {
		log.Info("Processing owner-product-properties request", logger.Fields{
			"from":           req.From,
			"to":             req.To,
			"state":          params.State,
			"county":         params.County,
			"practice_types": params.PracticeTypes,
			"filters":        len(params.Filters),
			"page":           params.Page,
			"subject":        tokenSubject(c),
		})
	}

	result, err := h.aggregator.Query(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, services.ErrInvalidQuery) {
			apierrors.InvalidQuery(c, err)
			return
		}
		apierrors.InternalServerError(c, "Failed to query owner product properties", err)
		return
	}

	data, err := json.Marshal(result.Rows)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to encode query result", err)
		return
	}

	c.JSON(http.StatusOK, QueryResponse{
		Success: true,
		Data:    string(data),
		Count:   result.Count,
	})
}

// tokenSubject names the caller for request logs.
func tokenSubject(c *gin.Context) string {
	if claims := middleware.GetClaims(c); claims != nil {
		return claims.Subject
	}
	return ""
}

func (r OwnerProductPropertiesRequest) toParams() (services.QueryParams, error) {
	params := services.QueryParams{
		State:     r.State,
		County:    r.County,
		Zip:       r.Zip,
		Page:      r.CurrentPage,
		PerPage:   r.PerPage,
		GroupSize: r.GroupSize,
	}

	// Both dates were checked by the datetime binding.
	params.From, _ = time.Parse(queryDateLayout, r.From)
	if r.To != "" {
		params.To, _ = time.Parse(queryDateLayout, r.To)
	}

	for _, v := range r.PracticeType {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				params.PracticeTypes = append(params.PracticeTypes, t)
			}
		}
	}

	filters, err := parseFilters(r.Filters)
	if err != nil {
		return params, err
	}
	params.Filters = filters
	return params, nil
}

func parseFilters(raw string) ([]services.Filter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var pairs [][2]string
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, errors.New("filters must be a JSON array of [field, pattern] pairs")
	}
	filters := make([]services.Filter, 0, len(pairs))
	for _, p := range pairs {
		filters = append(filters, services.Filter{Field: p[0], Value: p[1]})
	}
	return filters, nil
}
