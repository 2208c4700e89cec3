package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/regbot/models"
	"github.com/use-agent/regbot/records"
)

// PostRun returns a handler for POST /api/v1/runs.
// It validates the records, queues the run and answers 202 with the run id.
func PostRun(svc RunService, maxRecords int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody(models.ErrCodeInvalidInput, err.Error()))
			return
		}

		recs, err := decodeRecords(req)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(models.ErrCodeInvalidInput, err.Error()))
			return
		}
		if maxRecords > 0 && len(recs) > maxRecords {
			c.JSON(http.StatusBadRequest, errorBody(models.ErrCodeInvalidInput,
				fmt.Sprintf("maximum %d records per run", maxRecords)))
			return
		}

		st, err := svc.Submit(recs, req.WebhookURL)
		if err != nil {
			var re *models.RunError
			if !errors.As(err, &re) {
				slog.Error("submitting run failed", "error", err)
				re = models.NewRunError(models.ErrCodeUnexpected, "failed to queue run", err)
			}
			c.JSON(submitStatus(re.Code), models.ErrorResponse{Error: re.ToDetail()})
			return
		}

		c.JSON(http.StatusAccepted, models.RunAccepted{
			ID:     st.ID,
			Status: st.Status,
			Total:  st.Total,
		})
	}
}

// submitStatus maps a Submit error code to its HTTP status.
func submitStatus(code string) int {
	switch code {
	case models.ErrCodeQueueFull, models.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeRecords takes records from exactly one of the JSON rows or CSV text.
func decodeRecords(req models.RunRequest) ([]models.Record, error) {
	hasRows, hasCSV := len(req.Records) > 0, strings.TrimSpace(req.CSV) != ""
	switch {
	case hasRows && hasCSV:
		return nil, errors.New("provide either records or csv, not both")
	case hasRows:
		return records.FromMaps(req.Records), nil
	case hasCSV:
		recs, err := records.Read(strings.NewReader(req.CSV))
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		if len(recs) == 0 {
			return nil, errors.New("csv has no data rows")
		}
		return recs, nil
	default:
		return nil, errors.New("records or csv is required")
	}
}

// GetRun returns a handler for GET /api/v1/runs/:id.
func GetRun(svc RunService) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, ok := svc.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, errorBody(models.ErrCodeNotFound, "run not found"))
			return
		}
		c.JSON(http.StatusOK, st)
	}
}
