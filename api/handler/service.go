package handler

import "github.com/use-agent/regbot/models"

// RunService is the run queue the handlers front. *batch.Service satisfies it.
type RunService interface {
	Submit(recs []models.Record, webhookURL string) (models.RunStatus, error)
	Get(id string) (models.RunStatus, bool)
	Stats() models.QueueStats
}

func errorBody(code, msg string) models.ErrorResponse {
	return models.ErrorResponse{Error: models.NewRunError(code, msg, nil).ToDetail()}
}
