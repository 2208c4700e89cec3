package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/use-agent/regbot/batch"
	"github.com/use-agent/regbot/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type fakeService struct {
	submitted [][]models.Record
	webhook   string
	err       error
	runs      map[string]models.RunStatus
	stats     models.QueueStats
}

func (f *fakeService) Submit(recs []models.Record, webhookURL string) (models.RunStatus, error) {
	if f.err != nil {
		return models.RunStatus{}, f.err
	}
	f.submitted = append(f.submitted, recs)
	f.webhook = webhookURL
	return models.RunStatus{ID: "run-1", Status: models.RunQueued, Total: len(recs)}, nil
}

func (f *fakeService) Get(id string) (models.RunStatus, bool) {
	st, ok := f.runs[id]
	return st, ok
}

func (f *fakeService) Stats() models.QueueStats { return f.stats }

func newEngine(svc RunService) *gin.Engine {
	r := gin.New()
	r.POST("/runs", PostRun(svc, 3))
	r.GET("/runs/:id", GetRun(svc))
	r.GET("/health", Health(svc, time.Now(), "test"))
	return r
}

func post(t *testing.T, r http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, "/runs", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestPostRun_Records(t *testing.T) {
	svc := &fakeService{}
	w := post(t, newEngine(svc), models.RunRequest{
		Records: []map[string]string{
			{"name": "Ann", "email": "a@x.test", "phone": "1", "event": "Gala", "url": "https://x.test"},
		},
		WebhookURL: "https://hooks.test/done",
	})

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp models.RunAccepted
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.RunAccepted{ID: "run-1", Status: models.RunQueued, Total: 1}, resp)

	require.Len(t, svc.submitted, 1)
	assert.Equal(t, "Ann", svc.submitted[0][0].Value("name"))
	assert.Equal(t, "https://hooks.test/done", svc.webhook)
}

func TestPostRun_CSV(t *testing.T) {
	svc := &fakeService{}
	w := post(t, newEngine(svc), models.RunRequest{
		CSV: "name,email,phone,event,url\nAnn,a@x.test,1,Gala,https://x.test\nBob,b@x.test,2,Gala,https://x.test\n",
	})

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, svc.submitted, 1)
	assert.Len(t, svc.submitted[0], 2)
}

func TestPostRun_Invalid(t *testing.T) {
	row := map[string]string{"name": "Ann", "url": "https://x.test"}
	tests := []struct {
		name string
		body any
	}{
		{"malformed json", `{"records":`},
		{"empty", models.RunRequest{}},
		{"both", models.RunRequest{Records: []map[string]string{row}, CSV: "name\nAnn\n"}},
		{"csv header only", models.RunRequest{CSV: "name,url\n"}},
		{"too many", models.RunRequest{Records: []map[string]string{row, row, row, row}}},
		{"bad webhook", models.RunRequest{Records: []map[string]string{row}, WebhookURL: "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			w := post(t, newEngine(svc), tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, models.ErrCodeInvalidInput, errorCode(t, w))
			assert.Empty(t, svc.submitted)
		})
	}
}

func TestPostRun_QueueErrors(t *testing.T) {
	body := models.RunRequest{Records: []map[string]string{{"name": "Ann"}}}

	w := post(t, newEngine(&fakeService{err: batch.ErrQueueFull}), body)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, models.ErrCodeQueueFull, errorCode(t, w))

	w = post(t, newEngine(&fakeService{err: batch.ErrStopped}), body)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, models.ErrCodeUnavailable, errorCode(t, w))
}

func TestPostRun_ErrorDetail(t *testing.T) {
	body := models.RunRequest{Records: []map[string]string{{"name": "Ann"}}}

	w := post(t, newEngine(&fakeService{err: batch.ErrQueueFull}), body)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, batch.ErrQueueFull.ToDetail(), resp.Error)

	// Untyped errors are not leaked to the caller.
	w = post(t, newEngine(&fakeService{err: errors.New("disk on fire")}), body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp = models.ErrorResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrCodeUnexpected, resp.Error.Code)
	assert.Equal(t, "failed to queue run", resp.Error.Message)
}

func TestGetRun(t *testing.T) {
	svc := &fakeService{runs: map[string]models.RunStatus{
		"run-9": {ID: "run-9", Status: models.RunCompleted, Total: 1, Completed: 1,
			Summary: &models.Summary{Total: 1, Successful: 1}},
	}}
	r := newEngine(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/run-9", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var st models.RunStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, models.RunCompleted, st.Status)
	require.NotNil(t, st.Summary)
	assert.Equal(t, 1, st.Summary.Successful)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.ErrCodeNotFound, errorCode(t, w))
}

func TestHealth(t *testing.T) {
	tests := []struct {
		stats models.QueueStats
		want  string
	}{
		{models.QueueStats{Capacity: 10}, "healthy"},
		{models.QueueStats{Capacity: 10, Queued: 9}, "degraded"},
		{models.QueueStats{Capacity: 10, Stopped: true}, "stopping"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		newEngine(&fakeService{stats: tt.stats}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, tt.want, resp.Status)
		assert.Equal(t, "test", resp.Version)
	}
}
