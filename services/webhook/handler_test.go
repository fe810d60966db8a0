package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"loyalty-webhook-processor/pkg/config"
	"loyalty-webhook-processor/pkg/metrics"
	"loyalty-webhook-processor/services/testutil"
)

const testSecret = "super-secret-webhook-key"

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "job-1", Queue: "payment-events", Type: task.Type()}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Webhook.Secret = testSecret
	cfg.Queue.Name = "payment-events"
	cfg.Queue.MaxAttempts = 5
	return cfg
}

func newTestRouter(t *testing.T, queue Enqueuer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewService(ServiceParams{DB: testutil.NewTestDB(t, &Event{})})
	h := NewHandler(HandlerParams{
		Config:   testConfig(),
		Service:  svc,
		Queue:    queue,
		Observer: metrics.New(),
	})

	e := gin.New()
	e.POST("/webhooks/payment", h.HandlePayment)
	return e
}

func validPayload() []byte {
	return []byte(`{"eventId":"evt-1","type":"payment.completed","userId":"user-1","amount":2500,"currency":"USD","timestamp":"2025-01-02T03:04:05Z"}`)
}

func post(e *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestHandlePaymentMissingSignature(t *testing.T) {
	e := newTestRouter(t, &fakeEnqueuer{})

	w := post(e, validPayload(), "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "MISSING_SIGNATURE")
}

func TestHandlePaymentInvalidSignature(t *testing.T) {
	e := newTestRouter(t, &fakeEnqueuer{})

	body := validPayload()
	w := post(e, body, Sign(body, "a-completely-different-secret"))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "INVALID_SIGNATURE")
}

func TestHandlePaymentInvalidSignatureDespiteValidPayload(t *testing.T) {
	e := newTestRouter(t, &fakeEnqueuer{})

	// authentication is checked before validation; shape of the header alone
	// must reject the request
	w := post(e, validPayload(), "sha999=deadbeef")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandlePaymentInvalidPayload(t *testing.T) {
	e := newTestRouter(t, &fakeEnqueuer{})

	cases := map[string]string{
		"not json":       `not-json`,
		"missing event":  `{"type":"payment.completed","userId":"u","amount":100,"currency":"USD","timestamp":"2025-01-02T03:04:05Z"}`,
		"zero amount":    `{"eventId":"e","type":"t","userId":"u","amount":0,"currency":"USD","timestamp":"2025-01-02T03:04:05Z"}`,
		"negative":       `{"eventId":"e","type":"t","userId":"u","amount":-5,"currency":"USD","timestamp":"2025-01-02T03:04:05Z"}`,
		"short currency": `{"eventId":"e","type":"t","userId":"u","amount":100,"currency":"US","timestamp":"2025-01-02T03:04:05Z"}`,
	}

	for name, body := range cases {
		w := post(e, []byte(body), Sign([]byte(body), testSecret))
		require.Equal(t, http.StatusBadRequest, w.Code, name)
		require.Contains(t, w.Body.String(), "INVALID_PAYLOAD", name)
	}
}

func TestHandlePaymentAcceptsAndEnqueues(t *testing.T) {
	queue := &fakeEnqueuer{}
	e := newTestRouter(t, queue)

	body := validPayload()
	w := post(e, body, Sign(body, testSecret))
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp paymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "evt-1", resp.EventID)
	require.Equal(t, "job-1", resp.JobID)

	require.Len(t, queue.tasks, 1)
	require.Equal(t, TypeProcessPayment, queue.tasks[0].Type())

	var p PaymentEventPayload
	require.NoError(t, json.Unmarshal(queue.tasks[0].Payload(), &p))
	require.Equal(t, "evt-1", p.EventID)
	require.Equal(t, "user-1", p.UserID)
	require.Equal(t, int64(2500), p.Amount)
}

func TestHandlePaymentDuplicateReturnsOK(t *testing.T) {
	queue := &fakeEnqueuer{}
	e := newTestRouter(t, queue)

	body := validPayload()
	w := post(e, body, Sign(body, testSecret))
	require.Equal(t, http.StatusAccepted, w.Code)

	w = post(e, body, Sign(body, testSecret))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "already received")

	// only the first sighting enqueued a job
	require.Len(t, queue.tasks, 1)
}

func TestHandlePaymentEnqueueFailure(t *testing.T) {
	e := newTestRouter(t, &fakeEnqueuer{err: context.DeadlineExceeded})

	body := validPayload()
	w := post(e, body, Sign(body, testSecret))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
