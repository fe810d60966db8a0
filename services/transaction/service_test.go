package transaction

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"loyalty-webhook-processor/pkg/middleware"
	"loyalty-webhook-processor/services/loyalty"
	"loyalty-webhook-processor/services/testutil"
)

var testNode *snowflake.Node

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	var err error
	testNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t, &loyalty.Transaction{})
	svc := NewService(ServiceParams{DB: db})

	e := gin.New()
	e.Use(middleware.Error())
	e.GET("/transactions", svc.ListTransactions)
	return e, db
}

func seed(t *testing.T, db *gorm.DB, n int, userID string) {
	t.Helper()

	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&loyalty.Transaction{
			ID:        testNode.Generate(),
			EventID:   fmt.Sprintf("%s-evt-%d", userID, i),
			UserID:    userID,
			Amount:    int64(100 * (i + 1)),
			Points:    int64(i + 1),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}).Error)
	}
}

func get(e *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	return w
}

func TestListTransactions(t *testing.T) {
	e, db := newTestRouter(t)
	seed(t, db, 3, "user-1")

	w := get(e, "/transactions")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Transactions []map[string]any `json:"transactions"`
		Count        int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Count)

	// newest first
	require.Equal(t, "user-1-evt-2", resp.Transactions[0]["eventId"])
}

func TestListTransactionsFilterByUser(t *testing.T) {
	e, db := newTestRouter(t)
	seed(t, db, 2, "user-1")
	seed(t, db, 3, "user-2")

	w := get(e, "/transactions?userId=user-2")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"count":3`)
}

func TestListTransactionsPagination(t *testing.T) {
	e, db := newTestRouter(t)
	seed(t, db, 5, "user-1")

	w := get(e, "/transactions?limit=2&offset=2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count  int `json:"count"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	require.Equal(t, 2, resp.Limit)
	require.Equal(t, 2, resp.Offset)
}

func TestListTransactionsClampsLimit(t *testing.T) {
	e, db := newTestRouter(t)
	seed(t, db, 1, "user-1")

	w := get(e, "/transactions?limit=99999")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"limit":1000`)
}

func TestListTransactionsInvalidParams(t *testing.T) {
	e, _ := newTestRouter(t)

	for _, url := range []string{
		"/transactions?limit=abc",
		"/transactions?limit=0",
		"/transactions?offset=-1",
	} {
		w := get(e, url)
		require.Equal(t, http.StatusBadRequest, w.Code, url)
	}
}
