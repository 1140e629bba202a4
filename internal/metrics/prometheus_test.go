package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/api/v1/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/items/:id", "200"))

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+id, nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/items/:id", "200"))
	assert.Equal(t, 3.0, after-before)
}

func TestBusinessHelpers(t *testing.T) {
	sentBefore := testutil.ToFloat64(remindersTotal.WithLabelValues("sent"))
	RecordReminder("sent")
	assert.Equal(t, 1.0, testutil.ToFloat64(remindersTotal.WithLabelValues("sent"))-sentBefore)

	cancelledBefore := testutil.ToFloat64(inboundMessagesTotal.WithLabelValues("cancelled"))
	RecordInboundMessage("cancelled")
	assert.Equal(t, 1.0, testutil.ToFloat64(inboundMessagesTotal.WithLabelValues("cancelled"))-cancelledBefore)

	runsBefore := testutil.ToFloat64(reminderRunsTotal.WithLabelValues("success"))
	RecordReminderRun("success", 2*time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(reminderRunsTotal.WithLabelValues("success"))-runsBefore)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	RecordDiagnosis(2)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "symptom_checks_total"))
}
