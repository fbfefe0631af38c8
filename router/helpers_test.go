package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-log-server/internal/db"
	"chat-log-server/internal/handlers"
	"chat-log-server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires real services over an in-memory database
func newTestRouter(t *testing.T) (*Router, *db.Database) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := db.SetupTestDB(t)
	messages := db.NewMessageRepository(database)
	contacts := db.NewContactRepository(database)
	alerts := db.NewAlertRepository(database)

	exclusion := services.NewExclusionService(db.NewFilterRepository(database))
	aggregation := services.NewAggregationService(messages, contacts, exclusion, services.AggregationOptions{
		ExclusionFilters: true,
		ContactDirectory: true,
	})

	h := &Handlers{
		Messages:   handlers.NewMessageHandler(services.NewMessageService(messages, alerts, true)),
		Contacts:   handlers.NewContactHandler(aggregation, services.NewContactService(contacts)),
		Automation: handlers.NewAutomationHandler(services.NewAutomationService(db.NewAutomationRepository(database))),
		Alerts:     handlers.NewAlertHandler(services.NewAlertService(alerts)),
		Filters:    handlers.NewFilterHandler(exclusion),
		Sessions:   handlers.NewSessionHandler(services.NewSessionService(messages, services.DefaultSessionWindow)),
	}

	r := NewRouter(h, Options{
		Version:      "test",
		Features:     []string{"exclusion_filters", "contact_directory"},
		MaxBodyBytes: 1 << 16,
		Store:        database,
	})
	return r, database
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
