package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"chat-log-server/internal/models"
	"chat-log-server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newMessageRouter(svc *MockMessageService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewMessageHandler(svc)
	router := gin.New()
	router.POST("/log", handler.LogMessage)
	router.POST("/log-dashboard", handler.LogDashboardMessage)
	router.PATCH("/message/:id", handler.UpdateMessage)
	router.DELETE("/message/:id", handler.DeleteMessage)
	router.DELETE("/conversation/:phone", handler.DeleteConversation)
	router.POST("/delivery-status", handler.DeliveryStatus)
	return router
}

// TestMessageHandler_LogMessage tests the LogMessage handler
func TestMessageHandler_LogMessage(t *testing.T) {
	ts := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		requestBody    interface{}
		mockSetup      func(*MockMessageService)
		expectedStatus int
		checkResponse  func(*testing.T, map[string]interface{})
	}{
		{
			name: "successful log",
			requestBody: map[string]interface{}{
				"phone":     "+1555",
				"direction": "incoming",
				"message":   "hi",
			},
			mockSetup: func(m *MockMessageService) {
				m.On("LogMessage", mock.Anything, mock.MatchedBy(func(req *models.LogMessageRequest) bool {
					return req.Phone == "+1555" && req.Direction == "incoming" && req.Message == "hi"
				})).Return(&models.Message{
					ID: 1, Phone: "+1555", Direction: models.DirectionUser, Body: "hi", Timestamp: ts,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				assert.Equal(t, float64(1), resp["id"])
				assert.Equal(t, "user", resp["direction"])
				assert.Equal(t, "hi", resp["message"])
			},
		},
		{
			name:           "missing required field",
			requestBody:    map[string]interface{}{"phone": "+1555", "direction": "user"},
			mockSetup:      func(m *MockMessageService) {},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				assert.Contains(t, resp["error"], "Invalid request format")
			},
		},
		{
			name: "timestamp without zone",
			requestBody: map[string]interface{}{
				"phone":     "+1555",
				"direction": "user",
				"message":   "hi",
				"timestamp": "2025-05-01T10:00:00",
			},
			mockSetup: func(m *MockMessageService) {
				m.On("LogMessage", mock.Anything, mock.MatchedBy(func(req *models.LogMessageRequest) bool {
					return req.Timestamp != nil && req.Timestamp.Equal(ts)
				})).Return(&models.Message{
					ID: 1, Phone: "+1555", Direction: models.DirectionUser, Body: "hi", Timestamp: ts,
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "unparseable timestamp",
			requestBody: map[string]interface{}{
				"phone":     "+1555",
				"direction": "user",
				"message":   "hi",
				"timestamp": "yesterday",
			},
			mockSetup:      func(m *MockMessageService) {},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				assert.Equal(t, "Invalid request format", resp["error"])
			},
		},
		{
			name:           "malformed json",
			requestBody:    `{"phone":`,
			mockSetup:      func(m *MockMessageService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid direction",
			requestBody: map[string]interface{}{
				"phone": "+1555", "direction": "sideways", "message": "hi",
			},
			mockSetup: func(m *MockMessageService) {
				m.On("LogMessage", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: sideways", services.ErrInvalidDirection))
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				assert.Contains(t, resp["error"], "invalid direction")
			},
		},
		{
			name: "storage failure",
			requestBody: map[string]interface{}{
				"phone": "+1555", "direction": "user", "message": "hi",
			},
			mockSetup: func(m *MockMessageService) {
				m.On("LogMessage", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))
			},
			expectedStatus: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				assert.Equal(t, "Failed to log message", resp["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockMessageService)
			tt.mockSetup(svc)
			router := newMessageRouter(svc)

			w := performRequest(t, router, http.MethodPost, "/log", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, decodeObject(t, w))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestMessageHandler_LogDashboardMessage(t *testing.T) {
	svc := new(MockMessageService)
	router := newMessageRouter(svc)

	handledBy := services.DefaultDashboardUser
	svc.On("LogDashboardMessage", mock.Anything, mock.MatchedBy(func(req *models.DashboardMessageRequest) bool {
		return req.Phone == "+1555" && req.Timestamp == "2025-05-01T10:00:00Z"
	})).Return(&models.Message{
		ID: 7, Phone: "+1555", Direction: models.DirectionDashboard, Body: "on it", HandledBy: &handledBy,
	}, nil)

	w := performRequest(t, router, http.MethodPost, "/log-dashboard", map[string]interface{}{
		"phone": "+1555", "message": "on it", "timestamp": "2025-05-01T10:00:00Z", "direction": "outgoing",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeObject(t, w)
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, float64(7), resp["id"])
	msg := resp["message"].(map[string]interface{})
	assert.Equal(t, "dashboard", msg["direction"])
	svc.AssertExpectations(t)

	t.Run("timestamp is required", func(t *testing.T) {
		w := performRequest(t, router, http.MethodPost, "/log-dashboard", map[string]interface{}{
			"phone": "+1555", "message": "on it",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMessageHandler_UpdateMessage(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		requestBody    interface{}
		mockSetup      func(*MockMessageService)
		expectedStatus int
	}{
		{
			name:        "partial update",
			path:        "/message/2",
			requestBody: map[string]interface{}{"follow_up_needed": false},
			mockSetup: func(m *MockMessageService) {
				m.On("UpdateMessage", mock.Anything, int64(2), models.MessagePatch{FollowUpNeeded: boolPtr(false)}).
					Return(&models.Message{ID: 2, FollowUpNeeded: false}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "notes and handler",
			path:        "/message/3",
			requestBody: map[string]interface{}{"handled_by": "Maria", "notes": "called"},
			mockSetup: func(m *MockMessageService) {
				m.On("UpdateMessage", mock.Anything, int64(3), models.MessagePatch{HandledBy: strPtr("Maria"), Notes: strPtr("called")}).
					Return(&models.Message{ID: 3}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "not found",
			path:        "/message/404",
			requestBody: map[string]interface{}{"notes": "x"},
			mockSetup: func(m *MockMessageService) {
				m.On("UpdateMessage", mock.Anything, int64(404), mock.Anything).Return(nil, services.ErrMessageNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid id",
			path:           "/message/abc",
			requestBody:    map[string]interface{}{"notes": "x"},
			mockSetup:      func(m *MockMessageService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "wrong field type",
			path:           "/message/2",
			requestBody:    map[string]interface{}{"follow_up_needed": "yes"},
			mockSetup:      func(m *MockMessageService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockMessageService)
			tt.mockSetup(svc)
			router := newMessageRouter(svc)

			w := performRequest(t, router, http.MethodPatch, tt.path, tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestMessageHandler_Delete(t *testing.T) {
	svc := new(MockMessageService)
	router := newMessageRouter(svc)

	svc.On("DeleteMessage", mock.Anything, int64(5)).Return(int64(1), nil)
	svc.On("DeleteMessage", mock.Anything, int64(6)).Return(int64(0), services.ErrMessageNotFound)
	svc.On("DeleteConversation", mock.Anything, "+1555").Return(int64(3), nil)
	svc.On("DeleteConversation", mock.Anything, "+404").Return(int64(0), services.ErrConversationNotFound)

	w := performRequest(t, router, http.MethodDelete, "/message/5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeObject(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(1), resp["deleted_count"])
	assert.Equal(t, "Message 5 deleted successfully", resp["message"])

	w = performRequest(t, router, http.MethodDelete, "/message/6", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "message not found", decodeObject(t, w)["error"])

	w = performRequest(t, router, http.MethodDelete, "/conversation/+1555", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp = decodeObject(t, w)
	assert.Equal(t, float64(3), resp["deleted_count"])
	assert.Equal(t, "Deleted 3 messages for +1555", resp["message"])

	w = performRequest(t, router, http.MethodDelete, "/conversation/+404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no messages found for this phone", decodeObject(t, w)["error"])

	svc.AssertExpectations(t)
}

func TestMessageHandler_DeliveryStatus(t *testing.T) {
	payload := `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages",
		"value":{"statuses":[{"id":"wamid.A","status":"read"},{"id":"wamid.B","status":"delivered"}]}}]}]}`

	tests := []struct {
		name           string
		body           string
		mockSetup      func(*MockMessageService)
		expectedStatus int
		checkResponse  func(*testing.T, map[string]interface{})
	}{
		{
			name: "applies every status",
			body: payload,
			mockSetup: func(m *MockMessageService) {
				m.On("ApplyDeliveryStatuses", mock.Anything, []models.StatusUpdate{
					{ProviderMessageID: "wamid.A", Status: models.DeliveryRead},
					{ProviderMessageID: "wamid.B", Status: models.DeliveryDelivered},
				}).Return(&models.DeliveryStatusResult{Success: true, Updated: 1, Unmatched: []string{"wamid.B"}}, nil)
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				assert.Equal(t, true, resp["success"])
				assert.Equal(t, float64(1), resp["updated"])
				assert.Equal(t, []interface{}{"wamid.B"}, resp["unmatched"])
			},
		},
		{
			name:           "missing nesting",
			body:           `{"object":"whatsapp_business_account","entry":[]}`,
			mockSetup:      func(m *MockMessageService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not json",
			body:           `statuses`,
			mockSetup:      func(m *MockMessageService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown status",
			body: `{"entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.A","status":"exploded"}]}}]}]}`,
			mockSetup: func(m *MockMessageService) {
				m.On("ApplyDeliveryStatuses", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: exploded", services.ErrInvalidDeliveryStatus))
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockMessageService)
			tt.mockSetup(svc)
			router := newMessageRouter(svc)

			w := performRequest(t, router, http.MethodPost, "/delivery-status", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, decodeObject(t, w))
			}
			svc.AssertExpectations(t)
		})
	}
}
