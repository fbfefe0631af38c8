package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"chat-log-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMessageService is a mock implementation of MessageServiceInterface
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) LogMessage(ctx context.Context, req *models.LogMessageRequest) (*models.Message, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageService) LogDashboardMessage(ctx context.Context, req *models.DashboardMessageRequest) (*models.Message, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageService) UpdateMessage(ctx context.Context, id int64, patch models.MessagePatch) (*models.Message, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageService) DeleteMessage(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageService) DeleteConversation(ctx context.Context, phone string) (int64, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageService) ApplyDeliveryStatuses(ctx context.Context, updates []models.StatusUpdate) (*models.DeliveryStatusResult, error) {
	args := m.Called(ctx, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeliveryStatusResult), args.Error(1)
}

// MockAggregationService is a mock implementation of AggregationServiceInterface
type MockAggregationService struct {
	mock.Mock
}

func (m *MockAggregationService) ListContacts(ctx context.Context, onlyFollowUp bool) ([]*models.ContactSummary, error) {
	args := m.Called(ctx, onlyFollowUp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ContactSummary), args.Error(1)
}

func (m *MockAggregationService) GetConversation(ctx context.Context, phone string, limit, offset int) ([]*models.Message, error) {
	args := m.Called(ctx, phone, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

// MockContactService is a mock implementation of ContactServiceInterface
type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) GetContact(ctx context.Context, phone string) (*models.Contact, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockContactService) UpsertContact(ctx context.Context, phone, displayName, notes string) (*models.Contact, error) {
	args := m.Called(ctx, phone, displayName, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

// MockExclusionService is a mock implementation of ExclusionServiceInterface
type MockExclusionService struct {
	mock.Mock
}

func (m *MockExclusionService) GetFilters(ctx context.Context) (*models.ExclusionFilters, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExclusionFilters), args.Error(1)
}

func (m *MockExclusionService) SetFilters(ctx context.Context, filters *models.ExclusionFilters) (*models.ExclusionFilters, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExclusionFilters), args.Error(1)
}

func (m *MockExclusionService) ClearFilters(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockAutomationService is a mock implementation of AutomationServiceInterface
type MockAutomationService struct {
	mock.Mock
}

func (m *MockAutomationService) GetStatus(ctx context.Context, phone string) (*models.AutomationStatus, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AutomationStatus), args.Error(1)
}

func (m *MockAutomationService) SetEnabled(ctx context.Context, phone string, enabled bool) (*models.AutomationStatus, error) {
	args := m.Called(ctx, phone, enabled)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AutomationStatus), args.Error(1)
}

// MockAlertService is a mock implementation of AlertServiceInterface
type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) GetAlert(ctx context.Context, phone string) (*models.AlertFlag, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AlertFlag), args.Error(1)
}

func (m *MockAlertService) SetAlert(ctx context.Context, phone string, hasAlert bool) (*models.AlertFlag, error) {
	args := m.Called(ctx, phone, hasAlert)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AlertFlag), args.Error(1)
}

func (m *MockAlertService) ClearAlert(ctx context.Context, phone string) (*models.AlertFlag, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AlertFlag), args.Error(1)
}

func (m *MockAlertService) ListAlerts(ctx context.Context) ([]*models.AlertFlag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AlertFlag), args.Error(1)
}

// MockSessionService is a mock implementation of SessionServiceInterface
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) GetStatus(ctx context.Context, phone string) (*models.SessionStatus, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SessionStatus), args.Error(1)
}

// performRequest sends body (marshalled unless it is already a string) to
// router and returns the recorder.
func performRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeObject(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeArray(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
