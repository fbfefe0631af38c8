package services

import (
	"testing"
	"time"

	"chat-log-server/internal/db"
)

type testEnv struct {
	database    *db.Database
	messages    db.MessageRepository
	contacts    db.ContactRepository
	alerts      db.AlertRepository
	messageSvc  *MessageService
	exclusion   *ExclusionService
	aggregation *AggregationService
	alertSvc    *AlertService
	contactSvc  *ContactService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithOptions(t, AggregationOptions{ExclusionFilters: true, ContactDirectory: true}, true)
}

func newTestEnvWithOptions(t *testing.T, opts AggregationOptions, autoAlerts bool) *testEnv {
	t.Helper()

	database := db.SetupTestDB(t)
	env := &testEnv{
		database: database,
		messages: db.NewMessageRepository(database),
		contacts: db.NewContactRepository(database),
		alerts:   db.NewAlertRepository(database),
	}
	env.messageSvc = NewMessageService(env.messages, env.alerts, autoAlerts)
	env.exclusion = NewExclusionService(db.NewFilterRepository(database))
	env.aggregation = NewAggregationService(env.messages, env.contacts, env.exclusion, opts)
	env.alertSvc = NewAlertService(env.alerts)
	env.contactSvc = NewContactService(env.contacts)
	return env
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }
