package main

import (
	"context"
	"net/http"
	"time"

	"gigbook/internal/app/calendars"
	"gigbook/internal/app/contacts"
	"gigbook/internal/app/gigs"
	"gigbook/internal/app/reports"
	"gigbook/internal/app/shows"
	"gigbook/internal/app/venues"
	"gigbook/internal/httpapi"
	"gigbook/internal/instances"
	"gigbook/shared/go/config"
	"gigbook/shared/go/middleware"
)

// appStore is the persistence surface the server needs. Both the Postgres
// store and the in-memory store satisfy it.
type appStore interface {
	venues.Store
	shows.Store
	gigs.Store
	contacts.Store
	reports.Store
	calendars.Store
	instances.Store
	Ping(ctx context.Context) error
}

func newHTTPHandler(allowedOrigins []string, settings config.Settings, dataStore appStore, syncer *instances.Synchronizer, now func() time.Time) http.Handler {
	// Base services
	venueSvc := venues.New(dataStore, now)
	showSvc := shows.New(dataStore, venueSvc, now)
	contactSvc := contacts.New(dataStore, venueSvc, now)

	// Derived services
	gigSvc := gigs.New(dataStore, syncer, venueSvc, now)
	reportSvc := reports.New(dataStore, settings, now)
	calendarSvc := calendars.New(dataStore, now)

	routes := httpapi.New(venueSvc, showSvc, gigSvc, contactSvc, reportSvc, calendarSvc, dataStore).Routes()

	var handler http.Handler = routes
	handler = middleware.CORS(allowedOrigins)(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.Recovery()(handler)
	return handler
}
