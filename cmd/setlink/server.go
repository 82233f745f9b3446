package main

import (
	"net/http"

	"github.com/harumakino16/setlink/internal/app/feedback"
	"github.com/harumakino16/setlink/internal/app/imports"
	"github.com/harumakino16/setlink/internal/app/publicpages"
	"github.com/harumakino16/setlink/internal/app/reports"
	"github.com/harumakino16/setlink/internal/app/roulette"
	"github.com/harumakino16/setlink/internal/app/setlists"
	"github.com/harumakino16/setlink/internal/app/songs"
	"github.com/harumakino16/setlink/internal/app/users"
	"github.com/harumakino16/setlink/internal/auth"
	"github.com/harumakino16/setlink/internal/httpapi"
	"github.com/harumakino16/setlink/internal/mailer"
	"github.com/harumakino16/setlink/internal/middleware"
	"github.com/harumakino16/setlink/internal/store"
	"github.com/harumakino16/setlink/internal/youtube"
)

// services bundles everything built on top of the store.
type services struct {
	reports *reports.Service
	handler http.Handler
}

func buildServices(cfg Config, dataStore *store.Store) *services {
	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)

	ytClient := youtube.NewClient("")
	ytOAuth := youtube.NewOAuth(cfg.YouTubeClientID, cfg.YouTubeClientSecret, cfg.YouTubeRedirectURL)

	mail := mailer.New(dataStore, cfg.AdminEmail)

	userSvc := users.New(dataStore, tokens)
	songSvc := songs.New(dataStore)
	setlistSvc := setlists.New(dataStore)
	pageSvc := publicpages.New(dataStore)
	rouletteSvc := roulette.New(dataStore, 0)
	importSvc := imports.New(dataStore, ytClient, ytOAuth)
	feedbackSvc := feedback.New(dataStore, mail)
	reportSvc := reports.New(dataStore, mail)

	api := httpapi.New(userSvc, songSvc, setlistSvc, pageSvc, rouletteSvc,
		importSvc, feedbackSvc, reportSvc, tokens)

	handler := middleware.RequestLogging()(
		middleware.Recovery()(
			middleware.CORS(cfg.AllowedOrigins)(api.Routes())))

	return &services{reports: reportSvc, handler: handler}
}
