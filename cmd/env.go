package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/compose"
	"github.com/sells-group/outreach-cli/internal/contact"
	"github.com/sells-group/outreach-cli/internal/dispatch"
	"github.com/sells-group/outreach-cli/internal/fetch"
	"github.com/sells-group/outreach-cli/internal/outreach"
	"github.com/sells-group/outreach-cli/internal/runlog"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
	"github.com/sells-group/outreach-cli/pkg/gmail"
	"github.com/sells-group/outreach-cli/pkg/googleauth"
	"github.com/sells-group/outreach-cli/pkg/sheets"
)

var (
	gmailScopes = []string{
		"https://www.googleapis.com/auth/gmail.compose",
		"https://www.googleapis.com/auth/gmail.send",
	}
	sheetsScopes = []string{
		"https://www.googleapis.com/auth/spreadsheets",
	}
)

// pipelineEnv wires the outreach pipeline from configuration.
type pipelineEnv struct {
	Store        contact.Store
	Session      *outreach.Session
	Orchestrator *outreach.Orchestrator
	RunLog       runlog.Store
}

func (e *pipelineEnv) Close() {
	if e.RunLog != nil {
		if err := e.RunLog.Close(); err != nil {
			zap.L().Warn("close run log", zap.Error(err))
		}
	}
}

// openSheetStore builds the spreadsheet-backed contact store.
func openSheetStore(key []byte) (contact.Store, sheets.Client, error) {
	tokens, err := googleauth.NewServiceAccount(
		cfg.Gmail.ServiceAccountEmail, cfg.Gmail.UserEmail, sheetsScopes, key,
		googleauth.WithTokenURL(cfg.Gmail.TokenURL),
	)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sheets token source")
	}
	client := sheets.NewClient(cfg.Sheets.SpreadsheetID, tokens,
		sheets.WithBaseURL(cfg.Sheets.BaseURL))
	return contact.NewSheetStore(client, cfg.Sheets.LeadTable), client, nil
}

func loadPrivateKey() ([]byte, error) {
	key, err := os.ReadFile(cfg.Gmail.PrivateKeyPath)
	if err != nil {
		return nil, eris.Wrapf(err, "read private key %s", cfg.Gmail.PrivateKeyPath)
	}
	return key, nil
}

// initPipeline wires every component for a full outreach run.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	key, err := loadPrivateKey()
	if err != nil {
		return nil, err
	}

	store, sheetClient, err := openSheetStore(key)
	if err != nil {
		return nil, err
	}

	mailTokens, err := googleauth.NewServiceAccount(
		cfg.Gmail.ServiceAccountEmail, cfg.Gmail.UserEmail, gmailScopes, key,
		googleauth.WithTokenURL(cfg.Gmail.TokenURL),
	)
	if err != nil {
		return nil, eris.Wrap(err, "gmail token source")
	}

	session, err := outreach.NewSession(ctx, mailTokens, sheetClient)
	if err != nil {
		return nil, err
	}

	registry, err := compose.LoadRegistry()
	if err != nil {
		return nil, err
	}
	composer := compose.New(anthropic.NewClient(cfg.Anthropic.Key), registry, cfg.Anthropic)

	mailClient := gmail.NewClient(
		gmail.WithBaseURL(cfg.Gmail.BaseURL),
		gmail.WithTimeout(time.Duration(cfg.Gmail.APITimeoutSecs)*time.Second),
	)
	dispatcher := dispatch.New(mailClient, mailTokens, cfg.Gmail.FromEmail, cfg.Gmail.MaxRetries)

	fetcher := fetch.New(cfg.Fetch)
	processor := outreach.NewProcessor(store, fetcher, composer, dispatcher)

	runs, err := runlog.Open(ctx, cfg.RunLog)
	if err != nil {
		return nil, err
	}
	if err := runs.Migrate(ctx); err != nil {
		runs.Close()
		return nil, err
	}

	return &pipelineEnv{
		Store:        store,
		Session:      session,
		Orchestrator: outreach.NewOrchestrator(store, processor, session, runs, cfg.Outreach),
		RunLog:       runs,
	}, nil
}
