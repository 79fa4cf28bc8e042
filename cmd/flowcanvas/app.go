package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/h0rv/flowcanvas/internal/auth"
	"github.com/h0rv/flowcanvas/internal/config"
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/jira"
	"github.com/h0rv/flowcanvas/internal/jql"
	"github.com/h0rv/flowcanvas/internal/kv"
	"github.com/h0rv/flowcanvas/internal/logger"
	"github.com/h0rv/flowcanvas/internal/search"
	"github.com/h0rv/flowcanvas/internal/service"
	"github.com/rs/zerolog"
)

// errOffline is returned by commands that were wired without upstream access.
var errOffline = errors.New("upstream search is not available for this command")

// offlineTransport stands in for the tracker when a command only touches local state.
type offlineTransport struct{}

func (offlineTransport) Execute(context.Context, search.PageRequest) (domain.PageResult, error) {
	return domain.PageResult{}, errOffline
}

// setupOptions selects what a command needs wired.
type setupOptions struct {
	upstream bool
	// logToFile routes logs to the rotated file, for commands that own the terminal.
	logToFile bool
}

// app holds the wired components of one command invocation.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	svc    *service.Service
	store  kv.Store
	caller domain.Caller
	browse func(key string) string
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing store")
	}
}

func setup(ctx context.Context, opts setupOptions) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.logToFile && cfg.LogFile == "" {
		cfg.LogFile = config.DefaultLogPath()
	}
	log := logger.New(*cfg)

	transport, browse, err := buildTransport(cfg, opts.upstream, log)
	if err != nil {
		return nil, err
	}

	store, err := kv.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	scoper := jql.Scoper{DaysBack: cfg.Search.DaysBack, AlwaysBoundTime: cfg.Search.AlwaysBoundTime}
	fetcher := search.New(transport, scoper, log)

	return &app{
		cfg:    cfg,
		log:    log,
		svc:    service.New(fetcher, store, log),
		store:  store,
		caller: callerFrom(cfg.Caller, flagAccount, flagProject),
		browse: browse,
	}, nil
}

// buildTransport picks the search transport from config. Without upstream access only
// the browse link builder is wired.
func buildTransport(cfg *config.Config, upstream bool, log zerolog.Logger) (search.Transport, func(string) string, error) {
	var browse func(string) string
	if cfg.Jira.BaseURL != "" {
		browse = jira.NewClient(cfg.Jira.BaseURL, jira.Credentials{}, cfg.Jira.Timeout, log).BrowseURL
	}
	if !upstream {
		return offlineTransport{}, browse, nil
	}

	token, err := auth.GetToken(auth.DefaultProviders(cfg.Jira.APIToken, cfg.Jira.TokenCommand)...)
	if err != nil {
		return nil, nil, err
	}
	creds := jira.Credentials{Email: cfg.Jira.Email, Token: token}

	switch cfg.Jira.Transport {
	case config.TransportGraphQL:
		return jira.NewGraphQLTransport(cfg.Jira.GatewayURL, cfg.Caller.CloudID, creds, cfg.Jira.Timeout, log), browse, nil
	default:
		if cfg.Jira.BaseURL == "" {
			return nil, nil, errors.New("jira.base_url is required for the rest transport")
		}
		return jira.NewClient(cfg.Jira.BaseURL, creds, cfg.Jira.Timeout, log), browse, nil
	}
}

// callerFrom builds the caller identity from config, with non-empty flags taking precedence.
func callerFrom(c config.CallerConfig, account, project string) domain.Caller {
	caller := domain.Caller{AccountID: c.AccountID, CloudID: c.CloudID, ProjectKey: c.ProjectKey}
	if account != "" {
		caller.AccountID = account
	}
	if project != "" {
		caller.ProjectKey = project
	}
	return caller
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
