package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/janekbaraniewski/tokencat/internal/config"
	"github.com/janekbaraniewski/tokencat/internal/credentials"
	"github.com/janekbaraniewski/tokencat/internal/usageapi"
)

// app is the wiring shared by every command.
type app struct {
	cfg        config.Config
	configPath string
	logger     *zap.Logger

	store     credentials.Store
	watchPath string
	client    *usageapi.Client
}

func (o *rootOptions) load() (*app, error) {
	cfg, err := config.LoadFrom(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", o.configPath, err)
	}

	logger, err := newLogger(o.debug, config.LogPath())
	if err != nil {
		return nil, err
	}

	store, watchPath, err := credentials.Open(cfg.CredentialSource, cfg.CredentialsFile, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded",
		zap.String("config", o.configPath),
		zap.String("credential_source", cfg.CredentialSource),
		zap.String("watch_path", watchPath),
		zap.Duration("poll_interval", cfg.PollInterval()),
	)

	client := usageapi.New(usageapi.Options{
		BaseURL:       cfg.APIBaseURL,
		ClientVersion: cfg.ClientVersion,
		Logger:        logger,
	})

	return &app{
		cfg:        cfg,
		configPath: o.configPath,
		logger:     logger,
		store:      store,
		watchPath:  watchPath,
		client:     client,
	}, nil
}
