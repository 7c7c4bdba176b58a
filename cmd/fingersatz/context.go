package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"fingersatz/internal/apiclient"
	"fingersatz/internal/config"
	"fingersatz/internal/jobs"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) jsonMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// apiAddress resolves the daemon API address: the --api flag wins, then
// the configured bind address.
func (c *commandContext) apiAddress() string {
	if c.apiFlag != nil {
		if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
			return addr
		}
	}
	if cfg := c.configValue(); cfg != nil {
		if bind := strings.TrimSpace(cfg.Paths.APIBind); bind != "" {
			return bind
		}
	}
	return "127.0.0.1:7528"
}

func (c *commandContext) apiToken() string {
	if cfg := c.configValue(); cfg != nil {
		return strings.TrimSpace(cfg.Paths.APIToken)
	}
	return ""
}

func (c *commandContext) newClient() (*apiclient.Client, error) {
	return apiclient.New(c.apiAddress(), c.apiToken())
}

// withClient runs fn against a reachable daemon API.
func (c *commandContext) withClient(ctx context.Context, fn func(*apiclient.Client) error) error {
	client, err := c.newClient()
	if err != nil {
		return err
	}
	if err := client.Ping(ctx); err != nil {
		return wrapDialError(err, client.Base())
	}
	return fn(client)
}

// withJournal prefers the daemon API and falls back to opening the journal
// directly when no daemon is running. Exactly one of the arguments passed to
// fn is non-nil.
func (c *commandContext) withJournal(ctx context.Context, fn func(*apiclient.Client, *jobs.Journal) error) error {
	client, err := c.newClient()
	if err == nil && client.Ping(ctx) == nil {
		return fn(client, nil)
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	journal, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job journal: %w", err)
	}
	defer journal.Close()
	return fn(nil, journal)
}

func wrapDialError(err error, address string) error {
	if apiclient.IsUnavailable(err) {
		return fmt.Errorf("connect to daemon: %s is not answering; start the daemon with `fingersatz start`", address)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
