package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeProcessing()
	c.normalizeDelivery()
	c.normalizeObjectStore()
	c.normalizeEvents()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabaseDir) == "" {
		c.Paths.DatabaseDir = defaultDatabaseDir
	}
	if c.Paths.DatabaseDir, err = expandPath(c.Paths.DatabaseDir); err != nil {
		return fmt.Errorf("paths.database_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("FINGERSATZ_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeEngine() {
	c.Engine.Binary = strings.TrimSpace(c.Engine.Binary)
	if c.Engine.Binary == "" {
		c.Engine.Binary = defaultEngineBinary
	}
	if c.Engine.TimeoutSeconds <= 0 {
		c.Engine.TimeoutSeconds = defaultEngineTimeout
	}
}

func (c *Config) normalizeProcessing() {
	c.Processing.HandSize = strings.ToUpper(strings.TrimSpace(c.Processing.HandSize))
	if c.Processing.HandSize == "" {
		c.Processing.HandSize = defaultHandSize
	}
	if c.Processing.RightPart < 0 {
		c.Processing.RightPart = defaultRightPart
	}
	if c.Processing.LeftPart < 0 {
		c.Processing.LeftPart = defaultLeftPart
	}
	c.Processing.OutputFormat = strings.ToLower(strings.TrimSpace(c.Processing.OutputFormat))
	if c.Processing.OutputFormat == "" {
		c.Processing.OutputFormat = defaultOutputFormat
	}
}

func (c *Config) normalizeDelivery() {
	c.Delivery.Mode = strings.ToLower(strings.TrimSpace(c.Delivery.Mode))
	if c.Delivery.Mode == "" {
		c.Delivery.Mode = defaultDeliveryMode
	}
	if c.Delivery.PresignExpirySeconds <= 0 {
		c.Delivery.PresignExpirySeconds = defaultPresignExpirySeconds
	}
}

func (c *Config) normalizeObjectStore() {
	c.ObjectStore.Endpoint = strings.TrimSpace(c.ObjectStore.Endpoint)
	if c.ObjectStore.AccessKey == "" {
		if value, ok := os.LookupEnv("FINGERSATZ_ACCESS_KEY"); ok {
			c.ObjectStore.AccessKey = strings.TrimSpace(value)
		}
	}
	if c.ObjectStore.SecretKey == "" {
		if value, ok := os.LookupEnv("FINGERSATZ_SECRET_KEY"); ok {
			c.ObjectStore.SecretKey = strings.TrimSpace(value)
		}
	}
	if c.ObjectStore.OutputBucket == "" {
		if value, ok := os.LookupEnv("FINGERSATZ_OUTPUT_BUCKET"); ok {
			c.ObjectStore.OutputBucket = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OUTPUT_S3_BUCKET"); ok {
			c.ObjectStore.OutputBucket = strings.TrimSpace(value)
		}
	}
	c.ObjectStore.Region = strings.TrimSpace(c.ObjectStore.Region)
	if c.ObjectStore.Region == "" {
		c.ObjectStore.Region = defaultObjectStoreRegion
	}
}

func (c *Config) normalizeEvents() {
	brokers := make([]string, 0, len(c.Events.Brokers))
	for _, broker := range c.Events.Brokers {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	c.Events.Brokers = brokers
	c.Events.Topic = strings.TrimSpace(c.Events.Topic)
	if c.Events.Topic == "" {
		c.Events.Topic = defaultEventsTopic
	}
	c.Events.GroupID = strings.TrimSpace(c.Events.GroupID)
	if c.Events.GroupID == "" {
		c.Events.GroupID = defaultEventsGroupID
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
