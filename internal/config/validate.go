package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownHandSizes = map[string]struct{}{
	"XXS": {}, "XS": {}, "S": {}, "M": {}, "L": {}, "XL": {}, "XXL": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateDelivery(); err != nil {
		return err
	}
	if err := c.validateObjectStore(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	if strings.TrimSpace(c.Engine.Binary) == "" {
		return errors.New("engine.binary must be set")
	}
	if c.Engine.TimeoutSeconds <= 0 {
		return errors.New("engine.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if _, ok := knownHandSizes[c.Processing.HandSize]; !ok {
		return fmt.Errorf("processing.hand_size %q is not one of XXS, XS, S, M, L, XL, XXL", c.Processing.HandSize)
	}
	if c.Processing.RightPart == c.Processing.LeftPart {
		return errors.New("processing.right_part and processing.left_part must differ")
	}
	switch c.Processing.OutputFormat {
	case "musicxml", "xml":
	default:
		return fmt.Errorf("processing.output_format %q is not supported (musicxml, xml)", c.Processing.OutputFormat)
	}
	return nil
}

func (c *Config) validateDelivery() error {
	switch c.Delivery.Mode {
	case "local", "cloud":
	default:
		return fmt.Errorf("delivery.mode %q must be local or cloud", c.Delivery.Mode)
	}
	if c.Delivery.PresignExpirySeconds <= 0 {
		return errors.New("delivery.presign_expiry_seconds must be positive")
	}
	// S3 V4 presigned URLs cap out at seven days.
	if c.Delivery.PresignExpirySeconds > 604800 {
		return errors.New("delivery.presign_expiry_seconds must not exceed 604800")
	}
	return nil
}

func (c *Config) validateObjectStore() error {
	if !c.CloudDelivery() && !c.Events.Enabled {
		return nil
	}
	if c.ObjectStore.Endpoint == "" {
		return errors.New("object_store.endpoint must be set when delivery.mode is cloud or events.enabled is true")
	}
	if c.ObjectStore.AccessKey == "" {
		return errors.New("object_store.access_key must be set (or set FINGERSATZ_ACCESS_KEY)")
	}
	if c.ObjectStore.SecretKey == "" {
		return errors.New("object_store.secret_key must be set (or set FINGERSATZ_SECRET_KEY)")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if len(c.Events.Brokers) == 0 {
		return errors.New("events.brokers must include at least one broker when events.enabled is true")
	}
	if c.Events.Topic == "" {
		return errors.New("events.topic must be set when events.enabled is true")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
