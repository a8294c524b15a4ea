// Command testsend sends one sample listing through the configured SMTP
// account to check the mail settings.
package main

import (
	"context"
	"fmt"
	"os"

	"streeteasy-monitor/config"
	"streeteasy-monitor/models"
	"streeteasy-monitor/notify"
	"streeteasy-monitor/utils"
)

func main() {
	logger := utils.NewLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Info("Using SMTP %s:%d as %s -> %s (password %s)",
		cfg.SMTP.Server, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Recipient, masked(cfg.SMTP.Password))

	sample := &models.Listing{
		ID:           "test-building_1a",
		URL:          "https://example.com/listing/123",
		Price:        2500,
		Address:      "123 Test St",
		Neighborhood: "Testville",
		ListedBy:     models.NotAvailable,
	}

	ok := notify.NewEmailNotifier(cfg.SMTP, logger).Notify(context.Background(), []*models.Listing{sample})
	if !ok {
		fmt.Println("RESULT: FAILED")
		os.Exit(1)
	}
	fmt.Println("RESULT: OK")
}

func masked(password string) string {
	if password == "" {
		return "unset"
	}
	return "***"
}
