package notify

import (
	"context"

	"streeteasy-monitor/models"
	"streeteasy-monitor/utils"
)

// Notifier delivers one batch of new listings. Implementations never
// return errors; a false result means delivery was not confirmed.
type Notifier interface {
	Notify(ctx context.Context, listings []*models.Listing) bool
}

// LogNotifier writes the batch to the log instead of sending it.
type LogNotifier struct {
	logger *utils.Logger
}

func NewLogNotifier(logger *utils.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, listings []*models.Listing) bool {
	n.logger.Info("[notify] Dry run: %s", Subject(listings))
	for _, l := range listings {
		n.logger.Info("[notify]   %s | $%d | %s | %s", l.Address, l.Price, l.Neighborhood, l.URL)
	}
	return true
}
