package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"PriceSentinel/internal/model"
	"PriceSentinel/internal/notifier"
	"PriceSentinel/internal/scheduler"
)

// Commands answers chat commands. RunNow, when set, triggers a check through
// the scheduler so it cannot overlap a scheduled run; it returns
// scheduler.ErrJobRunning when a run is already in progress.
type Commands struct {
	Monitor *Monitor
	RunNow  func() error
}

// Handle processes a user command and returns a reply.
func (c *Commands) Handle(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return help()
	}
	switch fields[0] {
	case "/track", "/add":
		if len(fields) < 2 {
			return "Usage: /track <product url>"
		}
		res, err := c.Monitor.Lookup(ctx, fields[1])
		if err != nil {
			return lookupError(err)
		}
		return notifier.FormatLookup(res.Product, res.Quote, res.Previous, res.Decision)
	case "/list":
		products, err := c.Monitor.Store.ListOnce(ctx)
		if err != nil {
			log.Printf("[ERROR] list products: %v", err)
			return "❌ Could not read tracked products."
		}
		return notifier.FormatProductList(products)
	case "/check":
		if c.RunNow == nil {
			return notifier.FormatRunReport(c.Monitor.Run(ctx, model.TriggerManual))
		}
		if err := c.RunNow(); err != nil {
			if errors.Is(err, scheduler.ErrJobRunning) {
				return "⏳ A price check is already running, try again when it finishes."
			}
			return fmt.Sprintf("❌ %v", err)
		}
		if rep := c.Monitor.LastReport(); rep != nil {
			return notifier.FormatRunReport(rep)
		}
		return "✅ Price check finished."
	case "/clear":
		if err := c.Monitor.Store.ClearAll(ctx); err != nil {
			log.Printf("[ERROR] clear products: %v", err)
			return "❌ Could not clear tracked products."
		}
		return "🗑 All tracked products removed."
	default:
		return help()
	}
}

func lookupError(err error) string {
	switch {
	case errors.Is(err, ErrInvalidURL):
		return "❌ That does not look like a product URL."
	case errors.Is(err, model.ErrHostResolution):
		return "❌ Price service unreachable (DNS). Try again later."
	case errors.Is(err, model.ErrNetwork):
		return "❌ Price service error. Try again later."
	case errors.Is(err, model.ErrParse):
		return "❌ Could not read a price for that product."
	default:
		log.Printf("[ERROR] lookup: %v", err)
		return "❌ Lookup failed."
	}
}

func help() string {
	return "Available commands:\n• /track <url>\n• /list\n• /check\n• /clear"
}
