package notifier

import (
	"fmt"
	"hash/fnv"
	"html"
	"strings"
	"time"

	"PriceSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// MaxNameLength is the longest product name shown in an alert title.
const MaxNameLength = 40

const ellipsis = "..."

// TruncateName shortens names longer than max runes to the last space within
// the first max runes and appends an ellipsis. A name with no space in that
// window is cut hard at max.
func TruncateName(name string, max int) string {
	runes := []rune(name)
	if len(runes) <= max {
		return name
	}
	head := runes[:max]
	for i := len(head) - 1; i > 0; i-- {
		if head[i] == ' ' {
			head = head[:i]
			break
		}
	}
	return string(head) + ellipsis
}

// StableID derives a notification id from the product name, so a later alert
// for the same product replaces the earlier one.
func StableID(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32())
}

// FormatDropAlert builds the notification for a price drop.
func FormatDropAlert(p model.Product, q *model.Quote, d *model.Decision) model.Notification {
	currency := ""
	if q != nil {
		currency = q.Currency
	}
	return model.Notification{
		StableID: StableID(p.Name),
		Title:    fmt.Sprintf("Hey, %s dropped %d%% in price!", TruncateName(p.Name, MaxNameLength), d.DropPercent),
		Body:     fmt.Sprintf("It used to cost %s, now it costs %s", money(d.OldPrice, currency), money(d.NewPrice, currency)),
	}
}

func money(v decimal.Decimal, currency string) string {
	if currency == "" {
		return v.String()
	}
	return v.String() + " " + currency
}

// FormatNotification renders a notification as a Telegram HTML message.
func FormatNotification(n model.Notification) string {
	return fmt.Sprintf("🔔 <b>%s</b>\n\n%s", html.EscapeString(n.Title), html.EscapeString(n.Body))
}

// FormatProductList formats the tracked products for display.
func FormatProductList(products []model.Product) string {
	if len(products) == 0 {
		return "No products tracked yet. Send /track <url> to add one."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Tracked products</b> (%d)\n\n", len(products)))
	for _, p := range products {
		b.WriteString(fmt.Sprintf("• %s\n   %s | %s\n",
			html.EscapeString(TruncateName(p.Name, MaxNameLength)),
			html.EscapeString(p.Price),
			p.ObservedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatLookup formats the answer to a manual lookup.
func FormatLookup(p model.Product, q *model.Quote, previous *model.Product, d *model.Decision) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>%s</b>\n", html.EscapeString(p.Name)))
	cur := ""
	if q != nil {
		cur = " " + q.Currency
	}
	b.WriteString(fmt.Sprintf("Price: %s%s\n", html.EscapeString(p.Price), html.EscapeString(cur)))
	switch {
	case previous == nil:
		b.WriteString("Now tracking this product.")
	case d == nil:
		b.WriteString("Baseline updated.")
	case d.Notify:
		b.WriteString(fmt.Sprintf("Down %d%% from %s. Baseline updated.", d.DropPercent, d.OldPrice.String()))
	case d.NewPrice.Equal(d.OldPrice):
		b.WriteString("Unchanged since the last lookup.")
	default:
		b.WriteString(fmt.Sprintf("Up from %s. Baseline updated.", d.OldPrice.String()))
	}
	return b.String()
}

// FormatRunReport formats a run summary.
func FormatRunReport(r *model.RunReport) string {
	icon := "✅"
	if r.Outcome == model.OutcomeFailure {
		icon = "❌"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>Price check</b> | %s\n\n", icon, r.StartedAt.Format("2006-01-02 15:04")))
	if r.Outcome == model.OutcomeFailure {
		msg := "unknown error"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		b.WriteString(fmt.Sprintf("Run failed: %s\n", html.EscapeString(msg)))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Products: %d\n", r.Total))
	b.WriteString(fmt.Sprintf("Checked: %d | Alerts: %d\n", r.Checked, r.Notified))
	if r.Skipped > 0 || r.Failed > 0 {
		b.WriteString(fmt.Sprintf("Skipped: %d | Failed: %d\n", r.Skipped, r.Failed))
	}
	b.WriteString(fmt.Sprintf("Took: %s\n", r.Duration().Round(time.Millisecond)))
	return b.String()
}
