package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"coinchart/internal/chart"
	"coinchart/internal/domain"
	"coinchart/internal/form"

	tele "gopkg.in/telebot.v3"
)

const (
	maxSuggestions = 10
	sparkWidth     = 32
	replyTimeout   = 15 * time.Second
)

// AssetSearcher answers /search.
type AssetSearcher interface {
	SearchAssets(ctx context.Context, query string) ([]domain.Asset, error)
}

// Commands holds the chat command logic, independent of the Telegram client.
type Commands struct {
	assets    AssetSearcher
	newForm   func() *form.Orchestrator
	intervals []string
}

func NewCommands(assets AssetSearcher, newForm func() *form.Orchestrator, intervals []string) *Commands {
	return &Commands{assets: assets, newForm: newForm, intervals: intervals}
}

func StartTelegramBot(token string, cmds *Commands) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/intervals", func(c tele.Context) error {
		return c.Send(cmds.Intervals())
	})

	b.Handle("/search", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
		defer cancel()
		return c.Send(cmds.Search(ctx, c.Message().Payload))
	})

	b.Handle("/chart", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
		defer cancel()
		return c.Send(cmds.Chart(ctx, c.Message().Payload))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

// Intervals lists the labels /chart accepts.
func (c *Commands) Intervals() string {
	return "Intervals: " + strings.Join(c.intervals, ", ")
}

// Search replies with the assets whose name contains the payload.
func (c *Commands) Search(ctx context.Context, payload string) string {
	query := strings.TrimSpace(payload)
	if query == "" {
		return "Usage: /search bitcoin"
	}
	assets, err := c.assets.SearchAssets(ctx, query)
	if err != nil {
		log.Printf("telegram search error for %q: %v", query, err)
		return form.GenericErrorMessage
	}
	if len(assets) == 0 {
		return fmt.Sprintf("No cryptocurrency matches %q", query)
	}

	var b strings.Builder
	for i, a := range assets {
		if i == maxSuggestions {
			fmt.Fprintf(&b, "...and %d more", len(assets)-maxSuggestions)
			break
		}
		fmt.Fprintf(&b, "%s (%s)\n", a.Name, a.Symbol)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Chart runs one form submission for "<name> | <interval>".
func (c *Commands) Chart(ctx context.Context, payload string) string {
	fields := ParseChartArgs(payload)
	if err := form.Validate(fields); err != nil {
		return usageFor(err)
	}

	f := c.newForm()
	defer f.Close()

	if _, err := f.SearchNow(ctx, fields.Crypto); err != nil {
		log.Printf("telegram chart suggestion error: %v", err)
	}

	state, err := f.Submit(ctx, fields)
	if err != nil {
		return usageFor(err)
	}
	return FormatView(form.ViewOf(state), fields.Interval)
}

// ParseChartArgs splits "<name> | <interval>". Without a separator the
// whole payload is the name.
func ParseChartArgs(payload string) form.Fields {
	name, iv, _ := strings.Cut(payload, "|")
	return form.Fields{
		Crypto:   strings.TrimSpace(name),
		Interval: strings.TrimSpace(iv),
	}
}

func usageFor(err error) string {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, v := range verrs {
			msgs = append(msgs, v.Message)
		}
		return strings.Join(msgs, "\n") + "\nUsage: /chart Bitcoin | 1 week"
	}
	return form.GenericErrorMessage
}

// FormatView renders a form view as a chat message.
func FormatView(v form.View, intervalLabel string) string {
	switch v.Variant {
	case form.VariantChart:
		r := v.Chart
		s, _ := chart.Summarize(r.Prices)
		return fmt.Sprintf(
			"%s (%s), %s\n%s\n$%.2f → $%.2f (%+.2f%%)\nLow $%.2f, high $%.2f\n%s to %s",
			r.Name, r.Symbol, intervalLabel,
			chart.Sparkline(r.Prices, sparkWidth),
			s.First, s.Last, s.ChangePct,
			s.Min, s.Max,
			r.Timestamps[0], r.Timestamps[len(r.Timestamps)-1],
		)
	case form.VariantEmpty:
		return "no data"
	case form.VariantError:
		return v.Message
	default:
		return form.GenericErrorMessage
	}
}
