package engine

import (
	"fmt"
	"time"

	"github.com/cardwatch/cardwatch/internal/notify"
	domain "github.com/cardwatch/cardwatch/pkg/types"
)

// DefaultEmbedCap is the default number of per-product detail blocks per
// message, matching the Discord embed limit the reference deployment ran
// against.
const DefaultEmbedCap = 10

const defaultFooter = "cardwatch monitor"

// CategoryMeta describes how one change category is rendered: the
// message title, the embed color, and a summary line format taking the
// event count.
type CategoryMeta struct {
	Title   string
	Color   int
	Summary string // fmt string with one %d verb for the event count
}

// DefaultCategoryMeta returns the built-in rendering metadata. Colors
// follow the usual Discord conventions: green for restocks, blue for
// increases, orange for new listings.
func DefaultCategoryMeta() map[domain.Category]CategoryMeta {
	return map[domain.Category]CategoryMeta{
		domain.CategoryRestocked: {
			Title:   "Restock Alert",
			Color:   3066993,
			Summary: "%d product(s) back in stock!",
		},
		domain.CategoryIncreased: {
			Title:   "Stock Increased",
			Color:   3447003,
			Summary: "%d product(s) got more stock!",
		},
		domain.CategoryAdded: {
			Title:   "New Products Added",
			Color:   15844367,
			Summary: "%d new product(s) available!",
		},
	}
}

// categoryOrder is the priority order categories are emitted in.
var categoryOrder = []domain.Category{
	domain.CategoryRestocked,
	domain.CategoryIncreased,
	domain.CategoryAdded,
}

// Batch groups events by category and renders them into bounded
// messages. Each category with at least one event yields one message per
// cap-sized page of events; over-cap events paginate into further
// messages of the same category rather than being dropped. Categories
// are ordered Restocked > Increased > Added, and within a category
// events keep classifier order.
//
// Batch is a pure transform; delivery belongs to the notify package.
func Batch(
	events []domain.ChangeEvent,
	meta map[domain.Category]CategoryMeta,
	limit int,
	now time.Time,
) []notify.Message {
	if limit <= 0 {
		limit = DefaultEmbedCap
	}

	grouped := make(map[domain.Category][]domain.ChangeEvent)
	for _, ev := range events {
		grouped[ev.Category] = append(grouped[ev.Category], ev)
	}

	var messages []notify.Message

	for _, cat := range categoryOrder {
		catEvents := grouped[cat]
		if len(catEvents) == 0 {
			continue
		}

		m, ok := meta[cat]
		if !ok {
			m = DefaultCategoryMeta()[cat]
		}

		for start := 0; start < len(catEvents); start += limit {
			end := min(start+limit, len(catEvents))
			messages = append(messages, buildMessage(m, catEvents, start, end, now))
		}
	}

	return messages
}

func buildMessage(
	m CategoryMeta,
	catEvents []domain.ChangeEvent,
	start, end int,
	now time.Time,
) notify.Message {
	msg := notify.Message{
		Title:       m.Title,
		Description: fmt.Sprintf(m.Summary, len(catEvents)),
		Color:       m.Color,
		Timestamp:   now,
		Footer:      defaultFooter,
		Details:     make([]notify.Detail, 0, end-start),
	}

	// Pages after the first carry a continuation marker so split
	// categories read as one alert.
	if start > 0 {
		msg.Description = fmt.Sprintf("%s (continued, %d–%d of %d)",
			msg.Description, start+1, end, len(catEvents))
	}

	for _, ev := range catEvents[start:end] {
		msg.Details = append(msg.Details, notify.Detail{
			Title:     ev.Title,
			URL:       ev.URL,
			Thumbnail: ev.Image,
			Price:     ev.Price,
			Stock:     ev.NewStock,
			OldStock:  ev.OldStock,
		})
	}

	return msg
}
