package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

// DefaultCallMonitoringDays is how many days of history the generator
// produces.
const DefaultCallMonitoringDays = 30

var (
	callOutcomes    = []string{"positive", "follow_up", "negative", "other"}
	inquiryTopics   = []string{"pricing", "delivery windows", "credit terms", "promo eligibility", "stock availability"}
	inquiryChannels = []string{"email", "chat", "call", "text"}
	sentiments      = []string{"positive", "neutral", "negative"}
	purchaseFocus   = []string{"filters", "synthetic oils", "brake pads", "suspension kits", "battery restock"}
)

// CallMonitoring is generated call-log, inquiry, and purchase history.
type CallMonitoring struct {
	CallLogs  []types.CallLog
	Inquiries []types.Inquiry
	Purchases []types.Purchase
}

// GenerateCallMonitoring builds days of history ending on now's date for
// the visible contacts. Row counts and ids depend only on days and the
// contact list; minutes, durations, and some labels come from rng.
func GenerateCallMonitoring(contacts []types.Contact, agentNames []string, days int, now time.Time, rng *rand.Rand) CallMonitoring {
	var visible []types.Contact
	for _, c := range contacts {
		if !c.IsHidden {
			visible = append(visible, c)
		}
	}
	var out CallMonitoring
	if len(visible) == 0 || len(agentNames) == 0 {
		return out
	}

	randInt := func(lo, hi int) int { return lo + rng.IntN(hi-lo+1) }
	pick := func(items []string) string { return items[rng.IntN(len(items))] }

	for day := 0; day < days; day++ {
		base := time.Date(now.Year(), now.Month(), now.Day()-day, 8, 0, 0, 0, now.Location())
		at := func(hour int) time.Time {
			return time.Date(base.Year(), base.Month(), base.Day(), hour, randInt(0, 59), randInt(0, 59), 0, base.Location())
		}

		calls := 6 + day%4
		for i := 0; i < calls; i++ {
			contact := visible[(day+i)%len(visible)]
			agentName := agentNames[(day*3+i)%len(agentNames)]
			occurred := at(8 + i%9)
			outcome := callOutcomes[(day+i)%len(callOutcomes)]

			direction := "outbound"
			if (day+i)%3 == 0 {
				direction = "inbound"
			}
			channel := "text"
			if rng.Float64() > 0.15 {
				channel = "call"
			}

			entry := types.CallLog{
				ID:              fmt.Sprintf("call_%d_%d_%s", day, i, contact.ID),
				ContactID:       contact.ID,
				AgentName:       agentName,
				Channel:         channel,
				Direction:       direction,
				DurationSeconds: randInt(45, 720),
				Notes:           callNote(outcome, contact.Company),
				Outcome:         outcome,
				OccurredAt:      isoTime(occurred),
			}
			if outcome == "follow_up" {
				entry.NextAction = "Schedule follow-up demo"
				entry.NextActionDue = isoTime(occurred.Add(48 * time.Hour))
			}
			out.CallLogs = append(out.CallLogs, entry)
		}

		inquiries := 1 + day%2
		for j := 0; j < inquiries; j++ {
			contact := visible[(day*2+j)%len(visible)]
			occurred := at(11 + j)
			topic := pick(inquiryTopics)
			out.Inquiries = append(out.Inquiries, types.Inquiry{
				ID:         fmt.Sprintf("inq_%d_%d_%s", day, j, contact.ID),
				ContactID:  contact.ID,
				Title:      "Question about " + topic,
				Channel:    pick(inquiryChannels),
				Sentiment:  pick(sentiments),
				OccurredAt: isoTime(occurred),
				Notes:      fmt.Sprintf("Discussed %s with %s.", topic, contact.Company),
			})
		}

		if day%2 == 0 || rng.Float64() > 0.65 {
			contact := visible[(day*5)%len(visible)]
			purchased := at(15)
			amount := randInt(45000, 250000)
			status := "paid"
			if amount%3 == 0 {
				status = "pending"
			}
			out.Purchases = append(out.Purchases, types.Purchase{
				ID:          fmt.Sprintf("purchase_%d_%s", day, contact.ID),
				ContactID:   contact.ID,
				Amount:      float64(amount),
				Status:      status,
				PurchasedAt: isoTime(purchased),
				Notes:       fmt.Sprintf("Order for %s covering %s.", contact.Company, pick(purchaseFocus)),
			})
		}
	}
	return out
}

func callNote(outcome, company string) string {
	switch outcome {
	case "positive":
		return fmt.Sprintf("Discussed replenishment plan with %s.", company)
	case "follow_up":
		return fmt.Sprintf("Awaiting approval from %s's manager.", company)
	case "negative":
		return fmt.Sprintf("%s postponed their decision this week.", company)
	default:
		return fmt.Sprintf("Routine touch-base with %s.", company)
	}
}

func encodeRows[T any](items []T) ([]types.Record, error) {
	rows := make([]types.Record, 0, len(items))
	for _, item := range items {
		rec, err := types.EncodeRow(item)
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
