package notify

import (
	"fmt"
	"strconv"

	"bobiz-backend/internal/domain"
)

// Message is the rendered, channel-neutral form of an engine event.
type Message struct {
	Title      string
	Body       string
	Attributes map[string]string
}

func Render(ev domain.EngineEvent) Message {
	m := Message{
		Attributes: map[string]string{
			"type": string(ev.Type),
		},
	}
	if ev.ExchangeID != 0 {
		m.Attributes["exchange_id"] = strconv.Itoa(int(ev.ExchangeID))
	}
	if ev.NeedID != 0 {
		m.Attributes["need_id"] = strconv.Itoa(int(ev.NeedID))
	}
	if ev.EventID != 0 {
		m.Attributes["event_id"] = strconv.Itoa(int(ev.EventID))
	}

	switch ev.Type {
	case domain.EngineEventExchangeCreated:
		m.Title = "New exchange"
		m.Body = fmt.Sprintf("Exchange #%d is waiting for you", ev.ExchangeID)
	case domain.EngineEventExchangeStarted:
		m.Title = "Exchange started"
		m.Body = fmt.Sprintf("Exchange #%d is now in progress", ev.ExchangeID)
	case domain.EngineEventExchangeCompleted:
		m.Title = "Exchange completed"
		m.Body = fmt.Sprintf("Exchange #%d is complete and your BOBIZ balance was updated", ev.ExchangeID)
	case domain.EngineEventExchangeCancelled:
		m.Title = "Exchange cancelled"
		m.Body = fmt.Sprintf("Exchange #%d was cancelled", ev.ExchangeID)
		if ev.Reason != "" {
			m.Body += ": " + ev.Reason
		}
	case domain.EngineEventPositionAccepted:
		m.Title = "Positioning accepted"
		m.Body = fmt.Sprintf("A participant positioned on need #%d", ev.NeedID)
	case domain.EngineEventPositionRejected:
		m.Title = "Positioning rejected"
		m.Body = fmt.Sprintf("Your positioning on need #%d was rejected: %s", ev.NeedID, ev.Reason)
	default:
		m.Title = "BOBIZ"
		m.Body = string(ev.Type)
	}
	if ev.Reason != "" {
		m.Attributes["reason"] = ev.Reason
	}
	return m
}
