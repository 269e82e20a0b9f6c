package grpc

import (
	"maps"
	"math"
	"slices"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"bobiz-backend/internal/domain"
)

// Request field readers. Missing optional fields yield the fallback; present
// fields of the wrong type are rejected with InvalidArgument.

func field(req *structpb.Struct, name string) (*structpb.Value, bool) {
	if req == nil {
		return nil, false
	}
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

func requireInt32(req *structpb.Struct, name string) (int32, error) {
	v, ok := field(req, name)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	return toInt32(v, name)
}

func optionalInt32(req *structpb.Struct, name string, fallback int32) (int32, error) {
	v, ok := field(req, name)
	if !ok {
		return fallback, nil
	}
	return toInt32(v, name)
}

func toInt32(v *structpb.Value, name string) (int32, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a 32-bit integer", name)
	}
	return int32(f), nil
}

func optionalString(req *structpb.Struct, name string) (string, error) {
	v, ok := field(req, name)
	if !ok {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", name)
	}
	return s.StringValue, nil
}

func requireString(req *structpb.Struct, name string) (string, error) {
	s, err := optionalString(req, name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	return s, nil
}

func optionalBool(req *structpb.Struct, name string) (bool, error) {
	v, ok := field(req, name)
	if !ok {
		return false, nil
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, status.Errorf(codes.InvalidArgument, "%s must be a boolean", name)
	}
	return b.BoolValue, nil
}

func optionalTime(req *structpb.Struct, name string) (*time.Time, error) {
	s, err := optionalString(req, name)
	if err != nil || s == "" {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be an RFC 3339 timestamp", name)
	}
	return &t, nil
}

// Response builders. Values are limited to the types structpb.NewValue accepts.

func respond(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func formatTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func optionalID(id *int32) any {
	if id == nil {
		return nil
	}
	return *id
}

func MapDomainExchangeToFields(e *domain.Exchange) map[string]any {
	createdAt := e.CreatedAt
	m := map[string]any{
		"id":              e.ID,
		"kind":            string(e.Kind),
		"status":          string(e.Status),
		"title":           e.Title,
		"creator_id":      e.CreatorID,
		"counterparty_id": optionalID(e.CounterpartyID),
		"points_value":    e.PointsValue,
		"origin_event_id": optionalID(e.Origin.EventID),
		"origin_need_id":  optionalID(e.Origin.NeedID),
		"created_at":      formatTime(&createdAt),
		"started_at":      formatTime(e.StartedAt),
		"ended_at":        formatTime(e.EndedAt),
	}
	if e.CancelReason != "" {
		m["cancel_reason"] = e.CancelReason
	}
	return m
}

func MapDomainEventToFields(ev *domain.Event) map[string]any {
	return map[string]any{
		"id":           ev.ID,
		"organizer_id": ev.OrganizerID,
		"title":        ev.Title,
		"status":       string(ev.Status),
		"starts_at":    formatTime(ev.StartsAt),
	}
}

func MapDomainNeedToFields(n *domain.Need) map[string]any {
	return map[string]any{
		"id":                 n.ID,
		"event_id":           n.EventID,
		"label":              n.Label,
		"category":           string(n.Category),
		"requested_quantity": n.RequestedQuantity,
		"urgent":             n.Urgent,
	}
}

func MapDomainAssignmentToFields(a *domain.Assignment) map[string]any {
	return map[string]any{
		"id":             a.ID,
		"need_id":        a.NeedID,
		"participant_id": a.ParticipantID,
		"quantity":       a.Quantity,
		"exchange_id":    a.ExchangeID,
	}
}

// MapDomainAggregateToFields lists needs in ascending id order under "needs".
func MapDomainAggregateToFields(agg *domain.EventAggregate) map[string]any {
	needs := make([]any, 0, len(agg.Needs))
	for _, id := range slices.Sorted(maps.Keys(agg.Needs)) {
		nf := agg.Needs[id]
		n := MapDomainNeedToFields(&nf.Need)
		n["assigned"] = nf.Assigned
		n["status"] = string(nf.Status)
		needs = append(needs, n)
	}
	return map[string]any{
		"event":   MapDomainEventToFields(&agg.Event),
		"needs":   needs,
		"overall": string(agg.Overall),
	}
}

func MapDomainLedgerEntryToFields(e *domain.LedgerEntry) map[string]any {
	createdAt := e.CreatedAt
	return map[string]any{
		"id":          e.ID,
		"batch_id":    e.BatchID,
		"exchange_id": e.ExchangeID,
		"amount":      e.Amount,
		"reason":      string(e.Reason),
		"created_at":  formatTime(&createdAt),
	}
}

func mapDomainNotificationToFields(n *domain.Notification) map[string]any {
	attrs := make(map[string]any, len(n.Attributes))
	for k, v := range n.Attributes {
		attrs[k] = v
	}
	createdOn := n.CreatedOn
	return map[string]any{
		"id":         n.ID,
		"title":      n.Title,
		"message":    n.Message,
		"is_read":    n.IsRead,
		"attributes": attrs,
		"created_on": formatTime(&createdOn),
	}
}
