package audit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/domain/entity"
	domainerror "github.com/vendora/vendora/domain/error"
)

const (
	MessageCreated   = "Product created"
	MessageNoChanges = "No field changes"
	MessageDeleted   = "Product deleted"
)

// TrackedFields is the diff allow-list, in payload order.
var TrackedFields = []string{"title", "description", "price", "discount", "is_active"}

// Recorder turns a mutation into a change record and appends it to the log
// inside the caller's transaction.
type Recorder struct {
	repo    outbound.ChangeLogRepository
	metrics outbound.MutationMetrics
	newID   func() string
	now     func() time.Time
}

func NewRecorder(repo outbound.ChangeLogRepository, metrics outbound.MutationMetrics) *Recorder {
	if metrics == nil {
		metrics = outbound.NoopMetrics{}
	}
	return &Recorder{
		repo:    repo,
		metrics: metrics,
		newID:   uuid.NewString,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record builds and appends the record. before is required for updates and
// ignored otherwise. An update that switches is_active from true to false is
// stored as DISABLED.
func (r *Recorder) Record(ctx context.Context, action entity.ChangeAction, before *entity.ProductSnapshot, after *entity.Product, actor *string) (*entity.ChangeRecord, error) {
	if after == nil {
		return nil, fmt.Errorf("record %s: product is required", action)
	}

	rec, err := r.Build(action, before, after, actor)
	if err != nil {
		return nil, err
	}

	if err := r.repo.Append(ctx, rec); err != nil {
		return nil, domainerror.ErrAuditWriteFailed(after.ID, err)
	}

	r.metrics.ChangeRecorded(string(rec.Action))
	return rec, nil
}

// Build computes the record without persisting it.
func (r *Recorder) Build(action entity.ChangeAction, before *entity.ProductSnapshot, after *entity.Product, actor *string) (*entity.ChangeRecord, error) {
	rec := &entity.ChangeRecord{
		ID:        r.newID(),
		ProductID: after.ID,
		Action:    action,
		ChangedBy: normalizeActor(actor),
		ChangedAt: r.now(),
	}

	switch action {
	case entity.ChangeActionCreated:
		rec.Changes = entity.MessagePayload(MessageCreated)

	case entity.ChangeActionDeleted:
		rec.Changes = entity.MessagePayload(MessageDeleted)

	case entity.ChangeActionUpdated, entity.ChangeActionDisabled:
		if before == nil {
			return nil, fmt.Errorf("record %s: snapshot of product %s is required", action, after.ID)
		}
		current := after.Snapshot()
		diff := Diff(*before, current)
		if len(diff) == 0 {
			rec.Changes = entity.MessagePayload(MessageNoChanges)
		} else {
			rec.Changes = entity.ChangePayload{Fields: diff}
		}
		if before.IsActive && !current.IsActive {
			rec.Action = entity.ChangeActionDisabled
		} else {
			rec.Action = entity.ChangeActionUpdated
		}

	default:
		return nil, fmt.Errorf("unknown change action %q", action)
	}

	return rec, nil
}

// Diff compares the tracked fields and returns only those that differ.
func Diff(before, after entity.ProductSnapshot) map[string]entity.FieldChange {
	old := stringify(before)
	cur := stringify(after)

	diff := make(map[string]entity.FieldChange)
	for _, field := range TrackedFields {
		if old[field] != cur[field] {
			diff[field] = entity.FieldChange{Old: old[field], New: cur[field]}
		}
	}
	return diff
}

func stringify(s entity.ProductSnapshot) map[string]string {
	return map[string]string{
		"title":       s.Title,
		"description": s.Description,
		"price":       formatAmount(s.Price),
		"discount":    formatAmount(s.Discount),
		"is_active":   strconv.FormatBool(s.IsActive),
	}
}

// formatAmount renders cents; finer values keep full precision so they still
// show up in the diff.
func formatAmount(v float64) string {
	if !entity.HasCentPrecision(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func normalizeActor(actor *string) *string {
	if actor == nil || *actor == "" {
		return nil
	}
	a := *actor
	return &a
}
