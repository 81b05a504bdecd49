package service

import (
	"sort"
	"time"

	"irdesk/internal/domain/entity"
)

// dedupWindow is the timestamp distance under which a legacy message with
// identical content is treated as a rewrite of an enhanced one.
const dedupWindow = 1000 * time.Millisecond

// MergeMessages reduces a raw dual-shape feed to the canonical sequence for
// one conversation: enhanced messages are authoritative, legacy messages
// are dropped when an enhanced message carries identical content within
// one second, surviving legacy messages get default-filled fields, and the
// result is ordered by (timestamp, id).
//
// The content+window match is a heuristic inherited from the original dual
// writers: two genuinely distinct messages with the same text inside the
// window will collapse into one. Known limitation, kept on purpose:
// consumers depend on the observed behavior.
//
// The merge never mutates its input and is deterministic for any ordering
// of the raw feed, so it is safe to re-run on every realtime push.
func MergeMessages(raw []*entity.Message) []*entity.Message {
	var enhanced, legacy []*entity.Message
	for _, m := range raw {
		if m.SourceShape == entity.SourceShapeLegacy {
			legacy = append(legacy, m)
		} else {
			enhanced = append(enhanced, m)
		}
	}

	merged := make([]*entity.Message, 0, len(raw))
	merged = append(merged, enhanced...)

	for _, lm := range legacy {
		if hasEnhancedDuplicate(lm, enhanced) {
			continue
		}
		merged = append(merged, withLegacyDefaults(lm))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Timestamp.Equal(merged[j].Timestamp) {
			return merged[i].Timestamp.Before(merged[j].Timestamp)
		}
		return merged[i].ID < merged[j].ID
	})

	return merged
}

func hasEnhancedDuplicate(legacy *entity.Message, enhanced []*entity.Message) bool {
	for _, em := range enhanced {
		if em.Content != legacy.Content {
			continue
		}
		delta := em.Timestamp.Sub(legacy.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta <= dedupWindow {
			return true
		}
	}
	return false
}

// withLegacyDefaults copies a legacy message and fills the attributes the
// legacy shape never carried.
func withLegacyDefaults(m *entity.Message) *entity.Message {
	filled := *m
	if filled.Priority == "" {
		filled.Priority = entity.PriorityMedium
	}
	if filled.Status == "" {
		filled.Status = "sent"
	}
	if filled.ReadBy == nil {
		filled.ReadBy = []entity.ReadReceipt{}
	}
	if filled.Type == "" {
		filled.Type = entity.MessageTypeText
	}
	filled.IsEscalation = false
	return &filled
}
