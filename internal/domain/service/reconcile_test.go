package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irdesk/internal/domain/entity"
)

func enhancedMsg(id, content string, ts time.Time) *entity.Message {
	return &entity.Message{
		ID:             id,
		ConversationID: "conv-1",
		Content:        content,
		Timestamp:      ts,
		Priority:       entity.PriorityHigh,
		Type:           entity.MessageTypeText,
		Status:         "sent",
		ReadBy:         []entity.ReadReceipt{},
		SourceShape:    entity.SourceShapeEnhanced,
	}
}

func legacyMsg(id, content string, ts time.Time) *entity.Message {
	return &entity.Message{
		ID:             id,
		ConversationID: "conv-1",
		Content:        content,
		Timestamp:      ts,
		SourceShape:    entity.SourceShapeLegacy,
	}
}

func TestMergeDropsLegacyDuplicateInsideWindow(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	raw := []*entity.Message{
		enhancedMsg("e1", "quarterly statement attached", base),
		legacyMsg("l1", "quarterly statement attached", base.Add(500*time.Millisecond)),
	}

	merged := MergeMessages(raw)

	require.Len(t, merged, 1)
	assert.Equal(t, "e1", merged[0].ID)
}

func TestMergeKeepsLegacyOutsideWindow(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	raw := []*entity.Message{
		enhancedMsg("e1", "quarterly statement attached", base),
		legacyMsg("l1", "quarterly statement attached", base.Add(2000*time.Millisecond)),
	}

	merged := MergeMessages(raw)

	require.Len(t, merged, 2)
	assert.Equal(t, "e1", merged[0].ID)
	assert.Equal(t, "l1", merged[1].ID)
}

func TestMergeWindowBoundaryIsInclusive(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	raw := []*entity.Message{
		enhancedMsg("e1", "hello", base),
		legacyMsg("l1", "hello", base.Add(1000*time.Millisecond)),
	}

	merged := MergeMessages(raw)

	require.Len(t, merged, 1)
	assert.Equal(t, "e1", merged[0].ID)
}

func TestMergeDedupRequiresIdenticalContent(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	raw := []*entity.Message{
		enhancedMsg("e1", "hello", base),
		legacyMsg("l1", "hello there", base.Add(100*time.Millisecond)),
	}

	merged := MergeMessages(raw)
	require.Len(t, merged, 2)
}

func TestMergeLegacyDedupWorksWhenLegacyIsEarlier(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	raw := []*entity.Message{
		legacyMsg("l1", "hello", base),
		enhancedMsg("e1", "hello", base.Add(800*time.Millisecond)),
	}

	merged := MergeMessages(raw)
	require.Len(t, merged, 1)
	assert.Equal(t, "e1", merged[0].ID)
}

func TestMergeFillsLegacyDefaults(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	merged := MergeMessages([]*entity.Message{legacyMsg("l1", "old note", base)})

	require.Len(t, merged, 1)
	m := merged[0]
	assert.Equal(t, entity.PriorityMedium, m.Priority)
	assert.Equal(t, "sent", m.Status)
	assert.Equal(t, entity.MessageTypeText, m.Type)
	assert.NotNil(t, m.ReadBy)
	assert.Empty(t, m.ReadBy)
	assert.False(t, m.IsEscalation)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	legacy := legacyMsg("l1", "old note", base)

	MergeMessages([]*entity.Message{legacy})

	assert.Equal(t, entity.MessagePriority(""), legacy.Priority)
	assert.Nil(t, legacy.ReadBy)
}

func TestMergeOrdersByTimestampThenID(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	// Arrival order 3, 1, 2 plus a timestamp tie broken by id.
	raw := []*entity.Message{
		enhancedMsg("e3", "third", base.Add(3*time.Second)),
		enhancedMsg("e1", "first", base.Add(1*time.Second)),
		enhancedMsg("e2", "second", base.Add(2*time.Second)),
		enhancedMsg("e2b", "second again", base.Add(2*time.Second)),
	}

	merged := MergeMessages(raw)

	require.Len(t, merged, 4)
	got := []string{merged[0].ID, merged[1].ID, merged[2].ID, merged[3].ID}
	assert.Equal(t, []string{"e1", "e2", "e2b", "e3"}, got)
}

func TestMergeDeterministicUnderInputShuffles(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	raw := []*entity.Message{
		enhancedMsg("e1", "alpha", base),
		enhancedMsg("e2", "beta", base.Add(1*time.Second)),
		legacyMsg("l1", "alpha", base.Add(400*time.Millisecond)),
		legacyMsg("l2", "gamma", base.Add(5*time.Second)),
		legacyMsg("l3", "beta", base.Add(4*time.Second)),
	}

	reference := MergeMessages(raw)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]*entity.Message, len(raw))
		copy(shuffled, raw)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		merged := MergeMessages(shuffled)
		require.Len(t, merged, len(reference))
		for j := range reference {
			assert.Equal(t, reference[j].ID, merged[j].ID)
		}
	}
}
