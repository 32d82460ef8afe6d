package aspect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/evented/internal/aspect"
)

type recorder struct {
	calls []string
}

func (r *recorder) fn(name string) aspect.Func[int] {
	return func(int) {
		r.calls = append(r.calls, name)
	}
}

func TestAfter_RunsAfterOriginalInOrder(t *testing.T) {
	var slots aspect.Slots[int]
	rec := &recorder{}

	slots.SetMethod("onclick", rec.fn("original"))
	aspect.After[int](&slots, "onclick", rec.fn("first"))
	aspect.After[int](&slots, "onclick", rec.fn("second"))

	slots.Method("onclick").Invoke(1)

	assert.Equal(t, []string{"original", "first", "second"}, rec.calls)
}

func TestBefore_MostRecentFirst(t *testing.T) {
	var slots aspect.Slots[int]
	rec := &recorder{}

	slots.SetMethod("run", rec.fn("original"))
	aspect.Before[int](&slots, "run", rec.fn("b1"))
	aspect.Before[int](&slots, "run", rec.fn("b2"))
	aspect.After[int](&slots, "run", rec.fn("a1"))

	slots.Method("run").Invoke(0)

	assert.Equal(t, []string{"b2", "b1", "original", "a1"}, rec.calls)
}

func TestAround_LaterWrapsEarlier(t *testing.T) {
	var slots aspect.Slots[int]
	rec := &recorder{}

	slots.SetMethod("run", rec.fn("original"))
	wrapper := func(name string) func(next func(int)) func(int) {
		return func(next func(int)) func(int) {
			return func(v int) {
				rec.calls = append(rec.calls, name+":in")
				next(v)
				rec.calls = append(rec.calls, name+":out")
			}
		}
	}
	aspect.Around[int](&slots, "run", wrapper("inner"))
	aspect.Around[int](&slots, "run", wrapper("outer"))

	slots.Method("run").Invoke(0)

	assert.Equal(t, []string{"outer:in", "inner:in", "original", "inner:out", "outer:out"}, rec.calls)
}

func TestAround_CanSuppressOriginal(t *testing.T) {
	var slots aspect.Slots[int]
	rec := &recorder{}

	slots.SetMethod("run", rec.fn("original"))
	aspect.Around[int](&slots, "run", func(next func(int)) func(int) {
		return func(v int) {
			if v > 0 {
				next(v)
			}
		}
	})

	slots.Method("run").Invoke(0)
	assert.Empty(t, rec.calls)

	slots.Method("run").Invoke(1)
	assert.Equal(t, []string{"original"}, rec.calls)
}

func TestCancel_RemovesAdviceAndIsIdempotent(t *testing.T) {
	var slots aspect.Slots[int]
	rec := &recorder{}

	h1 := aspect.After[int](&slots, "onclick", rec.fn("first"))
	aspect.After[int](&slots, "onclick", rec.fn("second"))
	require.Equal(t, 2, aspect.AdviceCount[int](&slots, "onclick"))

	h1.Cancel()
	h1.Cancel()
	assert.Equal(t, 1, aspect.AdviceCount[int](&slots, "onclick"))

	slots.Method("onclick").Invoke(0)
	assert.Equal(t, []string{"second"}, rec.calls)
}

func TestCancel_LastAdviceRestoresOriginal(t *testing.T) {
	tests := []struct {
		name     string
		original aspect.Method[int]
	}{
		{"empty slot", nil},
		{"occupied slot", aspect.Func[int](func(int) {})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var slots aspect.Slots[int]
			if tt.original != nil {
				slots.SetMethod("onclick", tt.original)
			}

			h := aspect.After[int](&slots, "onclick", aspect.Func[int](func(int) {}))
			require.True(t, aspect.IsAdvised[int](&slots, "onclick"))

			h.Cancel()
			assert.False(t, aspect.IsAdvised[int](&slots, "onclick"))
			if tt.original == nil {
				assert.Nil(t, slots.Method("onclick"))
			} else {
				assert.NotNil(t, slots.Method("onclick"))
			}
		})
	}
}

func TestDirectWrite_ReplacesChain(t *testing.T) {
	var slots aspect.Slots[int]
	rec := &recorder{}

	old := aspect.After[int](&slots, "onclick", rec.fn("old"))
	slots.SetMethod("onclick", rec.fn("direct"))
	aspect.After[int](&slots, "onclick", rec.fn("new"))

	slots.Method("onclick").Invoke(0)
	assert.Equal(t, []string{"direct", "new"}, rec.calls)

	// Cancelling advice from the replaced chain leaves the new chain alone.
	old.Cancel()
	assert.True(t, aspect.IsAdvised[int](&slots, "onclick"))
}

func TestCancel_DuringDispatchSkipsLaterAdvice(t *testing.T) {
	var slots aspect.Slots[int]
	rec := &recorder{}

	var second aspect.Handle
	aspect.After[int](&slots, "onclick", aspect.Func[int](func(int) {
		rec.calls = append(rec.calls, "first")
		second.Cancel()
	}))
	second = aspect.After[int](&slots, "onclick", rec.fn("second"))

	slots.Method("onclick").Invoke(0)
	assert.Equal(t, []string{"first"}, rec.calls)
}

func TestSlots_Names(t *testing.T) {
	var slots aspect.Slots[int]
	slots.SetMethod("onclick", aspect.Func[int](func(int) {}))
	slots.SetMethod("onkeypress", aspect.Func[int](func(int) {}))
	slots.SetMethod("onkeypress", nil)

	assert.ElementsMatch(t, []string{"onclick"}, slots.Names())
}
