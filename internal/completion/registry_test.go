package completion

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telematics-bridge/internal/engine"
	"telematics-bridge/internal/observability"
)

var allOps = []engine.TagOperation{
	engine.OpGetTags,
	engine.OpAddTag,
	engine.OpRemoveTag,
	engine.OpRemoveAllTags,
}

func TestRegistry_CompleteResolvesPending(t *testing.T) {
	r := NewRegistry(nil)
	h := NewHandle[TagResult]()
	r.Register(engine.OpAddTag, h)

	tag := engine.Tag{Tag: "home", Source: "manual"}
	require.True(t, r.Complete(engine.OpAddTag, engine.StatusSuccess, &tag, nil))

	got, err, ok := h.Result()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "Success", got.Status)
	require.NotNil(t, got.Tag)
	assert.Equal(t, tag, *got.Tag)
	assert.False(t, r.Pending(engine.OpAddTag))
}

func TestRegistry_GetTagsCarriesList(t *testing.T) {
	r := NewRegistry(nil)
	h := NewHandle[TagResult]()
	r.Register(engine.OpGetTags, h)

	tags := []engine.Tag{{Tag: "a", Source: "x"}, {Tag: "b", Source: "y"}}
	r.Complete(engine.OpGetTags, engine.StatusOffline, nil, tags)
	tags[0].Tag = "mutated"

	got, _, ok := h.Result()
	require.True(t, ok)
	assert.Equal(t, "Offline", got.Status)
	assert.Equal(t, []engine.Tag{{Tag: "a", Source: "x"}, {Tag: "b", Source: "y"}}, got.Tags)
	assert.Nil(t, got.Tag)
}

func TestRegistry_RemoveAllCarriesStatusOnly(t *testing.T) {
	r := NewRegistry(nil)
	h := NewHandle[TagResult]()
	r.Register(engine.OpRemoveAllTags, h)

	r.Complete(engine.OpRemoveAllTags, engine.StatusInvalidTime, &engine.Tag{Tag: "ignored"}, nil)

	got, _, ok := h.Result()
	require.True(t, ok)
	assert.Equal(t, TagResult{Status: "Wrong time"}, got)
}

func TestRegistry_CompleteWithoutPendingIsNoop(t *testing.T) {
	r := NewRegistry(nil)
	before := testutil.ToFloat64(observability.CallbacksDiscarded.WithLabelValues(engine.OpRemoveTag.String()))

	assert.NotPanics(t, func() {
		assert.False(t, r.Complete(engine.OpRemoveTag, engine.StatusSuccess, &engine.Tag{Tag: "x"}, nil))
	})

	after := testutil.ToFloat64(observability.CallbacksDiscarded.WithLabelValues(engine.OpRemoveTag.String()))
	assert.Equal(t, before+1, after)
}

func TestRegistry_SecondCompletionIsDiscarded(t *testing.T) {
	r := NewRegistry(nil)
	h := NewHandle[TagResult]()
	r.Register(engine.OpGetTags, h)

	assert.True(t, r.Complete(engine.OpGetTags, engine.StatusSuccess, nil, nil))
	assert.False(t, r.Complete(engine.OpGetTags, engine.StatusOffline, nil, nil))

	got, _, _ := h.Result()
	assert.Equal(t, "Success", got.Status)
}

func TestRegistry_OverwriteRejectsPrevious(t *testing.T) {
	r := NewRegistry(nil)
	h1 := NewHandle[TagResult]()
	h2 := NewHandle[TagResult]()

	r.Register(engine.OpRemoveTag, h1)
	r.Register(engine.OpRemoveTag, h2)
	r.Complete(engine.OpRemoveTag, engine.StatusSuccess, &engine.Tag{Tag: "t"}, nil)

	_, err1, ok1 := h1.Result()
	require.True(t, ok1)
	assert.ErrorIs(t, err1, ErrSuperseded)

	got2, err2, ok2 := h2.Result()
	require.True(t, ok2)
	require.NoError(t, err2)
	assert.Equal(t, "Success", got2.Status)
}

func TestRegistry_KindsAreIndependent(t *testing.T) {
	r := NewRegistry(nil)
	handles := make(map[engine.TagOperation]*Handle[TagResult])
	for _, op := range allOps {
		handles[op] = NewHandle[TagResult]()
		r.Register(op, handles[op])
	}

	r.Complete(engine.OpRemoveTag, engine.StatusSuccess, nil, nil)

	for op, h := range handles {
		_, _, ok := h.Result()
		assert.Equal(t, op == engine.OpRemoveTag, ok, op.String())
	}
}

func TestRegistry_ConcurrentRegisterAndComplete(t *testing.T) {
	r := NewRegistry(nil)

	const n = 200
	handles := make([]*Handle[TagResult], n)
	for i := range handles {
		handles[i] = NewHandle[TagResult]()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, h := range handles {
			r.Register(engine.OpGetTags, h)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			r.Complete(engine.OpGetTags, engine.StatusSuccess, nil, nil)
		}
	}()
	wg.Wait()
	r.Complete(engine.OpGetTags, engine.StatusSuccess, nil, nil)

	// Every handle ends up either resolved or superseded; none is lost.
	for i, h := range handles {
		_, err, ok := h.Result()
		require.True(t, ok, "handle %d left pending", i)
		if err != nil {
			assert.ErrorIs(t, err, ErrSuperseded)
		}
	}
}

func TestRegistry_PropertyResolvesOnlyLatest(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("only the last registered handle resolves", prop.ForAll(
		func(opIdx int, registrations int, code int) bool {
			op := allOps[opIdx]
			r := NewRegistry(nil)
			handles := make([]*Handle[TagResult], registrations)
			for i := range handles {
				handles[i] = NewHandle[TagResult]()
				r.Register(op, handles[i])
			}
			r.Complete(op, engine.StatusCode(code), nil, nil)

			for i, h := range handles {
				got, err, ok := h.Result()
				if !ok {
					return false
				}
				last := i == len(handles)-1
				if last && (err != nil || got.Status != engine.Translate(engine.StatusCode(code))) {
					return false
				}
				if !last && err != ErrSuperseded {
					return false
				}
			}
			return !r.Pending(op)
		},
		gen.IntRange(0, len(allOps)-1),
		gen.IntRange(1, 8),
		gen.IntRange(-2, 10),
	))

	properties.TestingRun(t)
}

func TestRegistry_GetWithNoTagsEncodesEmptyArray(t *testing.T) {
	r := NewRegistry(nil)
	get := NewHandle[TagResult]()
	add := NewHandle[TagResult]()
	all := NewHandle[TagResult]()
	r.Register(engine.OpGetTags, get)
	r.Register(engine.OpAddTag, add)
	r.Register(engine.OpRemoveAllTags, all)

	tag := engine.Tag{Tag: "home", Source: "manual"}
	require.True(t, r.Complete(engine.OpGetTags, engine.StatusSuccess, nil, nil))
	require.True(t, r.Complete(engine.OpAddTag, engine.StatusSuccess, &tag, nil))
	require.True(t, r.Complete(engine.OpRemoveAllTags, engine.StatusOffline, nil, nil))

	encode := func(h *Handle[TagResult]) string {
		res, err, ok := h.Result()
		require.True(t, ok)
		require.NoError(t, err)
		b, err := json.Marshal(res)
		require.NoError(t, err)
		return string(b)
	}
	assert.JSONEq(t, `{"status":"Success","tags":[]}`, encode(get))
	assert.JSONEq(t, `{"status":"Success","tag":{"tag":"home","source":"manual"}}`, encode(add))
	assert.JSONEq(t, `{"status":"Offline"}`, encode(all))
}
