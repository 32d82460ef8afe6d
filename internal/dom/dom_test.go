package dom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/evented/internal/aspect"
	"github.com/dshills/evented/internal/dom"
)

func TestFeatures_LeakProne(t *testing.T) {
	tests := []struct {
		version float64
		want    bool
	}{
		{0, false},
		{5.5, true},
		{5.6, true},
		{5.7, false},
		{6, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, dom.Features{EngineVersion: tt.version}.LeakProne(), "version %v", tt.version)
	}
}

func TestDocument_CreateElementFlavor(t *testing.T) {
	native := dom.NewDocument(dom.Features{NativeListeners: true})
	_, ok := native.CreateElement("div").(dom.NativeTarget)
	assert.True(t, ok)

	legacy := dom.NewDocument(dom.Features{EngineVersion: 6})
	el := legacy.CreateElement("div")
	_, ok = el.(dom.LegacyTarget)
	assert.True(t, ok)
	_, ok = el.(dom.NativeTarget)
	assert.False(t, ok)
}

func TestNode_TreeAndDescendants(t *testing.T) {
	doc := dom.NewDocument(dom.Features{NativeListeners: true})
	a := doc.CreateElement("a")
	b := doc.CreateElement("b")
	c := doc.CreateElement("c")
	d := doc.CreateElement("d")

	doc.AppendChild(a)
	a.AppendChild(b)
	b.AppendChild(c)
	a.AppendChild(d)

	names := func(nodes []dom.Node) []string {
		out := make([]string, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, n.Name())
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(doc.Descendants()))
	assert.Equal(t, dom.Node(doc), a.Parent())
	assert.NotEqual(t, a.ID(), b.ID())

	require.NoError(t, a.RemoveChild(b))
	assert.Nil(t, b.Parent())
	assert.Equal(t, []string{"a", "d"}, names(doc.Descendants()))
	assert.ErrorIs(t, a.RemoveChild(b), dom.ErrNotChild)
}

func TestDispatch_NativeBubblesUntilStopped(t *testing.T) {
	doc := dom.NewDocument(dom.Features{NativeListeners: true})
	outer := doc.CreateElement("outer")
	inner := doc.CreateElement("inner")
	doc.AppendChild(outer)
	outer.AppendChild(inner)

	var seen []string
	inner.(dom.NativeTarget).AddEventListener("click", dom.NewListener(func(evt *dom.Event) {
		seen = append(seen, "inner:"+evt.CurrentTarget.(dom.Node).Name())
	}), false)
	outer.SetMethod("onclick", aspect.Func[*dom.Event](func(evt *dom.Event) {
		seen = append(seen, "outer-slot")
		evt.StopPropagation()
	}))
	doc.SetMethod("onclick", aspect.Func[*dom.Event](func(*dom.Event) {
		seen = append(seen, "document")
	}))

	evt := dom.NewEvent("click")
	assert.True(t, doc.Dispatch(inner, evt))
	assert.Equal(t, []string{"inner:inner", "outer-slot"}, seen)
	assert.Equal(t, inner, evt.Target)
}

func TestDispatch_NativeDuplicateListenerIgnored(t *testing.T) {
	doc := dom.NewDocument(dom.Features{NativeListeners: true})
	el := doc.CreateElement("div").(*dom.NativeElement)

	count := 0
	l := dom.NewListener(func(*dom.Event) { count++ })
	el.AddEventListener("click", l, false)
	el.AddEventListener("click", l, false)
	assert.Equal(t, 1, el.ListenerCount("click"))

	doc.Dispatch(el, dom.NewEvent("click"))
	assert.Equal(t, 1, count)

	el.RemoveEventListener("click", l, false)
	doc.Dispatch(el, dom.NewEvent("click"))
	assert.Equal(t, 1, count)
}

func TestDispatch_LegacyPublishesCurrentEvent(t *testing.T) {
	doc := dom.NewDocument(dom.Features{EngineVersion: 6})
	el := doc.CreateElement("div")
	doc.AppendChild(el)

	var during *dom.Event
	el.SetMethod("onclick", aspect.Func[*dom.Event](func(*dom.Event) {
		during = doc.CurrentEvent()
	}))

	evt := dom.NewLegacyEvent("click", nil)
	doc.Dispatch(el, evt)

	assert.Same(t, evt, during)
	assert.Nil(t, doc.CurrentEvent())
	assert.Equal(t, el, evt.Legacy.SrcElement)
	assert.Nil(t, evt.Target)
}

func TestDispatch_LegacyCancelBubble(t *testing.T) {
	doc := dom.NewDocument(dom.Features{EngineVersion: 6})
	outer := doc.CreateElement("outer")
	inner := doc.CreateElement("inner")
	doc.AppendChild(outer)
	outer.AppendChild(inner)

	attached := 0
	inner.(dom.LegacyTarget).AttachEvent("onclick", dom.NewListener(func(evt *dom.Event) {
		attached++
		evt.Legacy.CancelBubble = true
		evt.Legacy.DefaultSuppressed = true
	}))
	reachedOuter := false
	outer.SetMethod("onclick", aspect.Func[*dom.Event](func(*dom.Event) { reachedOuter = true }))

	ok := doc.Dispatch(inner, dom.NewLegacyEvent("click", inner))
	assert.False(t, ok)
	assert.Equal(t, 1, attached)
	assert.False(t, reachedOuter)
}

func TestEvent_LegacyHasNoCancellation(t *testing.T) {
	evt := dom.NewLegacyEvent("click", nil)
	assert.False(t, evt.HasCancellation())
	evt.StopPropagation()
	evt.PreventDefault()
	assert.False(t, evt.PropagationStopped())
	assert.False(t, evt.DefaultPrevented())

	evt.Legacy.KeyCodeReadOnly = true
	assert.ErrorIs(t, evt.SetKeyCode(0), dom.ErrKeyCodeReadOnly)
}

func TestCharOrCode_String(t *testing.T) {
	assert.Equal(t, "a", dom.CharOrCode{Char: "a", Code: 97}.String())
	assert.Equal(t, "13", dom.CharOrCode{Code: 13}.String())
	assert.False(t, dom.CharOrCode{Code: 13}.IsChar())
}

func TestDocument_UnloadFiresWindow(t *testing.T) {
	doc := dom.NewDocument(dom.Features{NativeListeners: true})
	fired := false
	doc.Window().SetMethod("onunload", aspect.Func[*dom.Event](func(*dom.Event) { fired = true }))
	doc.Unload()
	assert.True(t, fired)
}
