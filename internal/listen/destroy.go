package listen

import (
	"github.com/dshills/evented/internal/aspect"
	"github.com/dshills/evented/internal/dom"
)

// Destroy subscribes l to the destruction of node. With the teardown chain
// active the listener goes through On as a "page" event so the node is
// marked; otherwise it is plain after-advice on the marker slot.
func (r *Runtime) Destroy(node aspect.Target[*dom.Event], l Listener) Handle {
	if r.teardown != nil {
		return r.On(node, PageEvent, l)
	}
	h := aspect.After[*dom.Event](node, MarkerSlot, aspect.Func[*dom.Event](l))
	r.track(StrategyAdvice)
	return newSignal(func() {
		h.Cancel()
		r.untrack(StrategyAdvice)
	})
}

// DestroyNode destroys node as a host would: descendants first, in reverse
// document order, then the node itself, and finally detaches it from its
// parent. With the teardown chain active this is a teardown pass rooted at
// node.
func (r *Runtime) DestroyNode(node dom.Node) {
	if r.teardown != nil {
		r.teardown.Run(node)
	} else {
		nodes := node.Descendants()
		for i := len(nodes) - 1; i >= 0; i-- {
			firePage(nodes[i])
		}
		firePage(node)
	}

	if parent := node.Parent(); parent != nil {
		_ = parent.RemoveChild(node)
	}
	r.log.V(1).Info("node destroyed", "node", node.Name(), "id", node.ID())
}

func firePage(n dom.Node) {
	if m := n.Method(MarkerSlot); m != nil {
		m.Invoke(pageEvent(n))
	}
}
