// Package aspect provides method interception over named method slots.
//
// A target exposes a table of named slots (for example "onclick"). Advice is
// attached to a slot and composed into a dispatcher that replaces the slot's
// value. The dispatcher keeps the slot's original method and runs advice
// around it:
//
//   - Before: runs ahead of the original, most recently added first
//   - Around: wraps the original, later advice wrapping earlier advice
//   - After: runs once the original returns, in the order it was added
//
// Every piece of advice returns a Handle whose Cancel removes it from the
// chain. Cancel is idempotent. When the last piece of advice is removed and
// the slot still holds the dispatcher, the original method is restored.
//
// Writing a slot directly (SetMethod) replaces the dispatcher. Advice added
// afterwards starts a new chain whose original is the directly written value.
// This mirrors handler-property semantics: a slot holds exactly one value.
//
// # Usage
//
//	h := aspect.After[*Event](node, "onclick", aspect.Func[*Event](func(evt *Event) {
//	    // runs after whatever onclick already held
//	}))
//	defer h.Cancel()
package aspect
