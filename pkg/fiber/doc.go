// Package fiber implements a hook-state runtime and an incremental,
// interruptible reconciler.
//
// A Root owns a tree of render units. Each unit is one component instance,
// host element, text leaf or fragment at a tree position. Component units
// keep an ordered list of hook slots that survives across renders; slots
// are addressed purely by call order, so a render function must call the
// same hooks in the same order every time.
//
//	var Counter = fiber.Define("Counter", func(h *fiber.Hooks, props vdom.Props) *vdom.Node {
//	    count, setCount := fiber.UseState(h, 0)
//	    fiber.UseEffect(h, func() fiber.Cleanup {
//	        log.Println("count is", count)
//	        return nil
//	    }, fiber.Deps{count})
//	    return vdom.Button(vdom.Textf("%d", count))
//	})
//
// # Passes
//
// State updates are queued on their hook slot and coalesced: the first
// update in a synchronous window arms one deferred flush on the host
// Scheduler, later updates only enqueue. A flush runs one render pass:
// a walk over a work-in-progress copy of the committed tree that can
// yield to the host between units and resume where it stopped. Nothing is
// visible to the host until commit, which applies deletions, placements
// and updates without interruption and then swaps the committed tree.
// Layout effects run at the end of commit; passive effects run in a later
// host task.
//
// # Errors
//
// Hook misuse panics with a coded error wrapping ErrHookOrderViolation or
// ErrInvalidPrimitiveCall. Inside a render the panic is recovered and the
// whole pass is abandoned before commit. Effect failures are recovered,
// reported to the error handler and returned from Flush.
package fiber
