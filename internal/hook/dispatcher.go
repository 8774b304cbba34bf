package hook

import (
	"context"
	"fmt"

	"github.com/cyclopcam/logs"

	"github.com/talkheal/gesturemode/internal/store"
)

// BindingLookup finds the binding for a gesture label, or nil.
type BindingLookup interface {
	GetByGesture(gesture string) (*store.Binding, error)
}

// Dispatcher runs the hook bound to a reported gesture.
type Dispatcher struct {
	log      logs.Log
	bindings BindingLookup
	manager  *Manager
	executor *Executor
}

func NewDispatcher(log logs.Log, bindings BindingLookup, manager *Manager, executor *Executor) *Dispatcher {
	return &Dispatcher{
		log:      log,
		bindings: bindings,
		manager:  manager,
		executor: executor,
	}
}

// Dispatch runs the binding for ev.Gesture, if any. It returns nil, nil
// when nothing is bound or the binding is disabled.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (*Response, error) {
	b, err := d.bindings.GetByGesture(ev.Gesture)
	if err != nil {
		return nil, fmt.Errorf("lookup binding for %q: %w", ev.Gesture, err)
	}
	if b == nil || !b.Enabled {
		return nil, nil
	}

	h, err := d.manager.Get(b.HookName)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w: %s", b.ID, err, b.HookName)
	}
	if !h.Manifest.SupportsAction(b.Action) {
		return nil, fmt.Errorf("hook %s does not support action %q", h.Manifest.Name, b.Action)
	}

	resp, err := d.executor.Execute(ctx, h, &Request{
		Action:  b.Action,
		Gesture: ev.Gesture,
		Config:  b.Config,
		Event:   ev,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		d.log.Warnf("Hook %s/%s reported failure for %q: %s", h.Manifest.Name, b.Action, ev.Gesture, resp.Error)
	} else {
		d.log.Infof("Hook %s/%s ran for %q", h.Manifest.Name, b.Action, ev.Gesture)
	}
	return resp, nil
}
