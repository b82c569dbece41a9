// Package respond synchronizes breakpoint-scoped attribute values onto
// nodes of a DOM-like tree.
//
// The core type is Engine, which holds the per-breakpoint values of one host
// node (a srcset on an img, typically), listens for breakpoint activations,
// and writes whichever value is in effect onto the right node.
//
// # Modes
//
// The structural mode is derived from the host's parent when the engine
// starts:
//
//   - Standalone: the host carries the value of the active breakpoint, or
//     the default value when no breakpoint with a value is active.
//   - Fallback chain: the host sits inside a container (picture). One source
//     node per breakpoint in use is inserted before the host, largest range
//     first, each carrying its media query and value. The host keeps the
//     default value and remains the last alternative.
//
// Injection is skipped when the Capability predicate reports a
// non-interactive environment or no activation Source is bound; the host
// then carries its default value only.
//
// # Ports
//
// The engine never touches a concrete DOM. It depends on:
//
//   - Renderer: create, attribute and insert nodes, read parent and tag.
//     pkg/dom provides one over golang.org/x/net/html.
//   - Source: breakpoint activations. Bus and ChannelSource are in-process
//     implementations; pkg/nats subscribes to a NATS subject.
//   - Registry: breakpoints in use, largest first. By default the engine
//     filters its Breakpoints set by the values it holds.
//
// # Values
//
// Values enter through Engine.SetValue, or through a Binding that watches a
// value document and pushes only the keys that changed. Feeds live in their
// own modules: pkg/file, pkg/redis, pkg/nats, pkg/postgres, pkg/etcd,
// pkg/consul, pkg/zookeeper, pkg/firestore and pkg/kubernetes.
//
// # Example
//
//	bus := respond.NewBus()
//	engine := respond.New[*html.Node](img, dom.Renderer{}).Source(bus)
//
//	engine.SetValue(ctx, respond.SuffixNone, "a.jpg 1x")
//	engine.SetValue(ctx, respond.SuffixMD, "a-md.jpg 1x")
//	if err := engine.Start(ctx); err != nil {
//	    return err
//	}
//	defer engine.Stop()
//
//	bus.Publish(respond.Activation{Family: "srcset", Suffix: respond.SuffixMD})
//
// # Observability
//
// Lifecycle and writes are published as capitan signals (see signals.go);
// hook them for logging or auditing:
//
//	capitan.Hook(respond.ValueApplied, func(_ context.Context, e *capitan.Event) {
//	    key, _ := respond.KeyKey.From(e)
//	    log.Printf("applied %s", key)
//	})
package respond
