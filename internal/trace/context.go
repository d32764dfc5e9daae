package trace

import "context"

type ctxKey struct{}

// ctxState travels in a context: the tracer and the innermost open span.
type ctxState struct {
	tracer Tracer
	parent uint64
}

func stateOf(ctx context.Context) ctxState {
	if ctx != nil {
		if st, ok := ctx.Value(ctxKey{}).(ctxState); ok {
			return st
		}
	}
	return ctxState{tracer: Nop}
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	return stateOf(ctx).tracer
}

// WithTracer attaches t to ctx. Spans opened under the result have no parent.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, ctxState{tracer: t})
}

// ParentID returns the id of the innermost span opened through ctx, 0 at the top.
func ParentID(ctx context.Context) uint64 {
	return stateOf(ctx).parent
}

// StartSpan opens a span under the one carried by ctx. The returned context
// parents further spans to it.
func StartSpan(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	st := stateOf(ctx)
	span := Begin(st.tracer, scope, name, st.parent)
	if !st.tracer.Enabled() {
		return ctx, span
	}
	return context.WithValue(ctx, ctxKey{}, ctxState{tracer: st.tracer, parent: span.ID()}), span
}
