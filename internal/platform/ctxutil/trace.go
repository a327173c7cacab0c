package ctxutil

import "context"

type traceDataKey struct{}

// TraceData carries request correlation ids plus the test/subject/job a
// request is scoped to, when its route names them.
type TraceData struct {
	TraceID   string
	RequestID string

	TestID    string
	SubjectID string
	Level     string
	JobID     string
}

// ScopeFields returns the non-empty scope ids as logger key/value pairs.
func (td *TraceData) ScopeFields() []any {
	if td == nil {
		return nil
	}
	var out []any
	for _, kv := range [][2]string{
		{"testId", td.TestID},
		{"subjectId", td.SubjectID},
		{"level", td.Level},
		{"job_id", td.JobID},
	} {
		if kv[1] != "" {
			out = append(out, kv[0], kv[1])
		}
	}
	return out
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	val := ctx.Value(traceDataKey{})
	if td, ok := val.(*TraceData); ok {
		return td
	}
	return nil
}

// Detached returns a context that keeps ctx's values (trace/request ids)
// but is not cancelled with it.
func Detached(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}

// Default returns ctx, or context.Background when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
