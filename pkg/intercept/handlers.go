package intercept

import (
	"context"
	"time"

	"github.com/egehanasal/apidouble/pkg/bodyval"
	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

// Delay sleeps for ms milliseconds before passing the response through
// unchanged.
func Delay(ms int) Handler {
	return func(ctx context.Context, resp recordmodel.ResponseRecord, _ RequestContext) (recordmodel.ResponseRecord, error) {
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(ms) * time.Millisecond):
		}
		return resp, nil
	}
}

// ReplaceBody swaps the response body for value entirely.
func ReplaceBody(value bodyval.Value) Handler {
	return func(_ context.Context, resp recordmodel.ResponseRecord, _ RequestContext) (recordmodel.ResponseRecord, error) {
		resp.Body = &value
		return resp, nil
	}
}

// ModifyBody applies fn to the current body and stores the result.
func ModifyBody(fn func(bodyval.Value) bodyval.Value) Handler {
	return func(_ context.Context, resp recordmodel.ResponseRecord, _ RequestContext) (recordmodel.ResponseRecord, error) {
		var current bodyval.Value
		if resp.Body != nil {
			current = *resp.Body
		}
		updated := fn(current)
		resp.Body = &updated
		return resp, nil
	}
}

// SetStatus overwrites the response status code.
func SetStatus(code int) Handler {
	return func(_ context.Context, resp recordmodel.ResponseRecord, _ RequestContext) (recordmodel.ResponseRecord, error) {
		resp.Status = code
		return resp, nil
	}
}

// MergeHeaders adds or overwrites response headers, leaving any header not
// present in extra untouched.
func MergeHeaders(extra map[string]string) Handler {
	return func(_ context.Context, resp recordmodel.ResponseRecord, _ RequestContext) (recordmodel.ResponseRecord, error) {
		if resp.Headers == nil {
			resp.Headers = make(map[string]string, len(extra))
		}
		for k, v := range extra {
			resp.Headers[k] = v
		}
		return resp, nil
	}
}

// SyntheticError replaces the response entirely with a synthetic error
// body, matching the shape the chaos injector emits.
func SyntheticError(status int, message string) Handler {
	return func(_ context.Context, resp recordmodel.ResponseRecord, _ RequestContext) (recordmodel.ResponseRecord, error) {
		body := bodyval.Value{Kind: bodyval.JSON, JSON: map[string]interface{}{
			"error":    httpReasonOrDefault(status),
			"message":  message,
			"injected": true,
		}}
		return recordmodel.ResponseRecord{
			Status:       status,
			Headers:      map[string]string{"content-type": "application/json"},
			Body:         &body,
			CapturedAtMs: resp.CapturedAtMs,
		}, nil
	}
}

// Chain invokes handlers left to right, threading the response from one
// into the next. It stops and returns the first error encountered.
func Chain(handlers ...Handler) Handler {
	return func(ctx context.Context, resp recordmodel.ResponseRecord, rc RequestContext) (recordmodel.ResponseRecord, error) {
		current := resp
		for _, h := range handlers {
			next, err := h(ctx, current, rc)
			if err != nil {
				return current, err
			}
			current = next
		}
		return current, nil
	}
}

func httpReasonOrDefault(status int) string {
	switch status {
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 408:
		return "Request Timeout"
	case 429:
		return "Too Many Requests"
	case 500:
		return "Internal Server Error"
	case 502:
		return "Bad Gateway"
	case 503:
		return "Service Unavailable"
	case 504:
		return "Gateway Timeout"
	default:
		return "Error"
	}
}
