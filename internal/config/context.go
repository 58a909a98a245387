package config

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type (
	CorrelationContextKey string
	TimeCreatedContextKey string
	RequestContextKey     string
)

// RequestInfo is the per-request detail every log line carries.
type RequestInfo struct {
	RemoteAddr string
	URL        string
}

// SetContextCorrelationId stores value as the request correlation id. An
// empty value gets a fresh uuid.
func SetContextCorrelationId(ctx context.Context, value string) context.Context {

	if value == "" {
		value = uuid.NewString()
	}

	newctx := context.WithValue(ctx, CorrelationContextKey("cid"), value)

	// if the created time is unset then set it. test for -1 as 0 could be
	// a symptom of a default unset value
	t := GetContextTimeCreated(ctx)
	if t == -1 {
		newctx = context.WithValue(
			newctx,
			TimeCreatedContextKey("timeCreated"),
			time.Now().UnixNano())
	}

	return newctx
}

func GetContextTimeCreated(ctx context.Context) int64 {

	key := TimeCreatedContextKey("timeCreated")

	if v := ctx.Value(key); v != nil {
		return v.(int64)
	}
	return -1
}

func GetContextCorrelationId(ctx context.Context) string {

	key := CorrelationContextKey("cid")

	if v := ctx.Value(key); v != nil {
		return v.(string)
	}

	return "no-id"
}

func SetContextRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, RequestContextKey("request"), info)
}

func GetContextRequestInfo(ctx context.Context) RequestInfo {
	if v := ctx.Value(RequestContextKey("request")); v != nil {
		return v.(RequestInfo)
	}
	return RequestInfo{}
}
