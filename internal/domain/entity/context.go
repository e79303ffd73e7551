package entity

import (
	"context"
	"net/url"

	"github.com/prometheus/common/model"
)

type (
	groupKeyKey     struct{}
	groupLabelsKey  struct{}
	receiverNameKey struct{}
	externalURLKey  struct{}
)

// WithGroupKey attaches the routing group key to the context.
func WithGroupKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, groupKeyKey{}, key)
}

// GroupKey retrieves the group key from the context.
func GroupKey(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(groupKeyKey{}).(string)
	return v, ok
}

// WithGroupLabels attaches the group label set to the context.
func WithGroupLabels(ctx context.Context, labels model.LabelSet) context.Context {
	return context.WithValue(ctx, groupLabelsKey{}, labels)
}

// GroupLabels retrieves the group labels from the context.
func GroupLabels(ctx context.Context) (model.LabelSet, bool) {
	v, ok := ctx.Value(groupLabelsKey{}).(model.LabelSet)
	return v, ok
}

// WithReceiverName attaches the receiver name to the context.
func WithReceiverName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, receiverNameKey{}, name)
}

// ReceiverName retrieves the receiver name from the context.
func ReceiverName(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(receiverNameKey{}).(string)
	return v, ok
}

// WithExternalURL overrides the external base URL for one notification.
func WithExternalURL(ctx context.Context, u *url.URL) context.Context {
	return context.WithValue(ctx, externalURLKey{}, u)
}

// ExternalURL retrieves the per-call external URL from the context.
func ExternalURL(ctx context.Context) (*url.URL, bool) {
	v, ok := ctx.Value(externalURLKey{}).(*url.URL)
	return v, ok && v != nil
}
