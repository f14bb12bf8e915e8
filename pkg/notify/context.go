package notify

import "context"

type stackKey struct{}

// deliveryStack returns the event names currently being delivered on
// this publish chain, outermost first.
func deliveryStack(ctx context.Context) []string {
	stack, _ := ctx.Value(stackKey{}).([]string)
	return stack
}

// pushDelivery returns a context whose delivery stack has name
// appended. The parent's slice is copied so sibling publishes never
// observe each other's frames.
func pushDelivery(ctx context.Context, name string) context.Context {
	prev := deliveryStack(ctx)
	next := make([]string, len(prev)+1)
	copy(next, prev)
	next[len(prev)] = name
	return context.WithValue(ctx, stackKey{}, next)
}

// Depth reports how many deliveries of name are active on the chain
// carried by ctx.
func Depth(ctx context.Context, name string) int {
	depth := 0
	for _, entry := range deliveryStack(ctx) {
		if entry == name {
			depth++
		}
	}
	return depth
}
