package filters

import "context"

// Filter is one stage of the outbound HTML transformation pipeline. A
// filter must return its input unchanged when it is disabled or cannot
// transform safely; mutating the delivery's tracking state is the only
// permitted side effect.
type Filter interface {
	FilterHTML(ctx context.Context, input string) string
}

// Chain applies filters in a fixed order. Later filters observe text
// inserted by earlier ones, so click rewriting runs before the open pixel
// is added and never touches tracking URLs of its own making.
type Chain struct {
	filters []Filter
}

func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

func (c *Chain) FilterHTML(ctx context.Context, input string) string {
	output := input
	for _, f := range c.filters {
		output = f.FilterHTML(ctx, output)
	}
	return output
}
