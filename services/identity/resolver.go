package identity

import (
	"context"
	"time"

	"github.com/upb/authgate/internal/auth"
	"golang.org/x/sync/singleflight"
)

// DefaultLookupTimeout bounds a shared lookup once its first caller has gone.
const DefaultLookupTimeout = 2 * time.Second

// CoalescingResolver collapses concurrent lookups of the same subject into
// one call on the underlying resolver. Each caller still waits on its own
// context.
type CoalescingResolver struct {
	next    auth.IdentityResolver
	timeout time.Duration
	group   singleflight.Group
}

// NewCoalescingResolver wraps next. A non-positive timeout uses DefaultLookupTimeout.
func NewCoalescingResolver(next auth.IdentityResolver, timeout time.Duration) *CoalescingResolver {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &CoalescingResolver{next: next, timeout: timeout}
}

var _ auth.IdentityResolver = (*CoalescingResolver)(nil)

// FindByID implements auth.IdentityResolver
func (r *CoalescingResolver) FindByID(ctx context.Context, id string) (*auth.Identity, error) {
	ch := r.group.DoChan(id, func() (interface{}, error) {
		// detached so one caller's cancellation does not fail the others
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.next.FindByID(lookupCtx, id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		identity, _ := res.Val.(*auth.Identity)
		if identity == nil {
			return nil, nil
		}
		cp := *identity
		return &cp, nil
	}
}

// Forget detaches any in-flight lookup for id. Callers arriving afterwards
// start a fresh lookup instead of sharing one that may predate a write.
func (r *CoalescingResolver) Forget(id string) {
	r.group.Forget(id)
}
