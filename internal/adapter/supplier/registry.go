package supplier

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
)

// Limits configures throttling applied to every supplier independently.
type Limits struct {
	RPS     float64
	Burst   int
	Timeout time.Duration
}

// Registry resolves adapters by supplier type.
type Registry struct {
	adapters map[model.SupplierType]Adapter
}

// NewRegistry wraps each adapter with its own token bucket and call timeout.
func NewRegistry(limits Limits, adapters ...Adapter) *Registry {
	if limits.Burst <= 0 {
		limits.Burst = 1
	}
	r := &Registry{adapters: make(map[model.SupplierType]Adapter, len(adapters))}
	for _, a := range adapters {
		limit := rate.Inf
		if limits.RPS > 0 {
			limit = rate.Limit(limits.RPS)
		}
		r.adapters[a.Type()] = &limitedAdapter{
			Adapter: a,
			limiter: rate.NewLimiter(limit, limits.Burst),
			timeout: limits.Timeout,
		}
	}
	return r
}

// Lookup returns the adapter for supplier.
func (r *Registry) Lookup(supplier model.SupplierType) (Adapter, bool) {
	a, ok := r.adapters[supplier]
	return a, ok
}

type limitedAdapter struct {
	Adapter
	limiter *rate.Limiter
	timeout time.Duration
}

func (a *limitedAdapter) CreateOrder(ctx context.Context, cred model.SupplierCredential, req OrderRequest) (*model.Placement, error) {
	callCtx, cancel, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	placement, err := a.Adapter.CreateOrder(callCtx, cred, req)
	return placement, a.classify(callCtx, err)
}

func (a *limitedAdapter) GetTracking(ctx context.Context, cred model.SupplierCredential, supplierOrderID string) (*model.TrackingInfo, error) {
	callCtx, cancel, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	info, err := a.Adapter.GetTracking(callCtx, cred, supplierOrderID)
	return info, a.classify(callCtx, err)
}

func (a *limitedAdapter) acquire(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, nil, domainErrors.Unavailable(a.Type(), err)
	}
	if a.timeout <= 0 {
		callCtx, cancel := context.WithCancel(ctx)
		return callCtx, cancel, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	return callCtx, cancel, nil
}

// classify turns an expired call budget into SupplierUnavailable whatever the adapter returned.
func (a *limitedAdapter) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		var se *domainErrors.SupplierError
		if errors.As(err, &se) && se.Kind == model.ErrorKindSupplierUnavailable {
			return err
		}
		return domainErrors.Unavailable(a.Type(), ctxErr)
	}
	return err
}
