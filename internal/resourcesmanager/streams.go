package resourcesmanager

import (
	"context"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/stream"
)

// Resources returns resources$: switchMap(update$, () =>
// combineLatest(every live adapter's Resources())). Whenever the adapter
// set changes, the prior combined subscription is torn down and rebuilt
// from the current set (spec.md §4.5.6).
func (m *Manager) Resources(ctx context.Context) *stream.Subject[[]resource.Resource] {
	project := func(innerCtx context.Context, _ struct{}) *stream.Subject[[]resource.Resource] {
		m.mu.Lock()
		subs := make([]*stream.Subject[resource.Resource], 0, len(m.adapters))
		for _, a := range m.adapters {
			subs = append(subs, a.Resources())
		}
		m.mu.Unlock()
		return stream.CombineLatest(innerCtx, subs)
	}
	return stream.SwitchMap(ctx, m.update, project)
}

// GetResources narrows Resources to whatever the resource type's
// FilterResources keeps for options.
func (m *Manager) GetResources(ctx context.Context, options resource.Options) *stream.Subject[[]resource.Resource] {
	out := stream.NewSubject[[]resource.Resource]()
	ch, unsub := m.Resources(ctx).Subscribe()
	go func() {
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				out.Complete()
				return
			case v, ok := <-ch:
				if !ok {
					out.Complete()
					return
				}
				out.Next(m.typ.FilterResources(v, options))
			}
		}
	}()
	return out
}

// GetResource further narrows GetResources to the single entry named name,
// or nil while it is absent.
func (m *Manager) GetResource(ctx context.Context, name string, options resource.Options) *stream.Subject[*resource.Resource] {
	out := stream.NewSubject[*resource.Resource]()
	ch, unsub := m.GetResources(ctx, options).Subscribe()
	go func() {
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				out.Complete()
				return
			case list, ok := <-ch:
				if !ok {
					out.Complete()
					return
				}
				var match *resource.Resource
				for i := range list {
					if list[i].Name == name {
						r := list[i]
						match = &r
						break
					}
				}
				out.Next(match)
			}
		}
	}()
	return out
}
