package geolib

import (
	"context"
	"fmt"
	"sync"
)

// BatchResult is a result of a single Provide within ProvideAll.
type BatchResult struct {
	Request Request
	Record  *Record
	Outcome Outcome
	Err     error
}

type provideRequest struct {
	ctx    context.Context
	req    Request
	result *BatchResult
	wg     *sync.WaitGroup
}

// ProvideAll runs Provide for each request on a worker pool. Results
// have the same order as requests. If a context is closed, the rest of
// requests are failed with ErrContextIsClosed.
func (g *Geolocator) ProvideAll(ctx context.Context, reqs []Request) ([]BatchResult, error) {
	g.rwmutex.RLock()
	defer g.rwmutex.RUnlock()

	if g.closed {
		return nil, ErrGeolocatorShutdown
	}

	rv := make([]BatchResult, len(reqs))
	wg := &sync.WaitGroup{}

	for i := range reqs {
		rv[i].Request = reqs[i]
		rv[i].Err = ErrContextIsClosed
	}

	for i := range reqs {
		if err := g.schedule(ctx, &rv[i], wg); err != nil {
			break
		}
	}

	wg.Wait()

	return rv, nil
}

func (g *Geolocator) schedule(ctx context.Context, result *BatchResult, wg *sync.WaitGroup) error {
	select {
	case <-ctx.Done():
		return ErrContextIsClosed
	default:
	}

	wg.Add(1)

	task := &provideRequest{
		ctx:    ctx,
		req:    result.Request,
		result: result,
		wg:     wg,
	}

	if err := g.workerPool.Invoke(task); err != nil {
		wg.Done()

		result.Err = fmt.Errorf("cannot schedule a task: %w", err)

		return result.Err
	}

	return nil
}

func (g *Geolocator) provideTask(args interface{}) {
	params := args.(*provideRequest)
	defer params.wg.Done()

	record, outcome, err := g.provide(params.ctx, params.req)

	params.result.Record = record
	params.result.Outcome = outcome
	params.result.Err = err
}
