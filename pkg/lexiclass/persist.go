package lexiclass

import (
	"context"
	"errors"
	"fmt"

	"github.com/cognicore/lexiclass/pkg/lexiclass/store"
	"github.com/cognicore/lexiclass/pkg/lexiclass/store/file"
)

// Save writes the classifier to a JSON file at path.
func (c *Classifier) Save(ctx context.Context, path string) *Future[struct{}] {
	return c.save(ctx, file.Open(path), true)
}

// SaveTo writes the classifier to backend. The backend stays open.
func (c *Classifier) SaveTo(ctx context.Context, backend store.Backend) *Future[struct{}] {
	return c.save(ctx, backend, false)
}

// save snapshots state synchronously, so the classifier may be mutated as
// soon as save returns.
func (c *Classifier) save(ctx context.Context, backend store.Backend, closeAfter bool) *Future[struct{}] {
	st, err := c.ToState()
	if err != nil {
		return failed[struct{}](fmt.Errorf("%w: %w", ErrPersistence, err))
	}

	f := newFuture[struct{}]()
	log := c.log
	go func() {
		err := backend.Save(ctx, st)
		if closeAfter {
			err = errors.Join(err, backend.Close())
		}
		if err != nil {
			if !errors.Is(err, ErrPersistence) {
				err = fmt.Errorf("%w: %w", ErrPersistence, err)
			}
			log.Error("save classifier", "error", err)
		} else {
			log.Debug("classifier saved", "documents", len(st.Documents), "trained", st.Model != nil)
		}
		f.complete(struct{}{}, err)
	}()
	return f
}

// Load reads a classifier saved with Save. opts supplies the tokenizer,
// stoplist, trainer and logger of the restored instance.
func Load(ctx context.Context, path string, opts Options) *Future[*Classifier] {
	return load(ctx, file.Open(path), opts, true)
}

// LoadFrom reads a classifier from backend. The backend stays open.
func LoadFrom(ctx context.Context, backend store.Backend, opts Options) *Future[*Classifier] {
	return load(ctx, backend, opts, false)
}

func load(ctx context.Context, backend store.Backend, opts Options, closeAfter bool) *Future[*Classifier] {
	f := newFuture[*Classifier]()
	go func() {
		st, err := backend.Load(ctx)
		if closeAfter {
			err = errors.Join(err, backend.Close())
		}
		var c *Classifier
		if err == nil {
			c, err = FromState(st, opts)
		}
		if err != nil {
			if opts.Logger != nil {
				opts.Logger.Error("load classifier", "error", err)
			}
			f.complete(nil, err)
			return
		}
		f.complete(c, nil)
	}()
	return f
}
