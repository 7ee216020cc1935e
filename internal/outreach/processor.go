package outreach

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/contact"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// PageFetcher retrieves a lead's website content.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// DraftComposer turns a contact and page content into an email draft.
type DraftComposer interface {
	Compose(ctx context.Context, c model.Contact, pageHTML string) (*model.EmailDraft, error)
}

// DraftDispatcher submits the draft and returns the token in effect
// afterward.
type DraftDispatcher interface {
	CreateDraft(ctx context.Context, token, to string, draft *model.EmailDraft) (string, error)
}

// Processor runs the per-contact pipeline: email validation, skip
// check, fetch, compose, dispatch, mark.
type Processor struct {
	store      contact.Store
	fetcher    PageFetcher
	composer   DraftComposer
	dispatcher DraftDispatcher
}

// NewProcessor creates a Processor.
func NewProcessor(store contact.Store, fetcher PageFetcher, composer DraftComposer, dispatcher DraftDispatcher) *Processor {
	return &Processor{store: store, fetcher: fetcher, composer: composer, dispatcher: dispatcher}
}

// Process handles one contact. The returned outcome describes the
// contact's result; a non-nil error means the backing store or the auth
// layer failed and the run itself is in trouble. A contact is marked
// contacted exactly when its draft was created or its failure is
// permanent; transient failures leave the row untouched for the next
// run.
func (p *Processor) Process(ctx context.Context, token string, c model.Contact) (model.Outcome, error) {
	start := time.Now()
	log := zap.L().With(zap.String("email", c.Email), zap.String("website", c.Website))

	outcome := func(status model.OutcomeStatus, err error) model.Outcome {
		o := model.Outcome{
			Email:   c.Email,
			Website: c.Website,
			Status:  status,
			Elapsed: time.Since(start),
			Token:   token,
		}
		if err != nil {
			o.Err = err.Error()
		}
		return o
	}

	if ctx.Err() != nil {
		return outcome(model.OutcomeCancelled, ctx.Err()), nil
	}

	if !c.ValidEmail() {
		return p.settleFailure(ctx, log, c.Email, outcome,
			eris.Errorf("outreach: invalid email format: %q", c.Email))
	}

	done, err := p.store.AlreadyContacted(ctx, c.Email)
	if err != nil {
		return outcome(model.OutcomeFailed, err), eris.Wrap(err, "outreach: contacted check")
	}
	if done {
		log.Info("outreach: already contacted, skipping")
		return outcome(model.OutcomeSkipped, nil), nil
	}

	pageHTML, fetchErr := p.fetcher.Fetch(ctx, c.Website)
	if fetchErr != nil {
		if ctx.Err() != nil {
			return outcome(model.OutcomeCancelled, ctx.Err()), nil
		}
		return p.settleFailure(ctx, log, c.Email, outcome, fetchErr)
	}

	draft, err := p.composer.Compose(ctx, c, pageHTML)
	if err != nil {
		// Compose only errors on cancellation; every model failure
		// degrades to a fallback draft instead.
		return outcome(model.OutcomeCancelled, err), nil
	}

	newToken, dispatchErr := p.dispatcher.CreateDraft(ctx, token, c.Email, draft)
	token = newToken
	if dispatchErr != nil {
		if ctx.Err() != nil {
			return outcome(model.OutcomeCancelled, ctx.Err()), nil
		}
		return p.settleFailure(ctx, log, c.Email, outcome, dispatchErr)
	}

	if err := p.store.MarkContacted(ctx, c.Email); err != nil {
		return outcome(model.OutcomeFailed, err), eris.Wrap(err, "outreach: mark contacted")
	}
	log.Info("outreach: draft created", zap.Duration("elapsed", time.Since(start)))
	return outcome(model.OutcomeSucceeded, nil), nil
}

// settleFailure classifies a pipeline failure and marks the contact if
// it is permanent.
func (p *Processor) settleFailure(ctx context.Context, log *zap.Logger, email string, outcome func(model.OutcomeStatus, error) model.Outcome, cause error) (model.Outcome, error) {
	if resilience.IsPermanentFailure(cause) {
		log.Warn("outreach: permanent failure, marking contacted", zap.Error(cause))
		if err := p.store.MarkContacted(ctx, email); err != nil {
			return outcome(model.OutcomeFailed, cause), eris.Wrap(err, "outreach: mark contacted")
		}
	} else {
		log.Warn("outreach: transient failure, leaving contact for next run", zap.Error(cause))
	}
	return outcome(model.OutcomeFailed, cause), nil
}
