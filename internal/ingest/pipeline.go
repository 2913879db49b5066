package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
)

type (
	// Rejection pairs a raw input with the reason it was refused.
	Rejection struct {
		Input RawInput
		Err   error
	}

	// Result is the outcome of one bulk ingestion call. Accepted preserves
	// the relative order of the well-formed input rows.
	Result struct {
		Accepted []core.Transaction
		Rejected []Rejection
		Skipped  int
	}

	// Pipeline applies parse and validation across a batch of raw inputs.
	// Rows are independent, so parsing runs on a small worker pool; the
	// output lists are always reassembled in original input order, which is
	// part of the contract, not an implementation detail.
	Pipeline struct {
		Workers int

		now   func() time.Time
		newID func() string
	}

	rowOutcome struct {
		draft *Draft
		err   error
	}
)

const defaultWorkers = 4

// Reason renders the rejection for per-row upload reporting.
func (r Rejection) Reason() string {
	return fmt.Sprintf("%s: %v", r.Input.Source(), r.Err)
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		Workers: defaultWorkers,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Ingest processes every input row independently and exhaustively: one bad
// row never aborts the batch, it lands in Rejected with its reason. Accepted
// rows are stamped with the owner, a fresh id and the creation timestamp.
// The only hard errors are an empty owner and context cancellation.
func (p *Pipeline) Ingest(ctx context.Context, ownerID string, inputs []RawInput) (Result, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Result{}, core.ErrEmptyOwner
	}

	today := core.DateOf(p.now())
	outcomes := make([]rowOutcome, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			draft, err := Parse(in, today)
			if err == nil && draft != nil {
				err = draft.Validate()
			}
			outcomes[i] = rowOutcome{draft: draft, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("ingest batch: %w", err)
	}

	createdAt := p.now()
	var res Result
	for i, out := range outcomes {
		switch {
		case out.err != nil:
			res.Rejected = append(res.Rejected, Rejection{Input: inputs[i], Err: out.err})
		case out.draft == nil:
			res.Skipped++
		default:
			res.Accepted = append(res.Accepted, core.Transaction{
				ID:         p.newID(),
				OwnerID:    ownerID,
				Category:   out.draft.Category,
				Amount:     out.draft.Amount,
				OccurredOn: out.draft.OccurredOn,
				CreatedAt:  createdAt,
			})
		}
	}
	return res, nil
}
