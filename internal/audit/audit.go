package audit

import (
	"context"
	"log"

	"github.com/yourorg/listing-bridge/internal/events"
	"github.com/yourorg/listing-bridge/internal/store"
)

// Recorder is the optional write-behind for webhook outcomes: it persists
// each submission attempt and publishes a listing.submitted event. A nil
// Recorder, or one without a store, is a no-op so the webhook path never
// depends on it.
type Recorder struct {
	Store *store.Store
	Pub   events.Publisher
}

func (r *Recorder) Enabled() bool { return r != nil && (r.Store != nil || r.Pub != nil) }

type Entry struct {
	EntityTypeID string
	ItemID       string
	Reference    string
	Emirate      string
	PayloadJSON  []byte
	Success      bool
	ResponseJSON []byte
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	if !r.Enabled() {
		return
	}
	if r.Store != nil {
		err := r.Store.RecordSubmission(ctx, store.SubmissionInput{
			EntityTypeID: e.EntityTypeID,
			ItemID:       e.ItemID,
			Reference:    e.Reference,
			Emirate:      e.Emirate,
			PayloadJSON:  e.PayloadJSON,
			Success:      e.Success,
			ResponseJSON: e.ResponseJSON,
		})
		if err != nil {
			log.Printf("[WARN] submission audit write failed for item %s: %v", e.ItemID, err)
		}
	}
	if r.Pub != nil {
		r.Pub.PublishListingSubmitted(ctx, events.ListingSubmitted{
			EntityTypeID: e.EntityTypeID,
			ItemID:       e.ItemID,
			Reference:    e.Reference,
			Emirate:      e.Emirate,
			Success:      e.Success,
		})
	}
}
