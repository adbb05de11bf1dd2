package events

import (
    "context"
    "log"
)

// Logger drains listing.submitted events from an in-memory publisher and
// writes them to the process log. It is the default consumer when no broker
// is configured.
type Logger struct {
    Pub Publisher
}

func (l *Logger) Run(ctx context.Context) {
    sub := l.Pub.SubscribeListingSubmitted()
    if sub == nil {
        return
    }
    for {
        select {
        case <-ctx.Done():
            return
        case evt := <-sub:
            log.Printf("[INFO] listing.submitted item=%s/%s ref=%s emirate=%s success=%t",
                evt.EntityTypeID, evt.ItemID, evt.Reference, evt.Emirate, evt.Success)
        }
    }
}
