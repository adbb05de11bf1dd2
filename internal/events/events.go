package events

import (
    "context"
)

// ListingSubmitted is emitted after every submission attempt, successful or
// not.
type ListingSubmitted struct {
    EntityTypeID string `json:"entity_type_id"`
    ItemID       string `json:"item_id"`
    Reference    string `json:"reference"`
    Emirate      string `json:"emirate"`
    Success      bool   `json:"success"`
}

type Publisher interface {
    PublishListingSubmitted(ctx context.Context, evt ListingSubmitted)
    SubscribeListingSubmitted() <-chan ListingSubmitted
}

type inMemory struct{ ch chan ListingSubmitted }

func NewInMemory(buffer int) Publisher {
    if buffer <= 0 { buffer = 256 }
    return &inMemory{ch: make(chan ListingSubmitted, buffer)}
}

func (m *inMemory) PublishListingSubmitted(_ context.Context, evt ListingSubmitted) {
    select { case m.ch <- evt: default: }
}

func (m *inMemory) SubscribeListingSubmitted() <-chan ListingSubmitted { return m.ch }
