package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yourorg/listing-bridge/bitrix"
	"github.com/yourorg/listing-bridge/internal/env"
	"github.com/yourorg/listing-bridge/propertyfinder"
)

// relist runs the fetch -> transform -> map pipeline for a single CRM item
// from the command line. By default it prints the mapped payload; --submit
// actually creates the listing.
func main() {
	entityTypeID := flag.String("entity", "", "CRM entity type id")
	itemID := flag.String("item", "", "CRM item id")
	submit := flag.Bool("submit", false, "submit the mapped payload to PropertyFinder")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	if *entityTypeID == "" || *itemID == "" {
		flag.Usage()
		os.Exit(2)
	}

	crm := bitrix.NewClient(env.Must("BITRIX_BASE_URL"))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fields, err := crm.GetFields(ctx, *entityTypeID)
	if err != nil {
		log.Fatalf("field metadata fetch error: %v", err)
	}
	item, err := crm.GetItem(ctx, *entityTypeID, *itemID)
	if err != nil {
		log.Fatalf("item fetch error: %v", err)
	}

	clean := bitrix.Transform(item, fields)
	payload := propertyfinder.MapListingPayload(clean)

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Fatalf("payload marshal error: %v", err)
	}
	fmt.Println(string(out))

	if !*submit {
		return
	}

	pf := propertyfinder.NewClient(
		env.Get("PF_API_BASE", "https://atlas.propertyfinder.com/v1"),
		env.Must("PF_API_KEY"),
		env.Must("PF_API_SECRET"),
		nil,
	)
	result := pf.CreateListing(ctx, payload)
	if !result.Success {
		log.Fatalf("submission failed (status %d): %s", result.Status, string(result.Error))
	}
	log.Printf("listing created (status %d): %s", result.Status, string(result.Data))
}
