package propertyfinder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourorg/listing-bridge/internal/canon"
)

// MapListingPayload projects a readable CRM record (label -> resolved value,
// the output shape of the transform step) into a PropertyFinder listing
// payload. It is pure and total: missing source fields fall back to defaults
// for required payload fields, and optional payload fields are added only
// when the source actually carries a value.
func MapListingPayload(rec map[string]any) ListingPayload {
	priceType := resolvePriceType(rec["price.type"])
	priceAmount := toInt(rec["price.amounts"])

	payload := ListingPayload{
		Category:       strDefault(rec, "category", "residential"),
		Type:           strDefault(rec, "type", "apartment"),
		FurnishingType: strDefault(rec, "furnishingType", "unfurnished"),
		Bedrooms:       strDefault(rec, "bedrooms", "1"),
		Reference:      firstNonEmpty(stringOf(rec["External ID"]), "BITRIX_"+stringOf(rec["ID"])),
		UAEEmirate:     canon.EmirateSlug(stringOf(rec["Emirate"])),
		Size:           intDefault(rec["Size"], 1000),
		Title:          Localized{En: strDefault(rec, "Name", "Property Listing")},
		Description:    Localized{En: firstNonEmpty(stringOf(rec["description"]), stringOf(rec["Name"]), "Property listing from Bitrix")},
		Price:          Price{Type: priceType, Amounts: map[string]int{priceType: priceAmount}},
		Location:       Location{ID: canon.RegionID(stringOf(rec["Location"]))},
	}

	if priceType == "sale" && truthy(rec["downPayment"]) {
		dp := toInt(rec["downPayment"])
		payload.Price.Downpayment = &dp
	}

	payload.Media = mapMedia(rec["Files"])

	// Bathrooms are mandatory for every type except land and farm, where the
	// field is passed through only if the CRM has one.
	if payload.Type != "land" && payload.Type != "farm" {
		payload.Bathrooms = strDefault(rec, "bathrooms", "1")
	} else if truthy(rec["bathrooms"]) {
		payload.Bathrooms = stringOf(rec["bathrooms"])
	}

	if canon.ComplianceRequired(payload.UAEEmirate) {
		c := &Compliance{
			ListingAdvertisementNumber: firstNonEmpty(
				truthyString(rec["listingAdvertisementNumber"]),
				truthyString(rec["complianceNumber"]),
				"PENDING",
			),
			Type: strDefault(rec, "complianceType", "rera"),
		}
		if truthy(rec["advertisementLicenseIssuanceDate"]) {
			c.AdvertisementLicenseIssuanceDate = stringOf(rec["advertisementLicenseIssuanceDate"])
		}
		if truthy(rec["issuingClientLicenseNumber"]) {
			c.IssuingClientLicenseNumber = stringOf(rec["issuingClientLicenseNumber"])
		}
		payload.Compliance = c
	}

	if payload.Type == "co-working-space" {
		b := flagSet(rec["hasParkingSpace"])
		payload.HasParkingSpace = &b
	}

	if dateStr := firstNonEmpty(truthyString(rec["availableFrom"]), truthyString(rec["Started on"])); dateStr != "" {
		payload.AvailableFrom = strings.SplitN(dateStr, "T", 2)[0]
	}

	payload.Age = optInt(rec, "age")
	payload.FloorNumber = optInt(rec, "floorNumber")
	payload.ParkingSlots = optInt(rec, "parkingSlots")
	payload.NumberOfFloors = optInt(rec, "numberOfFloors")
	payload.PlotSize = optInt(rec, "plotSize")

	payload.FinishingType = truthyString(rec["finishingType"])
	payload.ProjectStatus = truthyString(rec["projectStatus"])
	payload.Developer = truthyString(rec["developer"])
	payload.UnitNumber = truthyString(rec["unitNumber"])
	payload.PlotNumber = truthyString(rec["plotNumber"])
	payload.LandNumber = truthyString(rec["landNumber"])
	payload.OwnerName = truthyString(rec["ownerName"])

	// Boolean flags distinguish "absent" from "false": the key merely being
	// defined in the source record is what triggers inclusion.
	payload.HasGarden = optFlag(rec, "hasGarden")
	payload.HasKitchen = optFlag(rec, "hasKitchen")
	payload.HasParkingOnSite = optFlag(rec, "hasParkingOnSite")

	if list, ok := rec["amenities"].([]any); ok {
		amenities := make([]string, 0, len(list))
		for _, v := range list {
			amenities = append(amenities, stringOf(v))
		}
		payload.Amenities = amenities
	}

	if truthy(rec["Responsible person"]) {
		payload.AssignedTo = &Assignee{ID: toInt(rec["Responsible person"])}
	}

	return payload
}

// resolvePriceType takes the first element of a multi-valued price type, or
// the scalar itself, defaulting to monthly.
func resolvePriceType(v any) string {
	if list, ok := v.([]any); ok {
		if len(list) > 0 {
			if s := stringOf(list[0]); s != "" {
				return s
			}
		}
		return "monthly"
	}
	if s := truthyString(v); s != "" {
		return s
	}
	return "monthly"
}

// mapMedia emits one image per file URL. A non-empty list yields one entry
// per element, a scalar yields a single entry, anything else yields no media
// block at all rather than an empty placeholder.
func mapMedia(v any) *Media {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		images := make([]Image, 0, len(list))
		for _, f := range list {
			images = append(images, Image{Original: ImageSource{URL: stringOf(f)}})
		}
		return &Media{Images: images}
	}
	if truthy(v) {
		return &Media{Images: []Image{{Original: ImageSource{URL: stringOf(v)}}}}
	}
	return nil
}

// truthy mirrors the loose presence checks of the upstream CRM payloads:
// zero numbers, empty strings, false and nil are "no value".
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

// flagSet reports a source marker meaning "yes": boolean true or the CRM
// literal "Y".
func flagSet(v any) bool {
	return v == true || v == "Y"
}

// stringOf renders a value the way the payload expects scalars: whole floats
// without a decimal point, nil as empty.
func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// truthyString returns the stringified value when it is truthy, else "".
func truthyString(v any) string {
	if !truthy(v) {
		return ""
	}
	return stringOf(v)
}

// strDefault returns the stringified field when truthy, else the default.
func strDefault(rec map[string]any, key, def string) string {
	if s := truthyString(rec[key]); s != "" {
		return s
	}
	return def
}

// toInt parses a best-effort integer: numbers truncate, strings parse their
// leading digits, anything else is 0.
func toInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		return leadingInt(t)
	default:
		return 0
	}
}

func intDefault(v any, def int) int {
	if n := toInt(v); n != 0 {
		return n
	}
	return def
}

func optInt(rec map[string]any, key string) *int {
	if !truthy(rec[key]) {
		return nil
	}
	n := toInt(rec[key])
	return &n
}

func optFlag(rec map[string]any, key string) *bool {
	if _, ok := rec[key]; !ok {
		return nil
	}
	b := flagSet(rec[key])
	return &b
}

// leadingInt parses the leading signed integer portion of a string, e.g.
// "1200 sqft" -> 1200. No digits means 0.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0
	}
	n, err := strconv.Atoi(s[:j])
	if err != nil {
		return 0
	}
	return n
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
