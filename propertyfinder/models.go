package propertyfinder

import "encoding/json"

// ListingPayload is the body of POST /listings on the PropertyFinder Atlas
// API. Required fields are plain values and always populated by the mapper;
// optional fields are pointers or omitempty values so that an unset field is
// genuinely absent on the wire. The API treats null and absent differently,
// so no optional field may ever marshal as null.
type ListingPayload struct {
	Category       string    `json:"category"`
	Type           string    `json:"type"`
	FurnishingType string    `json:"furnishingType"`
	Bedrooms       string    `json:"bedrooms"`
	Reference      string    `json:"reference"`
	UAEEmirate     string    `json:"uaeEmirate"`
	Size           int       `json:"size"`
	Title          Localized `json:"title"`
	Description    Localized `json:"description"`
	Price          Price     `json:"price"`
	Location       Location  `json:"location"`

	Media      *Media      `json:"media,omitempty"`
	Bathrooms  string      `json:"bathrooms,omitempty"`
	Compliance *Compliance `json:"compliance,omitempty"`

	HasParkingSpace *bool  `json:"hasParkingSpace,omitempty"`
	AvailableFrom   string `json:"availableFrom,omitempty"`

	Age            *int `json:"age,omitempty"`
	FloorNumber    *int `json:"floorNumber,omitempty"`
	ParkingSlots   *int `json:"parkingSlots,omitempty"`
	NumberOfFloors *int `json:"numberOfFloors,omitempty"`
	PlotSize       *int `json:"plotSize,omitempty"`

	FinishingType string `json:"finishingType,omitempty"`
	ProjectStatus string `json:"projectStatus,omitempty"`
	Developer     string `json:"developer,omitempty"`
	UnitNumber    string `json:"unitNumber,omitempty"`
	PlotNumber    string `json:"plotNumber,omitempty"`
	LandNumber    string `json:"landNumber,omitempty"`
	OwnerName     string `json:"ownerName,omitempty"`

	HasGarden        *bool `json:"hasGarden,omitempty"`
	HasKitchen       *bool `json:"hasKitchen,omitempty"`
	HasParkingOnSite *bool `json:"hasParkingOnSite,omitempty"`

	Amenities  []string  `json:"amenities,omitempty"`
	AssignedTo *Assignee `json:"assignedTo,omitempty"`
}

type Localized struct {
	En string `json:"en"`
}

// Price carries exactly one amount, keyed by the price type.
type Price struct {
	Type        string         `json:"type"`
	Amounts     map[string]int `json:"amounts"`
	Downpayment *int           `json:"downpayment,omitempty"`
}

type Location struct {
	ID int `json:"id"`
}

type Media struct {
	Images []Image `json:"images"`
}

type Image struct {
	Original ImageSource `json:"original"`
}

type ImageSource struct {
	URL string `json:"url"`
}

// Compliance is the regulatory block mandated for Dubai and Abu Dhabi
// listings.
type Compliance struct {
	ListingAdvertisementNumber       string `json:"listingAdvertisementNumber"`
	Type                             string `json:"type"`
	AdvertisementLicenseIssuanceDate string `json:"advertisementLicenseIssuanceDate,omitempty"`
	IssuingClientLicenseNumber       string `json:"issuingClientLicenseNumber,omitempty"`
}

type Assignee struct {
	ID int `json:"id"`
}

// SubmitResult is the tagged outcome of a listing submission. Submission
// failures are data, not Go errors: the webhook response reports them next to
// the artifacts computed before the failure.
type SubmitResult struct {
	Success bool            `json:"success"`
	Status  int             `json:"status,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

func failure(status int, body []byte, msg string) SubmitResult {
	res := SubmitResult{Success: false, Status: status}
	if len(body) > 0 && json.Valid(body) {
		res.Error = body
	} else if msg != "" {
		res.Error, _ = json.Marshal(msg)
	} else {
		res.Error, _ = json.Marshal(string(body))
	}
	return res
}
