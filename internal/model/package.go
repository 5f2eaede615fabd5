package model

import (
    "math"
    "time"
)

// Category values a package can be listed under.
const (
    CategorySpiritual = "spiritual"
    CategoryCultural  = "cultural"
    CategoryBudget    = "budget"
    CategoryPremium   = "premium"
    CategoryFamily    = "family"
    CategoryAdventure = "adventure"
    CategoryLuxury    = "luxury"
)

// Difficulty levels.
const (
    DifficultyEasy      = "easy"
    DifficultyModerate  = "moderate"
    DifficultyDifficult = "difficult"
)

// DefaultMaxTravelers is used when a package does not set its own cap.
const DefaultMaxTravelers = 10

// Package is a sellable multi-day itinerary.  Bookings reference it by ID
// and carry their own pricing record, so later price edits do not reach
// existing bookings.
//
// Fields:
//  ID               – primary key.
//  Name             – display name, up to 100 characters.
//  ShortDescription – teaser text, up to 200 characters.
//  Price            – current selling price per booking.
//  OriginalPrice    – list price before discount; 0 when not discounted.
//  Duration         – days and nights of the trip.
//  Categories       – at least one category value.
//  Inclusions       – at least one line describing what is included.
//  MaxTravelers     – cap on travelers per booking.
//  IsActive         – inactive packages are left out of listings and cannot be booked.
//  CreatedBy        – admin user who created the package.
type Package struct {
    ID               uint64          `json:"id"`
    Name             string          `json:"name" validate:"required,max=100"`
    Description      string          `json:"description" validate:"required"`
    ShortDescription string          `json:"shortDescription" validate:"required,max=200"`
    Price            float64         `json:"price" validate:"min=0"`
    OriginalPrice    float64         `json:"originalPrice,omitempty" validate:"min=0"`
    Duration         PackageDuration `json:"duration"`
    Categories       []string        `json:"categories" validate:"min=1,dive,oneof=spiritual cultural budget premium family adventure luxury"`
    Inclusions       []string        `json:"inclusions" validate:"min=1,dive,required"`
    Exclusions       []string        `json:"exclusions"`
    Itinerary        []ItineraryDay  `json:"itinerary" validate:"dive"`
    Images           []Image         `json:"images" validate:"dive"`
    Highlights       []string        `json:"highlights"`
    Difficulty       string          `json:"difficulty" validate:"oneof=easy moderate difficult"`
    MaxTravelers     int             `json:"maxTravelers" validate:"min=1"`
    AvailableDates   []time.Time     `json:"availableDates"`
    IsActive         bool            `json:"isActive"`
    Rating           Rating          `json:"rating"`
    CreatedBy        uint64          `json:"createdBy,omitempty"`
    CreatedAt        time.Time       `json:"createdAt"`
    UpdatedAt        time.Time       `json:"updatedAt"`
}

type PackageDuration struct {
    Days   int `json:"days" validate:"min=1"`
    Nights int `json:"nights" validate:"min=0"`
}

// ItineraryDay describes a single day of the trip plan.
type ItineraryDay struct {
    Day         int      `json:"day" validate:"min=1"`
    Title       string   `json:"title" validate:"required"`
    Description string   `json:"description"`
    Activities  []string `json:"activities"`
    Meals       []string `json:"meals" validate:"dive,oneof=breakfast lunch dinner all none"`
}

type Image struct {
    URL     string `json:"url" validate:"required"`
    Alt     string `json:"alt,omitempty"`
    Caption string `json:"caption,omitempty"`
}

type Rating struct {
    Average float64 `json:"average" validate:"min=0,max=5"`
    Count   int     `json:"count" validate:"min=0"`
}

// ApplyDefaults fills the values a new package gets when the admin leaves
// them out.
func (p *Package) ApplyDefaults() {
    if p.Difficulty == "" {
        p.Difficulty = DifficultyEasy
    }
    if p.MaxTravelers == 0 {
        p.MaxTravelers = DefaultMaxTravelers
    }
    if p.Exclusions == nil {
        p.Exclusions = []string{}
    }
    if p.Itinerary == nil {
        p.Itinerary = []ItineraryDay{}
    }
    if p.Images == nil {
        p.Images = []Image{}
    }
    if p.Highlights == nil {
        p.Highlights = []string{}
    }
    if p.AvailableDates == nil {
        p.AvailableDates = []time.Time{}
    }
}

// DiscountPercentage returns the rounded discount off OriginalPrice, or 0
// when the package is not discounted.
func (p Package) DiscountPercentage() int {
    if p.OriginalPrice <= 0 || p.OriginalPrice <= p.Price {
        return 0
    }
    return int(math.Round((p.OriginalPrice - p.Price) / p.OriginalPrice * 100))
}

// Validate returns the package's field violations, or nil.
func (p *Package) Validate() error {
    errs := checkStruct(p)
    checkAmount(&errs, "price", &p.Price)
    checkAmount(&errs, "originalPrice", &p.OriginalPrice)
    return errs.OrNil()
}
