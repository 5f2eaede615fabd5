package model

import "time"

// Experience categories.
const (
    ExperienceCultural    = "cultural"
    ExperienceSpiritual   = "spiritual"
    ExperienceAdventure   = "adventure"
    ExperienceCulinary    = "culinary"
    ExperienceShopping    = "shopping"
    ExperiencePhotography = "photography"
)

// ExperienceCategories lists the accepted category values in display order.
var ExperienceCategories = []string{
    ExperienceCultural, ExperienceSpiritual, ExperienceAdventure,
    ExperienceCulinary, ExperienceShopping, ExperiencePhotography,
}

// IsExperienceCategory reports whether c is a known experience category.
func IsExperienceCategory(c string) bool {
    for _, k := range ExperienceCategories {
        if k == c {
            return true
        }
    }
    return false
}

// Experience is a short guided activity (an aarti boat ride, a food walk)
// sold alongside the multi-day packages.  The catalogue is read only
// through the API.
type Experience struct {
    ID               uint64             `json:"id"`
    Name             string             `json:"name"`
    Description      string             `json:"description"`
    ShortDescription string             `json:"shortDescription"`
    Price            float64            `json:"price"`
    Duration         ExperienceDuration `json:"duration"`
    Category         string             `json:"category"`
    Location         string             `json:"location"`
    MeetingPoint     string             `json:"meetingPoint,omitempty"`
    Includes         []string           `json:"includes"`
    Requirements     []string           `json:"requirements"`
    Images           []Image            `json:"images"`
    MaxParticipants  int                `json:"maxParticipants"`
    AvailableSlots   []ExperienceSlot   `json:"availableSlots"`
    GuideID          *uint64            `json:"guide,omitempty"`
    Rating           Rating             `json:"rating"`
    IsActive         bool               `json:"isActive"`
    Highlights       []string           `json:"highlights"`
    CreatedAt        time.Time          `json:"createdAt"`
    UpdatedAt        time.Time          `json:"updatedAt"`
}

// ExperienceDuration is a length in hours or days.
type ExperienceDuration struct {
    Value int    `json:"value"`
    Unit  string `json:"unit"` // "hours" or "days"
}

// ExperienceSlot is one scheduled run of an experience.
type ExperienceSlot struct {
    Date           time.Time `json:"date"`
    StartTime      string    `json:"startTime,omitempty"`
    EndTime        string    `json:"endTime,omitempty"`
    AvailableSpots int       `json:"availableSpots"`
}
