package models

// GeoPoint is a visitor's resolved coordinates, when known.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// VisitorContext describes the visitor and request context a selection or
// targeting decision is made against. The HTTP layer builds this from
// request metadata and passes it into the engine.
type VisitorContext struct {
	VisitorID          string            `json:"visitorId"`
	Role               string            `json:"role,omitempty"`
	UserType           string            `json:"userType,omitempty"`
	Country            string            `json:"country,omitempty"`
	State              string            `json:"state,omitempty"`
	City               string            `json:"city,omitempty"`
	ZipCode            string            `json:"zipCode,omitempty"`
	Device             string            `json:"device,omitempty"`
	Browser            string            `json:"browser,omitempty"`
	Age                int               `json:"age,omitempty"` // 0 = unknown
	Gender             string            `json:"gender,omitempty"`
	IncomeRange        string            `json:"incomeRange,omitempty"`
	Interests          []string          `json:"interests,omitempty"`
	Coordinates        *GeoPoint         `json:"coordinates,omitempty"`
	Facts              map[string]string `json:"facts,omitempty"` // named behavioral facts
	IsExistingCustomer bool              `json:"isExistingCustomer"`
	IsSubscriber       bool              `json:"isSubscriber"`
}
