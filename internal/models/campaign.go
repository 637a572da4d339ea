package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CampaignStatus is the lifecycle state of a campaign. Transitions between
// statuses go through the engine's lifecycle rules, never direct writes.
type CampaignStatus string

const (
	StatusDraft         CampaignStatus = "draft"
	StatusPendingReview CampaignStatus = "pending_review"
	StatusApproved      CampaignStatus = "approved"
	StatusScheduled     CampaignStatus = "scheduled"
	StatusActive        CampaignStatus = "active"
	StatusPaused        CampaignStatus = "paused"
	StatusCompleted     CampaignStatus = "completed"
	StatusRejected      CampaignStatus = "rejected"
	StatusExpired       CampaignStatus = "expired"
)

// CampaignType identifies the creative format.
type CampaignType string

const (
	TypeBanner CampaignType = "banner"
	TypePopup  CampaignType = "popup"
	TypeEmail  CampaignType = "email"
	TypeInline CampaignType = "inline"
)

// RecurrenceFrequency is the period unit of a recurring schedule.
type RecurrenceFrequency string

const (
	FrequencyDaily   RecurrenceFrequency = "daily"
	FrequencyWeekly  RecurrenceFrequency = "weekly"
	FrequencyMonthly RecurrenceFrequency = "monthly"
)

// Recurrence describes when a recurring campaign's active windows repeat.
type Recurrence struct {
	Frequency      RecurrenceFrequency `bson:"frequency" json:"frequency"`
	Interval       int                 `bson:"interval" json:"interval"`
	DaysOfWeek     []int               `bson:"daysOfWeek,omitempty" json:"daysOfWeek,omitempty"` // 0=Sunday .. 6=Saturday
	DayOfMonth     int                 `bson:"dayOfMonth,omitempty" json:"dayOfMonth,omitempty"`
	MaxOccurrences int                 `bson:"maxOccurrences,omitempty" json:"maxOccurrences,omitempty"` // 0 = unbounded
}

// Schedule is the campaign's run window, optionally recurring inside it.
type Schedule struct {
	StartDate   time.Time   `bson:"startDate" json:"startDate"`
	EndDate     *time.Time  `bson:"endDate,omitempty" json:"endDate,omitempty"` // nil = unbounded
	IsRecurring bool        `bson:"isRecurring" json:"isRecurring"`
	Recurrence  *Recurrence `bson:"recurrence,omitempty" json:"recurrence,omitempty"`
}

// RuleOperator is the closed set of behavioral rule comparators.
type RuleOperator string

const (
	OperatorEquals      RuleOperator = "equals"
	OperatorNotEquals   RuleOperator = "notEquals"
	OperatorGreaterThan RuleOperator = "greaterThan"
	OperatorLessThan    RuleOperator = "lessThan"
	OperatorContains    RuleOperator = "contains"
)

// BehavioralRule compares a named visitor fact against a value.
type BehavioralRule struct {
	Rule     string       `bson:"rule" json:"rule"`
	Operator RuleOperator `bson:"operator" json:"operator"`
	Value    string       `bson:"value" json:"value"`
}

// TargetLocation is a geographic constraint. When Radius is set the visitor
// must be within Radius kilometers of the location's centroid.
type TargetLocation struct {
	Country   string  `bson:"country,omitempty" json:"country,omitempty"`
	State     string  `bson:"state,omitempty" json:"state,omitempty"`
	City      string  `bson:"city,omitempty" json:"city,omitempty"`
	ZipCode   string  `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
	Radius    float64 `bson:"radius,omitempty" json:"radius,omitempty"` // kilometers
	Latitude  float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

// Targeting restricts which visitors a campaign may be shown to. Empty
// attribute lists impose no constraint.
type Targeting struct {
	UserRoles                []string         `bson:"userRoles,omitempty" json:"userRoles,omitempty"`
	UserTypes                []string         `bson:"userTypes,omitempty" json:"userTypes,omitempty"`
	Countries                []string         `bson:"countries,omitempty" json:"countries,omitempty"`
	Cities                   []string         `bson:"cities,omitempty" json:"cities,omitempty"`
	Devices                  []string         `bson:"devices,omitempty" json:"devices,omitempty"`
	Browsers                 []string         `bson:"browsers,omitempty" json:"browsers,omitempty"`
	AgeRanges                []AgeRange       `bson:"ageRanges,omitempty" json:"ageRanges,omitempty"`
	Gender                   string           `bson:"gender,omitempty" json:"gender,omitempty"`
	IncomeRange              string           `bson:"incomeRange,omitempty" json:"incomeRange,omitempty"`
	Locations                []TargetLocation `bson:"locations,omitempty" json:"locations,omitempty"`
	Interests                []string         `bson:"interests,omitempty" json:"interests,omitempty"`
	BehavioralRules          []BehavioralRule `bson:"behavioralRules,omitempty" json:"behavioralRules,omitempty"`
	ExcludeExistingCustomers bool             `bson:"excludeExistingCustomers" json:"excludeExistingCustomers"`
	ExcludeSubscribers       bool             `bson:"excludeSubscribers" json:"excludeSubscribers"`
	Retargeting              bool             `bson:"retargeting" json:"retargeting"`
	MaxFrequency             int              `bson:"maxFrequency,omitempty" json:"maxFrequency,omitempty"` // impressions per visitor per day, 0 = unlimited
}

// AgeRange is an inclusive visitor age band.
type AgeRange struct {
	Min int `bson:"min" json:"min"`
	Max int `bson:"max" json:"max"`
}

// ContentImage references a creative image for one breakpoint.
type ContentImage struct {
	Breakpoint string `bson:"breakpoint" json:"breakpoint"` // mobile, tablet, desktop
	URL        string `bson:"url" json:"url"`
}

// Content is the creative payload. The engine treats it as opaque.
type Content struct {
	Title    string         `bson:"title" json:"title"`
	Subtitle string         `bson:"subtitle,omitempty" json:"subtitle,omitempty"`
	Body     string         `bson:"body,omitempty" json:"body,omitempty"`
	CTAText  string         `bson:"ctaText,omitempty" json:"ctaText,omitempty"`
	CTAURL   string         `bson:"ctaUrl,omitempty" json:"ctaUrl,omitempty"`
	Images   []ContentImage `bson:"images,omitempty" json:"images,omitempty"`
}

// Analytics holds the campaign's performance counters. The raw counters are
// only ever changed through the store's atomic increment. CTR and
// ConversionRate are derived, never persisted: every read path recomputes
// them from the counters, so they cannot drift.
type Analytics struct {
	Impressions    int64   `bson:"impressions" json:"impressions"`
	Clicks         int64   `bson:"clicks" json:"clicks"`
	Conversions    int64   `bson:"conversions" json:"conversions"`
	Revenue        float64 `bson:"revenue" json:"revenue"`
	CTR            float64 `bson:"-" json:"ctr"`
	ConversionRate float64 `bson:"-" json:"conversionRate"`
}

// Recompute refreshes the derived rates from the counters.
func (a *Analytics) Recompute() {
	if a.Impressions > 0 {
		a.CTR = float64(a.Clicks) / float64(a.Impressions)
	} else {
		a.CTR = 0
	}
	if a.Clicks > 0 {
		a.ConversionRate = float64(a.Conversions) / float64(a.Clicks)
	} else {
		a.ConversionRate = 0
	}
}

// Campaign is the aggregate root for a promotional campaign.
type Campaign struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Type      CampaignType       `bson:"type" json:"type"`
	Placement string             `bson:"placement" json:"placement"`
	Priority  int                `bson:"priority" json:"priority"`
	Status    CampaignStatus     `bson:"status" json:"status"`
	Content   Content            `bson:"content" json:"content"`
	Schedule  Schedule           `bson:"schedule" json:"schedule"`
	Targeting Targeting          `bson:"targeting" json:"targeting"`
	Analytics Analytics          `bson:"analytics" json:"analytics"`
	Tags      []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	CreatedBy string             `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewCampaign creates a draft campaign with default values.
func NewCampaign() *Campaign {
	return &Campaign{
		Status:    StatusDraft,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CampaignFilter narrows campaign list queries.
type CampaignFilter struct {
	Status    CampaignStatus
	Placement string
	Type      CampaignType
	Tag       string
	CreatedBy string
}

// BulkOperation is a lifecycle operation applicable to a batch of campaigns.
type BulkOperation string

const (
	BulkActivate   BulkOperation = "activate"
	BulkDeactivate BulkOperation = "deactivate"
	BulkApprove    BulkOperation = "approve"
	BulkDelete     BulkOperation = "delete"
)

// BulkError describes why one ID in a bulk operation failed.
type BulkError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BulkResult reports the per-ID outcome of a bulk operation. Every input ID
// appears in exactly one of SucceededIDs or FailedIDs.
type BulkResult struct {
	SucceededIDs []string             `json:"succeededIds"`
	FailedIDs    []string             `json:"failedIds"`
	ErrorsByID   map[string]BulkError `json:"errorsById"`
}
