package models

import "time"

// Grievance categories.
const (
	CategoryCommunication = "Communication"
	CategoryAttention     = "Attention"
	CategoryJealousy      = "Jealousy"
	CategoryLaziness      = "Laziness"
	CategoryMessiness     = "Messiness"
	CategoryGaming        = "Gaming"
	CategorySocialMedia   = "Social Media"
	CategoryOther         = "Other"
)

// Grievance severities.
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// General grievance statuses.
const (
	StatusOpen       = "Open"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusClosed     = "Closed"
)

// Communication statuses track the reply lifecycle, independent of Status.
const (
	CommunicationPending   = "Pending Response"
	CommunicationResponded = "Responded"
	CommunicationResolved  = "Resolved"
	CommunicationEscalated = "Escalated"
)

var (
	categories            = []string{CategoryCommunication, CategoryAttention, CategoryJealousy, CategoryLaziness, CategoryMessiness, CategoryGaming, CategorySocialMedia, CategoryOther}
	severities            = []string{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	statuses              = []string{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}
	communicationStatuses = []string{CommunicationPending, CommunicationResponded, CommunicationResolved, CommunicationEscalated}
	relationshipDurations = []string{"Less than 6 months", "6 months - 1 year", "1-2 years", "2-5 years", "More than 5 years"}
)

// PartnerResponse is the single reply slot on a grievance. A response exists once Date is set.
type PartnerResponse struct {
	Text   string     `gorm:"size:1000" json:"text"`
	Date   *time.Time `json:"date"`
	IsRead bool       `gorm:"default:false" json:"isRead"`
}

// Exists reports whether a partner has ever responded.
func (r PartnerResponse) Exists() bool {
	return r.Date != nil
}

// Grievance is a complaint authored by UserID.
// PartnerUserID and IsPartnerGrievance are captured when the grievance is created and are
// intentionally never re-synced with later link/unlink operations.
type Grievance struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	UserID               uint            `gorm:"index;not null" json:"userId"`
	Title                string          `gorm:"size:100;not null" json:"title"`
	Description          string          `gorm:"size:1000;not null" json:"description"`
	Category             string          `gorm:"size:32;index;not null" json:"category"`
	Severity             string          `gorm:"size:16;index;not null" json:"severity"`
	Status               string          `gorm:"size:16;index;default:'Open'" json:"status"`
	BoyfriendName        string          `gorm:"size:100" json:"boyfriendName"`
	RelationshipDuration string          `gorm:"size:32" json:"relationshipDuration"`
	PartnerUserID        *uint           `gorm:"column:partner_id;index" json:"partnerId"`
	IsPartnerGrievance   bool            `gorm:"default:false" json:"isPartnerGrievance"`
	PartnerResponse      PartnerResponse `gorm:"embedded;embeddedPrefix:partner_response_" json:"partnerResponse"`
	CommunicationStatus  string          `gorm:"size:32;default:'Pending Response'" json:"communicationStatus"`
	Evidence             []string        `gorm:"serializer:json;type:text" json:"evidence"`
	Tags                 []string        `gorm:"serializer:json;type:text" json:"tags"`
	IsAnonymous          bool            `gorm:"default:false" json:"isAnonymous"`
	CreatedAt            time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`

	User     User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Partner  *User     `gorm:"foreignKey:PartnerUserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Likes    []Like    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// IsAuthor reports whether userID wrote the grievance.
func (g *Grievance) IsAuthor(userID uint) bool {
	return g.UserID == userID
}

// LikedBy reports whether userID is in the likes set. Likes must be loaded.
func (g *Grievance) LikedBy(userID uint) bool {
	for _, l := range g.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

func ValidCategory(s string) bool             { return contains(categories, s) }
func ValidSeverity(s string) bool             { return contains(severities, s) }
func ValidStatus(s string) bool               { return contains(statuses, s) }
func ValidCommunicationStatus(s string) bool  { return contains(communicationStatuses, s) }
func ValidRelationshipDuration(s string) bool { return contains(relationshipDurations, s) }
