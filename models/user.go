package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Relationship statuses a user can carry.
const (
	RelationshipSingle      = "Single"
	RelationshipInRelation  = "In a Relationship"
	RelationshipMarried     = "Married"
	RelationshipComplicated = "It's Complicated"
)

// Privacy levels for communication preferences and general preferences.
const (
	CommunicationPublic      = "Public"
	CommunicationPartnerOnly = "Partner Only"
	CommunicationPrivate     = "Private"
	PreferencePrivacyPublic  = "Public"
	PreferencePrivacyFriends = "Friends Only"
	PreferencePrivacyPrivate = "Private"
)

var relationshipStatuses = []string{RelationshipSingle, RelationshipInRelation, RelationshipMarried, RelationshipComplicated}

// CommunicationPreferences controls how a user's partner may interact with their grievances.
type CommunicationPreferences struct {
	Notifications         bool   `gorm:"default:true" json:"notifications"`
	EmailNotifications    bool   `gorm:"default:true" json:"emailNotifications"`
	Privacy               string `gorm:"size:16;default:'Partner Only'" json:"privacy"`
	AllowPartnerResponses bool   `gorm:"default:true" json:"allowPartnerResponses"`
}

// Preferences are the general account preferences.
type Preferences struct {
	Notifications bool   `gorm:"default:true" json:"notifications"`
	Privacy       string `gorm:"size:16;default:'Public'" json:"privacy"`
}

// User is an account. PartnerID is symmetric: if A.PartnerID == B.ID then B.PartnerID == A.ID.
type User struct {
	ID                       uint                     `gorm:"primaryKey" json:"id"`
	Username                 string                   `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email                    string                   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash             string                   `gorm:"size:255;not null" json:"-"`
	Avatar                   string                   `gorm:"size:512" json:"avatar"`
	Bio                      string                   `gorm:"size:200" json:"bio"`
	RelationshipStatus       string                   `gorm:"size:32;default:'Single'" json:"relationshipStatus"`
	PartnerID                *uint                    `gorm:"index" json:"partner"`
	PartnerEmail             *string                  `gorm:"size:255" json:"partnerEmail"`
	RelationshipStartDate    *time.Time               `json:"relationshipStartDate"`
	CommunicationPreferences CommunicationPreferences `gorm:"embedded;embeddedPrefix:comm_" json:"communicationPreferences"`
	Preferences              Preferences              `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
	JoinDate                 time.Time                `json:"joinDate"`
	GrievancesSubmitted      int                      `gorm:"default:0" json:"grievancesSubmitted"`
	GrievancesResolved       int                      `gorm:"default:0" json:"grievancesResolved"`
	Karma                    int                      `gorm:"default:0" json:"karma"`
	IsVerified               bool                     `gorm:"default:false" json:"isVerified"`
	CreatedAt                time.Time                `json:"createdAt"`
	UpdatedAt                time.Time                `json:"updatedAt"`
}

// BeforeCreate normalizes the email and fills defaults a zero-value struct would miss.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	now := time.Now()
	if u.JoinDate.IsZero() {
		u.JoinDate = now
	}
	if u.RelationshipStatus == "" {
		u.RelationshipStatus = RelationshipSingle
	}
	if u.CommunicationPreferences.Privacy == "" {
		u.CommunicationPreferences = DefaultCommunicationPreferences()
	}
	if u.Preferences.Privacy == "" {
		u.Preferences = DefaultPreferences()
	}
	return nil
}

// HasPartner reports whether the user is currently linked.
func (u *User) HasPartner() bool {
	return u != nil && u.PartnerID != nil
}

// IsPartnerOf reports whether u is linked to the user with the given id.
func (u *User) IsPartnerOf(userID uint) bool {
	return u.HasPartner() && *u.PartnerID == userID
}

// DefaultCommunicationPreferences mirrors the column defaults.
func DefaultCommunicationPreferences() CommunicationPreferences {
	return CommunicationPreferences{
		Notifications:         true,
		EmailNotifications:    true,
		Privacy:               CommunicationPartnerOnly,
		AllowPartnerResponses: true,
	}
}

// DefaultPreferences mirrors the column defaults.
func DefaultPreferences() Preferences {
	return Preferences{Notifications: true, Privacy: PreferencePrivacyPublic}
}

// NormalizeEmail trims and lowercases an address; emails are stored and compared this way.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidRelationshipStatus(s string) bool {
	return contains(relationshipStatuses, s)
}

func ValidCommunicationPrivacy(s string) bool {
	return contains([]string{CommunicationPublic, CommunicationPartnerOnly, CommunicationPrivate}, s)
}

func ValidPreferencePrivacy(s string) bool {
	return contains([]string{PreferencePrivacyPublic, PreferencePrivacyFriends, PreferencePrivacyPrivate}, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
