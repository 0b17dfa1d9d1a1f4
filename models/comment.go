package models

import "time"

// Comment represents a reply to a grievance. IsPartnerComment is computed once, at insert
// time, from the commenter's link to the grievance author.
type Comment struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	GrievanceID      uint      `gorm:"index;not null" json:"grievanceId"`
	UserID           uint      `gorm:"index;not null" json:"userId"`
	Text             string    `gorm:"type:text;not null" json:"text"`
	IsPartnerComment bool      `gorm:"default:false" json:"isPartnerComment"`
	CreatedAt        time.Time `gorm:"index" json:"date"`
	User             User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
