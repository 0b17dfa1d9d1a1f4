package models

import "time"

// Like is one user's membership in a grievance's likes set.
// The (GrievanceID, UserID) pair is unique, so a user likes a grievance at most once.
type Like struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GrievanceID uint      `gorm:"not null;uniqueIndex:idx_like_grievance_user" json:"grievanceId"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_like_grievance_user" json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName keeps likes distinct from any generic "likes" table.
func (Like) TableName() string {
	return "grievance_likes"
}

// All lists every model the schema is built from, in dependency order.
func All() []interface{} {
	return []interface{}{&User{}, &Grievance{}, &Comment{}, &Like{}}
}
