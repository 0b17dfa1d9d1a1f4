package controllers

import (
	"time"

	"github.com/cppla/grievances/models"
)

type userSummary struct {
	LegacyID uint   `json:"_id"`
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio,omitempty"`
}

type commentView struct {
	ID               uint         `json:"id"`
	User             *userSummary `json:"user"`
	Text             string       `json:"text"`
	Date             time.Time    `json:"date"`
	IsPartnerComment bool         `json:"isPartnerComment"`
}

type responseView struct {
	Text   string    `json:"text"`
	Date   time.Time `json:"date"`
	IsRead bool      `json:"isRead"`
}

type grievanceView struct {
	LegacyID             uint          `json:"_id"`
	ID                   uint          `json:"id"`
	User                 *userSummary  `json:"user"`
	Title                string        `json:"title"`
	Description          string        `json:"description"`
	Category             string        `json:"category"`
	Severity             string        `json:"severity"`
	Status               string        `json:"status"`
	BoyfriendName        string        `json:"boyfriendName"`
	RelationshipDuration string        `json:"relationshipDuration"`
	Partner              *userSummary  `json:"partner"`
	IsPartnerGrievance   bool          `json:"isPartnerGrievance"`
	PartnerResponse      *responseView `json:"partnerResponse"`
	CommunicationStatus  string        `json:"communicationStatus"`
	Evidence             []string      `json:"evidence"`
	Tags                 []string      `json:"tags"`
	IsAnonymous          bool          `json:"isAnonymous"`
	Likes                []uint        `json:"likes"`
	Comments             []commentView `json:"comments"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

type partnerView struct {
	ID                 uint   `json:"id"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	Avatar             string `json:"avatar"`
	Bio                string `json:"bio"`
	RelationshipStatus string `json:"relationshipStatus"`
}

func summarize(u *models.User, withBio bool) *userSummary {
	if u == nil || u.ID == 0 {
		return nil
	}
	s := &userSummary{LegacyID: u.ID, ID: u.ID, Username: u.Username, Avatar: u.Avatar}
	if withBio {
		s.Bio = u.Bio
	}
	return s
}

func presentGrievance(g *models.Grievance, detail bool) grievanceView {
	v := grievanceView{
		LegacyID:             g.ID,
		ID:                   g.ID,
		User:                 summarize(&g.User, detail),
		Title:                g.Title,
		Description:          g.Description,
		Category:             g.Category,
		Severity:             g.Severity,
		Status:               g.Status,
		BoyfriendName:        g.BoyfriendName,
		RelationshipDuration: g.RelationshipDuration,
		Partner:              summarize(g.Partner, detail),
		IsPartnerGrievance:   g.IsPartnerGrievance,
		CommunicationStatus:  g.CommunicationStatus,
		Evidence:             orEmpty(g.Evidence),
		Tags:                 orEmpty(g.Tags),
		IsAnonymous:          g.IsAnonymous,
		Likes:                make([]uint, 0, len(g.Likes)),
		Comments:             make([]commentView, 0, len(g.Comments)),
		CreatedAt:            g.CreatedAt,
		UpdatedAt:            g.UpdatedAt,
	}
	if r := g.PartnerResponse; r.Exists() {
		v.PartnerResponse = &responseView{Text: r.Text, Date: *r.Date, IsRead: r.IsRead}
	}
	for _, l := range g.Likes {
		v.Likes = append(v.Likes, l.UserID)
	}
	for i := range g.Comments {
		c := &g.Comments[i]
		v.Comments = append(v.Comments, commentView{
			ID:               c.ID,
			User:             summarize(&c.User, false),
			Text:             c.Text,
			Date:             c.CreatedAt,
			IsPartnerComment: c.IsPartnerComment,
		})
	}
	return v
}

func presentGrievances(list []models.Grievance) []grievanceView {
	views := make([]grievanceView, 0, len(list))
	for i := range list {
		views = append(views, presentGrievance(&list[i], false))
	}
	return views
}

func presentPartner(u *models.User) partnerView {
	return partnerView{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		Avatar:             u.Avatar,
		Bio:                u.Bio,
		RelationshipStatus: u.RelationshipStatus,
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
