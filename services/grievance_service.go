package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/cppla/grievances/models"
	"github.com/cppla/grievances/utils"
)

const (
	maxTitleLength         = 100
	maxDescriptionLength   = 1000
	maxResponseLength      = 1000
	maxBoyfriendNameLength = 100
)

// likeEscaper makes user input literal inside a LIKE pattern using '!' as the escape character.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ListFilter narrows a grievance listing. Empty fields are ignored.
type ListFilter struct {
	Category  string
	Severity  string
	Status    string
	Search    string
	AuthorIDs []uint
}

// CreateInput carries the fields a new grievance is created from.
type CreateInput struct {
	Title                string
	Description          string
	Category             string
	Severity             string
	BoyfriendName        string
	RelationshipDuration string
	Evidence             []string
	Tags                 []string
	IsAnonymous          bool
}

// UpdateInput applies only non-empty strings and non-nil slices.
type UpdateInput struct {
	Title                string
	Description          string
	Category             string
	Severity             string
	Status               string
	CommunicationStatus  string
	BoyfriendName        string
	RelationshipDuration string
	Evidence             []string
	Tags                 []string
	PartnerResponse      string
}

// GrievanceService implements grievance visibility and mutation rules.
type GrievanceService struct {
	db *gorm.DB
}

func NewGrievanceService(db *gorm.DB) *GrievanceService {
	return &GrievanceService{db: db}
}

// withDetail preloads every association a grievance is rendered with.
func withDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Partner").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Preload("Comments.User").
		Preload("Likes")
}

// List returns grievances matching f, newest first.
func (s *GrievanceService) List(ctx context.Context, f ListFilter) ([]models.Grievance, error) {
	query := withDetail(s.db.WithContext(ctx)).Model(&models.Grievance{})

	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Severity != "" {
		query = query.Where("severity = ?", f.Severity)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER(tags) LIKE ? ESCAPE '!'", like, like, like)
	}
	if len(f.AuthorIDs) > 0 {
		query = query.Where("user_id IN ?", utils.UniqueUint(f.AuthorIDs))
	}

	var grievances []models.Grievance
	if err := query.Order("created_at DESC, id DESC").Find(&grievances).Error; err != nil {
		return nil, err
	}
	return grievances, nil
}

// AuthorScope returns the requester's id plus their partner's, when linked.
func (s *GrievanceService) AuthorScope(ctx context.Context, requesterID uint) ([]uint, error) {
	var requester models.User
	if err := s.db.WithContext(ctx).First(&requester, requesterID).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	ids := []uint{requester.ID}
	if requester.HasPartner() {
		ids = append(ids, *requester.PartnerID)
	}
	return ids, nil
}

// PartnerFeed lists grievances written by the requester or their partner.
func (s *GrievanceService) PartnerFeed(ctx context.Context, requesterID uint) ([]models.Grievance, error) {
	ids, err := s.AuthorScope(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if len(ids) < 2 {
		return nil, ErrNoPartner
	}
	return s.List(ctx, ListFilter{AuthorIDs: ids})
}

// Get returns one grievance with its associations.
func (s *GrievanceService) Get(ctx context.Context, id uint) (*models.Grievance, error) {
	var g models.Grievance
	if err := withDetail(s.db.WithContext(ctx)).First(&g, id).Error; err != nil {
		return nil, notFound(err, ErrGrievanceNotFound)
	}
	return &g, nil
}

// Create files a grievance for authorID. The author's current partner is captured once and never
// re-synced by later link or unlink calls.
func (s *GrievanceService) Create(ctx context.Context, authorID uint, in CreateInput) (*models.Grievance, error) {
	in.Title = utils.SanitizeText(in.Title)
	in.Description = utils.SanitizeText(in.Description)
	in.BoyfriendName = utils.SanitizeText(in.BoyfriendName)
	in.RelationshipDuration = strings.TrimSpace(in.RelationshipDuration)

	var c fieldChecker
	c.check(in.Title != "", "title", "Title is required")
	c.check(utf8.RuneCountInString(in.Title) <= maxTitleLength, "title", "Title cannot exceed 100 characters")
	c.check(in.Description != "", "description", "Description is required")
	c.check(utf8.RuneCountInString(in.Description) <= maxDescriptionLength, "description", "Description cannot exceed 1000 characters")
	c.check(models.ValidCategory(in.Category), "category", "Category is required")
	c.check(models.ValidSeverity(in.Severity), "severity", "Severity is required")
	c.check(in.BoyfriendName != "", "boyfriendName", "Boyfriend name is required")
	c.check(utf8.RuneCountInString(in.BoyfriendName) <= maxBoyfriendNameLength, "boyfriendName", "Boyfriend name cannot exceed 100 characters")
	c.check(models.ValidRelationshipDuration(in.RelationshipDuration), "relationshipDuration", "Relationship duration is required")
	if err := c.err(); err != nil {
		return nil, err
	}

	var created models.Grievance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author models.User
		if err := tx.First(&author, authorID).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}

		created = models.Grievance{
			UserID:               author.ID,
			Title:                in.Title,
			Description:          in.Description,
			Category:             in.Category,
			Severity:             in.Severity,
			Status:               models.StatusOpen,
			BoyfriendName:        in.BoyfriendName,
			RelationshipDuration: in.RelationshipDuration,
			PartnerUserID:        author.PartnerID,
			IsPartnerGrievance:   author.HasPartner(),
			CommunicationStatus:  models.CommunicationPending,
			Evidence:             nonNil(in.Evidence),
			Tags:                 nonNil(in.Tags),
			IsAnonymous:          in.IsAnonymous,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", author.ID).
			UpdateColumn("grievances_submitted", gorm.Expr("grievances_submitted + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	utils.GrievancesCreated.Inc()
	return s.Get(ctx, created.ID)
}

// Update changes content fields. The author and the author's linked partner may update; when the
// partner includes a response it is written exactly as Respond would.
func (s *GrievanceService) Update(ctx context.Context, requesterID, id uint, in UpdateInput) (*models.Grievance, error) {
	db := s.db.WithContext(ctx)

	g, requester, err := s.load(db, requesterID, id)
	if err != nil {
		return nil, err
	}
	isPartner := requester.IsPartnerOf(g.UserID)
	if !g.IsAuthor(requester.ID) && !isPartner {
		return nil, ErrNotAuthorized
	}

	var c fieldChecker
	c.check(utf8.RuneCountInString(utils.SanitizeText(in.Title)) <= maxTitleLength, "title", "Title cannot exceed 100 characters")
	c.check(utf8.RuneCountInString(utils.SanitizeText(in.Description)) <= maxDescriptionLength, "description", "Description cannot exceed 1000 characters")
	c.check(in.Category == "" || models.ValidCategory(in.Category), "category", "Category is invalid")
	c.check(in.Severity == "" || models.ValidSeverity(in.Severity), "severity", "Severity is invalid")
	c.check(in.Status == "" || models.ValidStatus(in.Status), "status", "Status is invalid")
	c.check(in.CommunicationStatus == "" || models.ValidCommunicationStatus(in.CommunicationStatus), "communicationStatus", "Communication status is invalid")
	c.check(in.RelationshipDuration == "" || models.ValidRelationshipDuration(in.RelationshipDuration), "relationshipDuration", "Relationship duration is invalid")
	c.check(utf8.RuneCountInString(in.PartnerResponse) <= maxResponseLength, "partnerResponse", "Response cannot exceed 1000 characters")
	if err := c.err(); err != nil {
		return nil, err
	}

	var cols []string
	if v := utils.SanitizeText(in.Title); v != "" {
		g.Title = v
		cols = append(cols, "title")
	}
	if v := utils.SanitizeText(in.Description); v != "" {
		g.Description = v
		cols = append(cols, "description")
	}
	if in.Category != "" {
		g.Category = in.Category
		cols = append(cols, "category")
	}
	if in.Severity != "" {
		g.Severity = in.Severity
		cols = append(cols, "severity")
	}
	if in.Status != "" {
		g.Status = in.Status
		cols = append(cols, "status")
	}
	if in.CommunicationStatus != "" {
		g.CommunicationStatus = in.CommunicationStatus
		cols = append(cols, "communication_status")
	}
	if v := utils.SanitizeText(in.BoyfriendName); v != "" {
		g.BoyfriendName = v
		cols = append(cols, "boyfriend_name")
	}
	if in.RelationshipDuration != "" {
		g.RelationshipDuration = in.RelationshipDuration
		cols = append(cols, "relationship_duration")
	}
	if in.Evidence != nil {
		g.Evidence = in.Evidence
		cols = append(cols, "evidence")
	}
	if in.Tags != nil {
		g.Tags = in.Tags
		cols = append(cols, "tags")
	}
	if v := utils.SanitizeText(in.PartnerResponse); v != "" && isPartner {
		cols = append(cols, writeResponse(g, v)...)
	}

	if len(cols) > 0 {
		if err := db.Model(g).Select(cols).Updates(g).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, g.ID)
}

// Delete removes a grievance with its comments and likes. Only the author may delete.
func (s *GrievanceService) Delete(ctx context.Context, requesterID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Grievance
		if err := tx.First(&g, id).Error; err != nil {
			return notFound(err, ErrGrievanceNotFound)
		}
		if !g.IsAuthor(requesterID) {
			return ErrNotAuthorized
		}

		if err := tx.Where("grievance_id = ?", g.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("grievance_id = ?", g.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&g).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND grievances_submitted > 0", g.UserID).
			UpdateColumn("grievances_submitted", gorm.Expr("grievances_submitted - 1")).Error
	})
}

// ToggleLike adds the requester to the likes set, or removes them if already present.
func (s *GrievanceService) ToggleLike(ctx context.Context, requesterID, id uint) (*models.Grievance, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Grievance
		if err := tx.Select("id").First(&g, id).Error; err != nil {
			return notFound(err, ErrGrievanceNotFound)
		}

		res := tx.Where("grievance_id = ? AND user_id = ?", g.ID, requesterID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(&models.Like{GrievanceID: g.ID, UserID: requesterID}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Comment adds a comment. Whether it is a partner comment is fixed at insertion time.
func (s *GrievanceService) Comment(ctx context.Context, requesterID, id uint, text string) (*models.Grievance, error) {
	text = utils.SanitizeText(text)
	if text == "" {
		return nil, &ValidationError{Fields: []utils.FieldError{{Param: "text", Msg: "Comment text is required"}}}
	}

	db := s.db.WithContext(ctx)
	g, requester, err := s.load(db, requesterID, id)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		GrievanceID:      g.ID,
		UserID:           requester.ID,
		Text:             text,
		IsPartnerComment: requester.IsPartnerOf(g.UserID),
	}
	if err := db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, g.ID)
}

// Respond overwrites the response slot. Only the author's linked partner may respond.
func (s *GrievanceService) Respond(ctx context.Context, requesterID, id uint, text string) (*models.Grievance, error) {
	text = utils.SanitizeText(text)
	var c fieldChecker
	c.check(text != "", "response", "Response text is required")
	c.check(utf8.RuneCountInString(text) <= maxResponseLength, "response", "Response cannot exceed 1000 characters")
	if err := c.err(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	g, requester, err := s.load(db, requesterID, id)
	if err != nil {
		return nil, err
	}
	if !requester.IsPartnerOf(g.UserID) {
		return nil, ErrNotAuthorized
	}

	cols := writeResponse(g, text)
	if err := db.Model(g).Select(cols).Updates(g).Error; err != nil {
		return nil, err
	}
	utils.PartnerResponses.Inc()
	return s.Get(ctx, g.ID)
}

// MarkRead flags the partner response as read. Without a response it changes nothing.
func (s *GrievanceService) MarkRead(ctx context.Context, requesterID, id uint) (*models.Grievance, error) {
	db := s.db.WithContext(ctx)

	var g models.Grievance
	if err := db.First(&g, id).Error; err != nil {
		return nil, notFound(err, ErrGrievanceNotFound)
	}
	if !g.IsAuthor(requesterID) {
		return nil, ErrNotAuthorized
	}

	if g.PartnerResponse.Exists() && !g.PartnerResponse.IsRead {
		g.PartnerResponse.IsRead = true
		if err := db.Model(&g).Select("partner_response_is_read").Updates(&g).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, g.ID)
}

func (s *GrievanceService) load(db *gorm.DB, requesterID, id uint) (*models.Grievance, *models.User, error) {
	var g models.Grievance
	if err := db.First(&g, id).Error; err != nil {
		return nil, nil, notFound(err, ErrGrievanceNotFound)
	}
	var requester models.User
	if err := db.First(&requester, requesterID).Error; err != nil {
		return nil, nil, notFound(err, ErrUserNotFound)
	}
	return &g, &requester, nil
}

// writeResponse fills the response slot on g and returns the columns it touched.
func writeResponse(g *models.Grievance, text string) []string {
	now := time.Now()
	g.PartnerResponse = models.PartnerResponse{Text: text, Date: &now, IsRead: false}
	g.CommunicationStatus = models.CommunicationResponded
	return []string{"partner_response_text", "partner_response_date", "partner_response_is_read", "communication_status"}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
