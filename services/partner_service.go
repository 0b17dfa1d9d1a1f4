package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/grievances/models"
	"github.com/cppla/grievances/utils"
)

// PartnerService owns the symmetric partner link between two users.
type PartnerService struct {
	db *gorm.DB
}

func NewPartnerService(db *gorm.DB) *PartnerService {
	return &PartnerService{db: db}
}

// Link connects requesterID with the account registered under partnerEmail.
// Both rows change in one transaction and each side is only claimed while its partner_id is still
// NULL, so two concurrent links can never leave a user with two partners.
func (s *PartnerService) Link(ctx context.Context, requesterID uint, partnerEmail string) (*models.User, error) {
	email := models.NormalizeEmail(partnerEmail)
	var partner models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var requester models.User
		if err := tx.First(&requester, requesterID).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if err := tx.Where("email = ?", email).First(&partner).Error; err != nil {
			return notFound(err, ErrPartnerNotFound)
		}

		switch {
		case partner.ID == requester.ID:
			return ErrSelfLink
		case requester.IsPartnerOf(partner.ID):
			return ErrAlreadyLinked
		case requester.HasPartner():
			return ErrAlreadyHasPartner
		case partner.HasPartner():
			return ErrPartnerUnavailable
		}

		now := time.Now()
		if err := claim(tx, &requester, &partner, now); err != nil {
			if errors.Is(err, errClaimLost) {
				return ErrAlreadyHasPartner
			}
			return err
		}
		if err := claim(tx, &partner, &requester, now); err != nil {
			if errors.Is(err, errClaimLost) {
				return ErrPartnerUnavailable
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.PartnerLinks.WithLabelValues("link").Inc()
	return &partner, nil
}

// Unlink clears the requester's link and, when it still points back, the former partner's.
func (s *PartnerService) Unlink(ctx context.Context, requesterID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var requester models.User
		if err := tx.First(&requester, requesterID).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if !requester.HasPartner() {
			return ErrNoPartner
		}
		formerID := *requester.PartnerID

		if err := tx.Model(&models.User{}).Where("id = ?", requester.ID).Updates(unlinkedColumns()).Error; err != nil {
			return err
		}
		// A deleted or already re-linked former partner is left alone
		return tx.Model(&models.User{}).
			Where("id = ? AND partner_id = ?", formerID, requester.ID).
			Updates(unlinkedColumns()).Error
	})
	if err != nil {
		return err
	}

	utils.PartnerLinks.WithLabelValues("unlink").Inc()
	return nil
}

// Partner returns the requester's linked partner.
func (s *PartnerService) Partner(ctx context.Context, requesterID uint) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var requester models.User
	if err := db.First(&requester, requesterID).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if !requester.HasPartner() {
		return nil, ErrNoPartner
	}

	var partner models.User
	if err := db.First(&partner, *requester.PartnerID).Error; err != nil {
		return nil, notFound(err, ErrNoPartner)
	}
	return &partner, nil
}

var errClaimLost = errors.New("partner slot already taken")

// claim points u at other, guarded on u still being unlinked. u is updated in place.
func claim(tx *gorm.DB, u, other *models.User, now time.Time) error {
	res := tx.Model(&models.User{}).
		Where("id = ? AND partner_id IS NULL", u.ID).
		Updates(map[string]interface{}{
			"partner_id":              other.ID,
			"partner_email":           other.Email,
			"relationship_status":     models.RelationshipInRelation,
			"relationship_start_date": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return errClaimLost
	}

	u.PartnerID = &other.ID
	u.PartnerEmail = &other.Email
	u.RelationshipStatus = models.RelationshipInRelation
	u.RelationshipStartDate = &now
	return nil
}

func unlinkedColumns() map[string]interface{} {
	return map[string]interface{}{
		"partner_id":              nil,
		"partner_email":           nil,
		"relationship_status":     models.RelationshipSingle,
		"relationship_start_date": nil,
	}
}
