package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/cppla/grievances/models"
	"github.com/cppla/grievances/utils"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 6
	maxBioLength      = 200
)

var validate = validator.New()

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username           string
	Email              string
	Password           string
	RelationshipStatus string
}

// PreferencesPatch merges into models.Preferences; nil fields are kept.
type PreferencesPatch struct {
	Notifications *bool   `json:"notifications"`
	Privacy       *string `json:"privacy"`
}

// CommunicationPreferencesPatch merges into models.CommunicationPreferences; nil fields are kept.
type CommunicationPreferencesPatch struct {
	Notifications         *bool   `json:"notifications"`
	EmailNotifications    *bool   `json:"emailNotifications"`
	Privacy               *string `json:"privacy"`
	AllowPartnerResponses *bool   `json:"allowPartnerResponses"`
}

// ProfileInput applies only non-empty strings and non-nil patches.
type ProfileInput struct {
	Username                 string
	Bio                      string
	RelationshipStatus       string
	Avatar                   string
	Preferences              *PreferencesPatch
	CommunicationPreferences *CommunicationPreferencesPatch
}

// Stats is the counter view of one user.
type Stats struct {
	GrievancesSubmitted   int        `json:"grievancesSubmitted"`
	GrievancesResolved    int        `json:"grievancesResolved"`
	Karma                 int        `json:"karma"`
	JoinDate              time.Time  `json:"joinDate"`
	RelationshipStatus    string     `json:"relationshipStatus"`
	HasPartner            bool       `json:"hasPartner"`
	RelationshipStartDate *time.Time `json:"relationshipStartDate"`
}

// UserService handles accounts and profiles.
type UserService struct {
	db         *gorm.DB
	bcryptCost int
}

func NewUserService(db *gorm.DB, bcryptCost int) *UserService {
	return &UserService{db: db, bcryptCost: bcryptCost}
}

// Register creates an account. Username and email must both be unused.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := models.NormalizeEmail(in.Email)

	var c fieldChecker
	c.check(username != "", "username", "Username is required")
	c.check(username == "" || validUsername(username), "username", "Username must be 3-30 characters")
	c.check(validEmail(email), "email", "Please include a valid email")
	c.check(utf8.RuneCountInString(in.Password) >= minPasswordLength, "password", "Please enter a password with 6 or more characters")
	c.check(in.RelationshipStatus == "" || models.ValidRelationshipStatus(in.RelationshipStatus), "relationshipStatus", "Relationship status is invalid")
	if err := c.err(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ? OR username = ?", email, username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	status := in.RelationshipStatus
	if status == "" {
		status = models.RelationshipSingle
	}
	user := models.User{
		Username:           username,
		Email:              email,
		PasswordHash:       hash,
		RelationshipStatus: status,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate checks an email/password pair. Unknown email and wrong password are indistinguishable.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, notFound(err, ErrInvalidCredentials)
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Profile returns the user record.
func (s *UserService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

// UpdateProfile applies in to the user. Preference patches are merged field by field.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	bio := utils.SanitizeText(in.Bio)
	avatar := strings.TrimSpace(in.Avatar)

	var c fieldChecker
	c.check(username == "" || validUsername(username), "username", "Username must be 3-30 characters")
	c.check(utf8.RuneCountInString(bio) <= maxBioLength, "bio", "Bio cannot exceed 200 characters")
	c.check(in.RelationshipStatus == "" || models.ValidRelationshipStatus(in.RelationshipStatus), "relationshipStatus", "Relationship status is invalid")
	if p := in.Preferences; p != nil && p.Privacy != nil {
		c.check(models.ValidPreferencePrivacy(*p.Privacy), "preferences.privacy", "Privacy is invalid")
	}
	if p := in.CommunicationPreferences; p != nil && p.Privacy != nil {
		c.check(models.ValidCommunicationPrivacy(*p.Privacy), "communicationPreferences.privacy", "Privacy is invalid")
	}
	if err := c.err(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var cols []string
	if username != "" && username != user.Username {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ? AND id <> ?", username, user.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrUserExists
		}
		user.Username = username
		cols = append(cols, "username")
	}
	if bio != "" {
		user.Bio = bio
		cols = append(cols, "bio")
	}
	if in.RelationshipStatus != "" {
		user.RelationshipStatus = in.RelationshipStatus
		cols = append(cols, "relationship_status")
	}
	if avatar != "" {
		user.Avatar = avatar
		cols = append(cols, "avatar")
	}
	if p := in.Preferences; p != nil {
		if p.Notifications != nil {
			user.Preferences.Notifications = *p.Notifications
		}
		if p.Privacy != nil {
			user.Preferences.Privacy = *p.Privacy
		}
		cols = append(cols, "pref_notifications", "pref_privacy")
	}
	if p := in.CommunicationPreferences; p != nil {
		cp := &user.CommunicationPreferences
		if p.Notifications != nil {
			cp.Notifications = *p.Notifications
		}
		if p.EmailNotifications != nil {
			cp.EmailNotifications = *p.EmailNotifications
		}
		if p.Privacy != nil {
			cp.Privacy = *p.Privacy
		}
		if p.AllowPartnerResponses != nil {
			cp.AllowPartnerResponses = *p.AllowPartnerResponses
		}
		cols = append(cols, "comm_notifications", "comm_email_notifications", "comm_privacy", "comm_allow_partner_responses")
	}

	if len(cols) > 0 {
		if err := db.Model(user).Select(cols).Updates(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrUserExists
			}
			return nil, err
		}
	}
	return user, nil
}

// Stats returns the user's counters.
func (s *UserService) Stats(ctx context.Context, userID uint) (*Stats, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Stats{
		GrievancesSubmitted:   user.GrievancesSubmitted,
		GrievancesResolved:    user.GrievancesResolved,
		Karma:                 user.Karma,
		JoinDate:              user.JoinDate,
		RelationshipStatus:    user.RelationshipStatus,
		HasPartner:            user.HasPartner(),
		RelationshipStartDate: user.RelationshipStartDate,
	}, nil
}

func validUsername(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= minUsernameLength && n <= maxUsernameLength
}

func validEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}
