package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/grievances/models"
)

type fixture struct {
	db         *gorm.DB
	users      *UserService
	partners   *PartnerService
	grievances *GrievanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "grievances.db")), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))

	return &fixture{
		db:         db,
		users:      NewUserService(db, bcrypt.MinCost),
		partners:   NewPartnerService(db),
		grievances: NewGrievanceService(db),
	}
}

func (f *fixture) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@x.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) reload(t *testing.T, id uint) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.First(&u, id).Error)
	return &u
}

func (f *fixture) link(t *testing.T, a, b *models.User) {
	t.Helper()
	_, err := f.partners.Link(context.Background(), a.ID, b.Email)
	require.NoError(t, err)
}

func (f *fixture) file(t *testing.T, author *models.User, title string) *models.Grievance {
	t.Helper()
	g, err := f.grievances.Create(context.Background(), author.ID, CreateInput{
		Title:                title,
		Description:          "details for " + title,
		Category:             models.CategoryCommunication,
		Severity:             models.SeverityMedium,
		BoyfriendName:        "Sam",
		RelationshipDuration: "1-2 years",
	})
	require.NoError(t, err)
	return g
}
