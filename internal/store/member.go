package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/safelens/veriscan/internal/logger"
	"github.com/safelens/veriscan/internal/model"
)

// ErrDuplicateLogin is returned when a member's login_id is already taken.
var ErrDuplicateLogin = errors.New("login_id already exists")

type MemberStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberStore(db *gorm.DB, baseLog *logger.Logger) *MemberStore {
	return &MemberStore{db: db, log: baseLog.With("store", "member")}
}

func (s *MemberStore) Create(ctx context.Context, m *model.Member) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Member{}).
		Where("login_id = ?", m.LoginID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateLogin
	}
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *MemberStore) Get(ctx context.Context, id int64) (*model.Member, error) {
	var m model.Member
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &m, nil
}

func (s *MemberStore) List(ctx context.Context) ([]model.Member, error) {
	var results []model.Member
	if err := s.db.WithContext(ctx).Order("member_id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *MemberStore) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Member{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
