package repositories

import (
	"context"

	"gorm.io/gorm"

	"vboard/app/models/user"
	"vboard/pkg/database"
)

// UserRepository 用户仓库
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建仓库实例
func NewUserRepository() *UserRepository {
	return &UserRepository{
		db: database.DB,
	}
}

// FindByID 根据 ID 获取用户
func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EachReminderCandidate 分批遍历可能需要提醒的用户
// 阈值判断留给业务层，这里只收窄扫描范围
func (r *UserRepository) EachReminderCandidate(ctx context.Context, batchSize int, fn func(u *user.User)) error {
	var users []user.User
	return r.db.WithContext(ctx).
		Where("remind_traffic = ? OR remind_expire = ?", true, true).
		FindInBatches(&users, batchSize, func(tx *gorm.DB, batch int) error {
			for i := range users {
				fn(&users[i])
			}
			return nil
		}).Error
}
