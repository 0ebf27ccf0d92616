package models

import (
	"strings"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
	weakPasswordLength   = 10
)

// InitDefaultAdmin 表中没有管理员时创建首个账号，首个账号即超级管理员
func InitDefaultAdmin(username, password string) error {
	var count int64
	if err := DB.Model(&Admin{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = defaultAdminUsername
	}
	if password == "" {
		password = defaultAdminPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := DB.Create(&Admin{Username: username, PasswordHash: string(hash), IsSuper: true}).Error; err != nil {
		return err
	}

	weak := password == defaultAdminPassword || len(password) < weakPasswordLength
	logger.Warnw("default_admin_created", "username", username, "weak_password", weak)
	return nil
}

// InitDefaultDeliveryDelay 确保存在 DEFAULT 送达延迟配置
func InitDefaultDeliveryDelay(hours int) error {
	if hours <= 0 {
		return nil
	}
	row := DeliveryDelay{
		StateName:  constants.DeliveryDelayDefaultState,
		DelayHours: hours,
	}
	return DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_name"}},
		DoNothing: true,
	}).Create(&row).Error
}
