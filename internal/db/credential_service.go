package db

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/taskboard/internal/models"
)

// ErrNoCredential means nobody is logged in to the given API
var ErrNoCredential = errors.New("no saved credential")

// SaveCredential stores (or replaces) the token for baseURL
func SaveCredential(baseURL, email, token string) (*models.Credential, error) {
	if err := ready(); err != nil {
		return nil, err
	}
	cred := models.Credential{
		BaseURL: normalizeBaseURL(baseURL),
		Email:   email,
		Token:   token,
	}
	err := DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "base_url"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "token", "updated_at"}),
	}).Create(&cred).Error
	if err != nil {
		return nil, fmt.Errorf("save credential: %w", err)
	}
	return &cred, nil
}

// GetCredential returns the token saved for baseURL
func GetCredential(baseURL string) (*models.Credential, error) {
	if err := ready(); err != nil {
		return nil, err
	}
	var cred models.Credential
	err := DB.Where("base_url = ?", normalizeBaseURL(baseURL)).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// DeleteCredential forgets the token for baseURL
func DeleteCredential(baseURL string) (bool, error) {
	if err := ready(); err != nil {
		return false, err
	}
	res := DB.Where("base_url = ?", normalizeBaseURL(baseURL)).Delete(&models.Credential{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func normalizeBaseURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}
