package database

import "zenith/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Tag{},
		&models.Post{},
		&models.PostTag{},
		&models.Comment{},
	}
}
