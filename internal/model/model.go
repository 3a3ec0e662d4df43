package model

import (
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "Workspace":
		return db.AutoMigrate(Workspace{})

	case "Version":
		return db.AutoMigrate(Version{})

	case "Comment":
		return db.AutoMigrate(Comment{})
	}
	return nil
}
