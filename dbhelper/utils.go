package dbhelper

import (
	"log"

	"tryonapi/models"

	"gorm.io/gorm"
)

func SetupCleaner(db *gorm.DB) func() {

	return func() {

		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.TryOnHistory{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ShopUsage{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Shop{})

	}
}

func Migrate(db *gorm.DB, model interface{}) {
	err := db.AutoMigrate(model)
	if err != nil {
		log.Printf("Error while migrating %s", model)
		log.Fatal(err)
	}
}
