package boot

import (
	"log"
	"louefacile/src/common"
	"louefacile/src/db"
	"louefacile/src/lib"
	"louefacile/src/models"
	"louefacile/src/models/scopes"
	"louefacile/src/utils"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.Profile{},
		&models.Property{},
		&models.SearchPass{},
		&models.PropertyUnlock{},
		&models.Favorite{},
		&models.Booking{},
		&models.RentalConclusion{},
		&models.Token{},
		&models.Credential{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitBroker() {
	emailQueue := os.Getenv("EMAIL_QUEUE")
	go lib.KafkaCreateTopics(
		"properties-listed",
		"passes-activated",
		"bookings-created",
		"bookings-canceled",
		utils.WithSuffix("conclusions-deadline"),
		utils.WithSuffix(emailQueue),
	)
	go common.EmailQueueConsumer()
	go common.ConclusionsDeadlineConsumer()
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	j, err := sched.NewJob(
		gocron.CronJob("0 1 * * *", false),
		gocron.NewTask(SweepExpiredPasses),
	)
	if err != nil {
		log.Printf("Error scheduling pass sweep: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s %s\n", j.Name(), j.ID().String())
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}

// SweepExpiredPasses flips passes whose window has closed and clears the
// denormalized flags on their holders.
func SweepExpiredPasses() {
	now := time.Now()
	conn := db.GetDb()
	var expired []models.SearchPass
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.SearchPass{}).
			Scopes(scopes.WithActiveStatus).
			Where("end_date IS NOT NULL AND end_date <= ?", now).
			Find(&expired).
			Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}
		ids := make([]string, 0, len(expired))
		uids := make([]string, 0, len(expired))
		for _, pass := range expired {
			ids = append(ids, pass.ID.String())
			uids = append(uids, pass.UserID)
		}
		if err := tx.
			Model(&models.SearchPass{}).
			Where("id IN ?", ids).
			Update("status", "expired").
			Error; err != nil {
			return err
		}
		return tx.
			Model(&models.Profile{}).
			Where("uid IN ?", uids).
			Updates(map[string]any{
				"has_active_pass": false,
				"pass_expiry":     nil,
			}).
			Error
	})
	if err != nil {
		log.Printf("Pass sweep failed: %s\n", err.Error())
		return
	}
	log.Printf("Pass sweep done: %d expired\n", len(expired))
}
