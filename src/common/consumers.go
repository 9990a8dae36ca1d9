package common

import (
	"log"
	"louefacile/src/db"
	"louefacile/src/lib"
	"louefacile/src/models"
	"louefacile/src/models/scopes"
	"louefacile/src/types"
	"louefacile/src/utils"
	"os"

	"github.com/tidwall/gjson"
)

// EmailQueueConsumer drains the mail queue and delivers over SMTP.
func EmailQueueConsumer() {
	emailQueue := os.Getenv("EMAIL_QUEUE")
	lib.KafkaConsumer("emails", func(topic string, payload []byte) {
		spayload := string(payload)
		if !gjson.Valid(spayload) {
			log.Printf("[%s] Invalid payload: %s\n", topic, spayload)
			return
		}
		to := []string{}
		for _, v := range gjson.Get(spayload, "to").Array() {
			to = append(to, v.String())
		}
		input := &lib.SendMailInput{
			From:     gjson.Get(spayload, "from").String(),
			FromName: gjson.Get(spayload, "from-name").String(),
			Subject:  gjson.Get(spayload, "subject").String(),
			Body:     gjson.Get(spayload, "body").String(),
			Html:     gjson.Get(spayload, "html").Bool(),
			To:       to,
		}
		if err := lib.SendMail(input); err != nil {
			log.Printf("[%s] Could not deliver mail: %s\n", topic, err.Error())
		}
	}, utils.WithSuffix(emailQueue))
}

// ConclusionsDeadlineConsumer closes conclusions whose confirmation window
// ran out without a tenant response.
func ConclusionsDeadlineConsumer() {
	lib.KafkaConsumer("conclusions", func(topic string, payload []byte) {
		spayload := string(payload)
		if !gjson.Valid(spayload) {
			log.Printf("[%s] Invalid payload: %s\n", topic, spayload)
			return
		}
		id := gjson.Get(spayload, "conclusion_id").Uint()
		if id == 0 {
			log.Printf("[%s] Missing conclusion_id in payload: %s\n", topic, spayload)
			return
		}
		conn := db.GetDb()
		if err := conn.
			Model(&models.RentalConclusion{}).
			Where("id = ?", uint(id)).
			Scopes(scopes.WithPendingStatus).
			Update("status", types.CONCLUSION_DECLINED).
			Error; err != nil {
			log.Printf("[%s] Could not close conclusion [%d]: %s\n", topic, id, err.Error())
		}
	}, utils.WithSuffix("conclusions-deadline"))
}
