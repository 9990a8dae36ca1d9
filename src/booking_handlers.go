package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"louefacile/src/common"
	"louefacile/src/config"
	"louefacile/src/db"
	"louefacile/src/lib"
	"louefacile/src/lib/mailer"
	"louefacile/src/models"
	"louefacile/src/types"
	"louefacile/src/utils"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeqown/go-qrcode"
	"google.golang.org/api/calendar/v3"
	"gorm.io/gorm"
)

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/visits", func(ctx *gin.Context) {
			var body types.ScheduleVisitRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			uid := ctx.GetString("uid")
			now := time.Now()
			pass, err := common.GetActivePass(uid)
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if !common.Gate(common.CapVisitScheduling, pass, now) {
				ctx.JSON(http.StatusPaymentRequired, gin.H{"error": "an active pass is required"})
				return
			}
			visitDate, err := time.Parse(config.TIME_PARSE_FORMAT, body.VisitDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			db := db.GetDb()
			var property models.Property
			booking := models.Booking{
				UserID:    uid,
				VisitDate: visitDate,
			}
			err = db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.Property{}).
					Where("id = ? OR slug = ?", body.PropertyID, body.PropertyID).
					First(&property).
					Error; err != nil {
					return err
				}
				if property.Status != types.PROPERTY_AVAILABLE {
					return errors.New("property is not available for visits")
				}
				var count int64
				if err := tx.
					Model(&models.Booking{}).
					Where(&models.Booking{UserID: uid, PropertyID: property.ID, Status: types.BOOKING_PENDING}).
					Count(&count).
					Error; err != nil {
					return err
				}
				if count > 0 {
					return errors.New("a visit for this property is already scheduled")
				}
				booking.PropertyID = property.ID
				return tx.Create(&booking).Error
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}

			go func() {
				created, err := lib.GAPIAddEvent("primary", &calendar.Event{
					Summary:     fmt.Sprintf("Visite: %s", property.Title),
					Description: fmt.Sprintf("Visite du bien %s avec %s", property.Title, uid),
					Start: &calendar.EventDateTime{
						DateTime: visitDate.Format("2006-01-02T15:04:05-0700"),
					},
					End: &calendar.EventDateTime{
						DateTime: visitDate.Add(time.Hour).Format("2006-01-02T15:04:05-0700"),
					},
				}, nil)
				if err != nil {
					log.Printf("Failed to add Event to Calendar: %s\n", err.Error())
					return
				}
				conn := db
				if err := conn.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: booking.ID}).
					Update("calendar_event_id", created.Id).
					Error; err != nil {
					log.Printf("Could not store calendar event id: %s\n", err.Error())
				}
			}()
			go func() {
				if property.Owner == nil {
					var owner models.Profile
					if err := db.Where(&models.Profile{UID: property.OwnerID}).First(&owner).Error; err != nil {
						log.Printf("Could not load owner [%s]: %s\n", property.OwnerID, err.Error())
						return
					}
					property.Owner = &owner
				}
				if err := mailer.NewMailerMessage(&lib.SendMailInput{
					From:     config.SMTP_FROM,
					FromName: "noreply",
					Subject:  "Nouvelle demande de visite",
					To:       []string{property.Owner.Email},
					Body: fmt.Sprintf(`
						<p>Une visite a été demandée pour votre bien <b>%s</b>.</p>
						<p>Date: %s</p>
						`, property.Title, visitDate.Format(config.TIME_PARSE_FORMAT)),
					Html: true,
				}); err != nil {
					log.Printf("Could not queue visit mail: %s\n", err.Error())
				}
			}()
			go models.BookingCreatedProducer(booking.ID, map[string]any{
				"id":          booking.ID,
				"property_id": property.ID.String(),
				"user_id":     uid,
				"visit_date":  visitDate,
			})
			ctx.JSON(http.StatusCreated, gin.H{"data": booking})
		}).
		GET("/visits", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			db := db.GetDb()
			var bookings []models.Booking
			if err := db.
				Model(&models.Booking{}).
				Where(&models.Booking{UserID: uid}).
				Preload("Property").
				Preload("Conclusion").
				Order("visit_date ASC").
				Find(&bookings).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		GET("/visits/requests", func(ctx *gin.Context) {
			// Visits scheduled against the caller's own listings.
			uid := ctx.GetString("uid")
			db := db.GetDb()
			var bookings []models.Booking
			if err := db.
				Model(&models.Booking{}).
				Joins("Property").
				Where("\"Property\".owner_id = ?", uid).
				Preload("Visitor").
				Preload("Conclusion").
				Order("visit_date ASC").
				Find(&bookings).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		PUT("/visits/:id/cancel", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			uid := ctx.GetString("uid")
			db := db.GetDb()
			var booking models.Booking
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: params.ID, UserID: uid}).
					First(&booking).
					Error; err != nil {
					return err
				}
				if booking.Status != types.BOOKING_PENDING {
					return fmt.Errorf("visit [%d] can no longer be canceled", params.ID)
				}
				return tx.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: params.ID}).
					Update("status", types.BOOKING_CANCELED).
					Error
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			if booking.CalendarEventID != "" {
				go func() {
					if err := lib.GAPIDeleteEvent("primary", booking.CalendarEventID, nil); err != nil {
						log.Printf("Could not delete calendar event [%s]: %s\n", booking.CalendarEventID, err.Error())
					}
				}()
			}
			go models.BookingCanceledProducer(booking.ID, map[string]any{
				"id":          booking.ID,
				"property_id": booking.PropertyID.String(),
				"user_id":     uid,
			})
			ctx.JSON(http.StatusOK, gin.H{"canceled": true})
		}).
		GET("/visits/:id/qr", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			uid := ctx.GetString("uid")
			db := db.GetDb()
			var booking models.Booking
			if err := db.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: params.ID, UserID: uid}).
				First(&booking).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			rawData := map[string]any{
				"bookingId":  booking.ID,
				"propertyId": booking.PropertyID.String(),
				"userId":     uid,
			}
			rawBytes, _ := json.Marshal(rawData)
			keyEnv := os.Getenv("API_QRC_SECRET")
			key, err := hex.DecodeString(keyEnv)
			if err != nil {
				log.Printf("Could not read key from string: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			encryptedMessage, err := utils.EncryptMessage(key, string(rawBytes))
			if err != nil {
				log.Printf("Error encrypting message: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			qrc, err := qrcode.New(encryptedMessage)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			tempdir := os.Getenv("TEMP_DIR")
			filepath := path.Join(tempdir, fmt.Sprintf("visit-%d.jpeg", booking.ID))
			if err = qrc.Save(filepath); err != nil {
				log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.FileAttachment(filepath, "visit.jpeg")
		}).
		POST("/visits/:id/conclusion", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.ConcludeVisitRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			uid := ctx.GetString("uid")
			var deadline *time.Time
			if body.ConfirmationDeadline != nil {
				parsed, err := time.Parse(config.TIME_PARSE_FORMAT, *body.ConfirmationDeadline)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				deadline = &parsed
			}

			db := db.GetDb()
			var conclusion models.RentalConclusion
			err := db.Transaction(func(tx *gorm.DB) error {
				var booking models.Booking
				if err := tx.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: params.ID}).
					Preload("Property").
					First(&booking).
					Error; err != nil {
					return err
				}
				if booking.Property == nil || booking.Property.OwnerID != uid {
					return errors.New("only the property owner can conclude a visit")
				}
				if booking.Status != types.BOOKING_PENDING {
					return fmt.Errorf("visit [%d] is not open for a conclusion", params.ID)
				}
				if time.Now().Before(booking.VisitDate) {
					return errors.New("visit has not happened yet")
				}
				conclusion = models.RentalConclusion{
					BookingID:            booking.ID,
					PropertyID:           booking.PropertyID,
					OwnerID:              uid,
					TenantID:             booking.UserID,
					Status:               types.CONCLUSION_PENDING,
					Amount:               body.Amount,
					ConfirmationDeadline: deadline,
				}
				if err := tx.Create(&conclusion).Error; err != nil {
					return err
				}
				if body.Status == types.CONCLUSION_DECLINED {
					return tx.
						Model(&models.RentalConclusion{}).
						Where(&models.RentalConclusion{ID: conclusion.ID}).
						Update("status", types.CONCLUSION_DECLINED).
						Error
				}
				return nil
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			if body.Status == types.CONCLUSION_CONFIRMED && deadline != nil {
				go lib.CreateCronSchedule(
					"conclusions_deadline_producer",
					utils.WithSuffix("conclusions-deadline"),
					*deadline,
					types.JSONB{"conclusion_id": conclusion.ID},
				)
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": conclusion})
		}).
		PUT("/conclusions/:id", func(ctx *gin.Context) {
			// Tenant settles a pending conclusion before the deadline.
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body struct {
				Status string `json:"status" binding:"required,oneof=confirmed declined"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			uid := ctx.GetString("uid")
			db := db.GetDb()
			var conclusion models.RentalConclusion
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.RentalConclusion{}).
					Where(&models.RentalConclusion{ID: params.ID, TenantID: uid}).
					First(&conclusion).
					Error; err != nil {
					return err
				}
				if conclusion.Status != types.CONCLUSION_PENDING {
					return fmt.Errorf("conclusion [%d] is already settled", params.ID)
				}
				now := time.Now()
				if conclusion.ConfirmationDeadline != nil && now.After(*conclusion.ConfirmationDeadline) {
					return errors.New("confirmation window has passed")
				}
				if err := tx.
					Model(&models.RentalConclusion{}).
					Where(&models.RentalConclusion{ID: params.ID}).
					Update("status", body.Status).
					Error; err != nil {
					return err
				}
				if body.Status == types.CONCLUSION_CONFIRMED {
					if err := tx.
						Model(&models.Property{}).
						Where(&models.Property{ID: conclusion.PropertyID}).
						Update("status", types.PROPERTY_RENTED).
						Error; err != nil {
						return err
					}
					return tx.
						Model(&models.Booking{}).
						Where(&models.Booking{ID: conclusion.BookingID}).
						Update("status", "completed").
						Error
				}
				return nil
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			go func() {
				var owner models.Profile
				if err := db.Where(&models.Profile{UID: conclusion.OwnerID}).First(&owner).Error; err != nil {
					log.Printf("Could not load owner [%s]: %s\n", conclusion.OwnerID, err.Error())
					return
				}
				if err := mailer.NewMailerMessage(&lib.SendMailInput{
					From:     config.SMTP_FROM,
					FromName: "noreply",
					Subject:  "Décision du locataire",
					To:       []string{owner.Email},
					Body:     fmt.Sprintf("<p>Le locataire a répondu: <b>%s</b>.</p>", body.Status),
					Html:     true,
				}); err != nil {
					log.Printf("Could not queue conclusion mail: %s\n", err.Error())
				}
			}()
			ctx.JSON(http.StatusOK, gin.H{"data": conclusion.ID, "status": body.Status})
		})
	return g
}
