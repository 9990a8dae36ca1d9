package main

import (
	"errors"
	"log"
	"louefacile/src/common"
	"louefacile/src/config"
	"louefacile/src/db"
	"louefacile/src/lib"
	"louefacile/src/models"
	"louefacile/src/models/scopes"
	"louefacile/src/types"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// viewerUID resolves the caller on public routes without aborting.
// Anonymous browsing is allowed, a bad token is just treated as anonymous.
func viewerUID(ctx *gin.Context) string {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer ") {
		return ""
	}
	reqToken := strings.Split(bearerToken, " ")[1]
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return []byte(config.API_SECRET), nil
	})
	if err != nil || !tkn.Valid {
		return ""
	}
	return claims.Subject
}

// viewerPass returns the caller's active pass, or nil for anonymous or
// pass-less viewers.
func viewerPass(ctx *gin.Context) *models.SearchPass {
	uid := viewerUID(ctx)
	if uid == "" {
		return nil
	}
	pass, err := common.GetActivePass(uid)
	if err != nil {
		log.Printf("Error fetching pass for viewer [%s]: %s\n", uid, err.Error())
		return nil
	}
	return pass
}

func publicListingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/listings", func(ctx *gin.Context) {
			var query struct {
				IncludeUnavailable bool `form:"include_unavailable"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var properties []models.Property
			if err := db.
				Model(&models.Property{}).
				Order("created_at DESC").
				Find(&properties).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			now := time.Now()
			pass := viewerPass(ctx)
			precise := common.Gate(common.CapPreciseMap, pass, now)
			listings := make([]types.Listing, 0, len(properties))
			for i := range properties {
				listing := common.NormalizeProperty(&properties[i])
				if !listing.Available && !query.IncludeUnavailable {
					continue
				}
				if !precise {
					listing = common.ObfuscateListing(listing)
				}
				listing.Address = ""
				listing.OwnerName = ""
				listing.OwnerPhone = ""
				listings = append(listings, listing)
			}
			ctx.JSON(http.StatusOK, gin.H{"data": listings, "count": len(listings)})
		}).
		GET("/listings/recommended", func(ctx *gin.Context) {
			db := db.GetDb()
			var properties []models.Property
			if err := db.
				Model(&models.Property{}).
				Order("created_at DESC").
				Find(&properties).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			now := time.Now()
			pass := viewerPass(ctx)
			precise := common.Gate(common.CapPreciseMap, pass, now)
			listings := make([]types.Listing, 0, len(properties))
			for i := range properties {
				listing := common.NormalizeProperty(&properties[i])
				if !precise {
					listing = common.ObfuscateListing(listing)
				}
				listing.Address = ""
				listing.OwnerName = ""
				listing.OwnerPhone = ""
				listings = append(listings, listing)
			}
			ranked := common.RankListings(listings)
			ctx.JSON(http.StatusOK, gin.H{"data": ranked, "count": len(ranked)})
		}).
		GET("/listings/:id", func(ctx *gin.Context) {
			var params struct {
				ID string `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var property models.Property
			query := db.Model(&models.Property{})
			if id, err := uuid.Parse(params.ID); err == nil {
				query = query.Where(&models.Property{ID: id})
			} else {
				query = query.Where(&models.Property{Slug: params.ID})
			}
			if err := query.First(&property).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			now := time.Now()
			uid := viewerUID(ctx)
			var pass *models.SearchPass
			if uid != "" {
				pass, _ = common.GetActivePass(uid)
			}
			listing := common.NormalizeProperty(&property)
			if !common.Gate(common.CapPreciseMap, pass, now) {
				listing = common.ObfuscateListing(listing)
				listing.Address = ""
			}
			unlocked := false
			if uid != "" && common.Gate(common.CapContactDetails, pass, now) {
				var count int64
				db.Model(&models.PropertyUnlock{}).
					Where(&models.PropertyUnlock{UserID: uid, PropertyID: property.ID}).
					Count(&count)
				unlocked = count > 0
			}
			if !unlocked {
				listing.OwnerName = ""
				listing.OwnerPhone = ""
			}
			ctx.JSON(http.StatusOK, gin.H{"data": listing, "unlocked": unlocked})
		})
	return g
}

func listingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/listings/:id/unlock", func(ctx *gin.Context) {
			var params struct {
				ID string `uri:"id" binding:"required,uuid"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			uid := ctx.GetString("uid")
			propertyId := uuid.MustParse(params.ID)
			now := time.Now()

			pass, err := common.GetActivePass(uid)
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if !common.Gate(common.CapContactDetails, pass, now) {
				ctx.JSON(http.StatusPaymentRequired, gin.H{"error": "an active pass is required"})
				return
			}

			db := db.GetDb()
			alreadyUnlocked := false
			err = db.Transaction(func(tx *gorm.DB) error {
				var property models.Property
				if err := tx.
					Model(&models.Property{}).
					Scopes(scopes.WithID(propertyId)).
					First(&property).
					Error; err != nil {
					return err
				}
				var existing models.PropertyUnlock
				if err := tx.
					Model(&models.PropertyUnlock{}).
					Where(&models.PropertyUnlock{UserID: uid, PropertyID: propertyId}).
					Limit(1).
					Find(&existing).
					Error; err != nil {
					return err
				}
				if existing.ID > 0 {
					alreadyUnlocked = true
					return nil
				}
				if err := common.ConsumeUnlock(tx, pass, now); err != nil {
					return err
				}
				unlock := models.PropertyUnlock{
					UserID:     uid,
					PropertyID: propertyId,
					PassID:     pass.ID,
				}
				return tx.Create(&unlock).Error
			})
			if err != nil {
				if errors.Is(err, common.ErrQuotaExhausted) {
					ctx.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error(), "remaining": 0})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			if !alreadyUnlocked {
				pass, _ = common.GetActivePass(uid)
			}
			remaining := common.UnlocksRemaining(pass, now)
			ctx.JSON(http.StatusOK, gin.H{"unlocked": true, "already_unlocked": alreadyUnlocked, "remaining": remaining})
		}).
		GET("/listings/unlocked", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			db := db.GetDb()
			var unlocks []models.PropertyUnlock
			if err := db.
				Model(&models.PropertyUnlock{}).
				Where(&models.PropertyUnlock{UserID: uid}).
				Preload("Property").
				Order("created_at DESC").
				Find(&unlocks).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": unlocks, "count": len(unlocks)})
		}).
		POST("/properties", func(ctx *gin.Context) {
			var body types.CreatePropertyRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			uid := ctx.GetString("uid")

			lat, lng := body.Latitude, body.Longitude
			if lat == nil || lng == nil {
				glat, glng, err := lib.GeocodeAddress(ctx, body.Address)
				if err != nil {
					log.Printf("Geocoding failed for [%s]: %s\n", body.Address, err.Error())
				} else {
					lat, lng = glat, glng
				}
			}

			images := types.JSONBArray{}
			for _, u := range body.ImageURLs {
				images = append(images, u)
			}
			property := models.Property{
				Title:            body.Title,
				Description:      body.Description,
				Price:            body.Price,
				Address:          body.Address,
				City:             body.City,
				Latitude:         lat,
				Longitude:        lng,
				Bathrooms:        body.Bathrooms,
				AreaSqft:         body.AreaSqft,
				Category:         body.Category,
				ImageURLs:        images,
				Slug:             slug.Make(body.Title),
				OwnerID:          uid,
				OwnerName:        body.OwnerName,
				OwnerPhone:       body.OwnerPhone,
				AdvanceMonths:    body.AdvanceMonths,
				RentalConditions: body.RentalConditions,
			}
			if body.Bedrooms > 0 {
				property.Bedrooms = &body.Bedrooms
			}
			db := db.GetDb()
			if err := db.Transaction(func(tx *gorm.DB) error {
				return tx.Create(&property).Error
			}); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					property.Slug = slug.Make(body.Title + "-" + uuid.NewString()[:8])
					if err := db.Create(&property).Error; err != nil {
						ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
						return
					}
				} else {
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
					return
				}
			}
			go models.PropertyListedProducer(property.ID, map[string]any{
				"id":       property.ID.String(),
				"owner_id": uid,
				"title":    property.Title,
				"price":    property.Price,
			})
			ctx.JSON(http.StatusCreated, gin.H{"data": property})
		}).
		GET("/properties", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			db := db.GetDb()
			var properties []models.Property
			if err := db.
				Model(&models.Property{}).
				Where(&models.Property{OwnerID: uid}).
				Order("created_at DESC").
				Find(&properties).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": properties, "count": len(properties)})
		}).
		PUT("/properties/:id/status", func(ctx *gin.Context) {
			var params struct {
				ID string `uri:"id" binding:"required,uuid"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body struct {
				Status string `json:"status" binding:"required,oneof=disponible louee suspendue"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			uid := ctx.GetString("uid")
			propertyId := uuid.MustParse(params.ID)
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var property models.Property
				if err := tx.
					Model(&models.Property{}).
					Where(&models.Property{ID: propertyId, OwnerID: uid}).
					First(&property).
					Error; err != nil {
					return err
				}
				return tx.
					Model(&models.Property{}).
					Where(&models.Property{ID: propertyId}).
					Update("status", body.Status).
					Error
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"updated": true})
		})
	return g
}
