package main

import (
	"errors"
	"louefacile/src/db"
	"louefacile/src/models"
	"louefacile/src/types"
	"louefacile/src/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func favoriteHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/favorites", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			db := db.GetDb()
			var favorites []models.Favorite
			if err := db.
				Model(&models.Favorite{}).
				Where(&models.Favorite{UserID: uid}).
				Preload("Property").
				Order("created_at DESC").
				Find(&favorites).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": favorites, "count": len(favorites)})
		}).
		POST("/favorites/:id", func(ctx *gin.Context) {
			var params struct {
				ID string `uri:"id" binding:"required,uuid"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			uid := ctx.GetString("uid")
			propertyId := uuid.MustParse(params.ID)
			db := db.GetDb()
			fav := models.Favorite{UserID: uid, PropertyID: propertyId}
			if err := db.Transaction(func(tx *gorm.DB) error {
				var property models.Property
				if err := tx.
					Model(&models.Property{}).
					Where(&models.Property{ID: propertyId}).
					First(&property).
					Error; err != nil {
					return err
				}
				return tx.Create(&fav).Error
			}); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					ctx.JSON(http.StatusOK, gin.H{"favorited": true})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"favorited": true, "data": fav})
		}).
		DELETE("/favorites/:id", func(ctx *gin.Context) {
			var params struct {
				ID string `uri:"id" binding:"required,uuid"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			uid := ctx.GetString("uid")
			propertyId := uuid.MustParse(params.ID)
			db := db.GetDb()
			if err := db.
				Where(&models.Favorite{UserID: uid, PropertyID: propertyId}).
				Delete(&models.Favorite{}).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"favorited": false})
		})
	return g
}

// likeHandlers track anonymous per-device likes in redis, no account needed.
func likeHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/likes/:device", func(ctx *gin.Context) {
			var params struct {
				Device string `uri:"device" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			liked := utils.GetLikedListings(ctx, params.Device)
			ctx.JSON(http.StatusOK, gin.H{"data": liked, "count": len(liked)})
		}).
		POST("/likes/toggle", func(ctx *gin.Context) {
			var body types.ToggleLikeRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			next, liked, err := utils.ToggleLikedListing(ctx, body.DeviceID, body.PropertyID)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": next, "liked": liked})
		})
	return g
}
