package middlewares

import (
	"log"
	"louefacile/src/db"
	"louefacile/src/models"
	"louefacile/src/types"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var jwtKey = []byte(os.Getenv("API_SECRET"))

func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(401)
		return
	}
	parts := strings.Split(bearerToken, " ")
	if len(parts) != 2 || parts[1] == "" {
		ctx.AbortWithStatus(401)
		return
	}
	reqToken := parts[1]
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		ctx.AbortWithStatus(401)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(401)
		return
	}

	conn := db.GetDb()
	var profile models.Profile
	conn.Model(&models.Profile{}).Where(&models.Profile{UID: claims.Subject}).Find(&profile)

	if profile.UID == "" || profile.UID != claims.Subject {
		ctx.AbortWithStatus(401)
		return
	}
	ctx.Set("email", profile.Email)
	ctx.Set("uid", profile.UID)
	ctx.Set("role", profile.Role)
}
