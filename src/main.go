package main

import (
	"errors"
	"io"
	"log"
	"louefacile/src/boot"
	"louefacile/src/config"
	"louefacile/src/controllers"
	"louefacile/src/lib"
	"louefacile/src/middlewares"
	"louefacile/src/utils"
	"net/http"
	"os"
	"path"
	"regexp"
	"strconv"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
)

const apiPrefix = "/api/v1"

// visitDateValidatorFunc accepts only parseable visit dates that are still
// in the future.
var visitDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	return datetime.After(time.Now())
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		mm := os.Getenv("MAINTENANCE_MODE")
		atoi, err := strconv.ParseBool(mm)
		if err == nil && atoi {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, err.Error())
			return
		}
	})
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func publicRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	publicListingHandlers(apiv1)
	likeHandlers(apiv1)

	if config.PasskeyEnabled() {
		passkey := apiv1.Group("/passkey")
		passkey.
			POST("/login/start", func(ctx *gin.Context) {
				opts, status, err := controllers.PasskeyLoginStart(ctx.Copy())
				if err != nil {
					log.Printf("Error on PasskeyLoginStart: %s\n", err.Error())
					ctx.Status(status)
					return
				}
				ctx.JSON(http.StatusOK, gin.H{"publicKey": opts.Response})
			}).
			POST("/login/finish", func(ctx *gin.Context) {
				token, status, err := controllers.PasskeyLoginFinish(ctx)
				if err != nil {
					log.Printf("Error on PasskeyLoginFinish: %s\n", err.Error())
					ctx.Status(status)
					return
				}
				ctx.JSON(http.StatusOK, gin.H{"token": token})
			})
	}
	return apiv1
}

func guestAuthRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	guest := apiv1.Group("/auth")
	guest.
		POST("/register", func(ctx *gin.Context) {
			uid, status, err := controllers.AuthRegister(ctx)
			if err != nil {
				log.Printf("[AuthRegister] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"uid": uid})
		}).
		POST("/callback", func(ctx *gin.Context) {
			res, status, err := controllers.AuthCallback(ctx)
			if err != nil {
				log.Printf("[AuthCallback] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, res)
		}).
		POST("/otp", func(ctx *gin.Context) {
			status, err := controllers.AuthRequestOTP(ctx)
			if err != nil {
				log.Printf("[AuthRequestOTP] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"sent": true})
		}).
		GET("/providers", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{
				"google":   config.OAuthProviderEnabled("google"),
				"facebook": config.OAuthProviderEnabled("facebook"),
				"apple":    config.OAuthProviderEnabled("apple"),
			})
		})

	verified := guest.Group("")
	verified.Use(middlewares.VerifyIdToken)
	verified.
		POST("/login", func(ctx *gin.Context) {
			token, status, err := controllers.AuthLogin(ctx)
			if err != nil {
				log.Printf("[AuthLogin] error: %s\n", err.Error())
				ctx.Status(status)
				return
			}
			if token == nil {
				// MFA challenge headers are already on the response
				ctx.Status(status)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token})
		}).
		POST("/code", func(ctx *gin.Context) {
			code, status, err := controllers.AuthIssueCode(ctx)
			if err != nil {
				log.Printf("[AuthIssueCode] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"code": code})
		})
	return guest
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	boot.InitDb()
	boot.InitScheduler()
	lib.InitWebAuthn(time.Hour, !utils.IsProd())

	go lib.StripeInitialize()
	go boot.InitBroker()

	router := setupRouter()

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization", "X-Device-Name")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(appHost, origin)
			if match {
				return true
			}
			match, _ = regexp.MatchString("app:mobile", origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("visitdate", visitDateValidatorFunc)
	}

	router = maintenanceModeMiddleware(router)

	publicRoutes(router)

	guestAuthRoutes(router)

	oauthRoutes(router)

	stripeWebhookRoute(router)

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		authorized.
			POST("/auth/logout", func(ctx *gin.Context) {
				status, err := controllers.AuthLogout(ctx)
				if err != nil {
					log.Printf("[AuthLogout] error: %s\n", err.Error())
					ctx.JSON(status, gin.H{"error": err.Error()})
					return
				}
				ctx.Status(status)
			}).
			POST("/accounts/verify", func(ctx *gin.Context) {
				status, err := controllers.AccountsVerify(ctx)
				if err != nil {
					log.Printf("[AccountsVerify] error: %s\n", err.Error())
					ctx.JSON(status, gin.H{"error": err.Error()})
					return
				}
				ctx.Status(status)
			})

		if config.PasskeyEnabled() {
			authorized.
				POST("/accounts/passkey/register/start", func(ctx *gin.Context) {
					opts, status, err := controllers.AccountsPasskeyRegisterStart(ctx)
					if err != nil {
						log.Printf("Error on PasskeyRegisterStart: %s\n", err.Error())
						ctx.Status(status)
						return
					}
					ctx.JSON(http.StatusOK, gin.H{"publicKey": opts.Response})
				}).
				POST("/accounts/passkey/register/finish", func(ctx *gin.Context) {
					status, err := controllers.AccountsPasskeyRegisterFinish(ctx)
					if err != nil {
						log.Printf("Error on PasskeyRegisterFinish: %s\n", err.Error())
						ctx.Status(status)
						return
					}
					ctx.Status(http.StatusOK)
				})
		}

		listingHandlers(authorized)
		favoriteHandlers(authorized)
		passHandlers(authorized)
		bookingHandlers(authorized)
		calendarHandlers(authorized)
		userHandlers(authorized)
	}

	if err := router.Run(":9090"); err != nil {
		log.Fatalf("Failed to start server: %s", err)
	}
}
