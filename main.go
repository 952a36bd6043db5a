package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"findyourprogram-api/database"
	"findyourprogram-api/handlers"
	"findyourprogram-api/ledger"
	"findyourprogram-api/mailer"
	"findyourprogram-api/middleware"
	"findyourprogram-api/models"
	"findyourprogram-api/payments"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" {
		if err := godotenv.Load(".env.development"); err != nil {
			log.Println("⚠️ Could not load .env.development, using system environment")
		}
	} else {
		if err := godotenv.Load(".env.production"); err != nil {
			log.Println("⚠️ Could not load .env.production, using system environment")
		}
	}

	middleware.LoadSecret()

	mongoURI := os.Getenv("MONGODB_URI")
	dbName := os.Getenv("MONGODB_NAME")

	store, err := database.Connect(mongoURI, dbName)
	if err != nil {
		log.Fatal("Could not connect to MongoDB: ", err)
	}
	defer store.Disconnect(context.Background())

	mail := mailer.FromEnv()

	broker := payments.NewStripeBroker(os.Getenv("STRIPE_SECRET_KEY"))
	donationLedger := ledger.NewCoordinator(store.Donations, store.Payments, broker, models.SourceDonation)
	sponsorshipLedger := ledger.NewCoordinator(store.Sponsorships, store.Payments, broker, models.SourceSponsorship)

	router := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}
	if extra := os.Getenv("ALLOWED_ORIGINS"); extra != "" {
		allowedOrigins = strings.Split(extra, ",")
	}

	router.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		for _, o := range allowedOrigins {
			if o == origin {
				c.Writer.Header().Set("Access-Control-Allow-Origin", o)
				break
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := router.Group("/api")
	{
		api.POST("/register", handlers.RegisterHandler(store.Users))
		api.POST("/login", handlers.LoginHandler(store.Users))
		api.POST("/logout", handlers.LogoutHandler)
		api.GET("/me", handlers.MeHandler(store.Users))

		api.POST("/donations/initiate", handlers.InitiateDonationHandler(donationLedger))
		api.POST("/donations/complete", handlers.CompleteDonationHandler(donationLedger))
		api.GET("/donations/status", handlers.DonationStatusHandler(donationLedger))

		api.POST("/sponsorships/initiate", handlers.InitiateSponsorshipHandler(sponsorshipLedger))
		api.POST("/sponsorships/complete", handlers.CompleteSponsorshipHandler(sponsorshipLedger))
		api.GET("/sponsorships/status", handlers.SponsorshipStatusHandler(sponsorshipLedger))
		api.GET("/sponsorships/active", handlers.ActiveSponsorsHandler(store.Sponsorships))

		api.POST("/tickets", handlers.CreateTicketHandler(store.Tickets))

		api.POST("/forgot", handlers.ForgotPasswordHandler(store.Users, mail))
		api.POST("/reset-password", handlers.ResetPasswordHandler(store.Users))
	}

	user := api.Group("")
	user.Use(middleware.AuthMiddleware())
	{
		user.GET("/favorites", handlers.ListFavoritesHandler(store.Favorites))
		user.POST("/favorites", handlers.AddFavoriteHandler(store.Favorites, store.Programs))
		user.GET("/favorites/:id", handlers.FavoriteStatusHandler(store.Favorites))
		user.DELETE("/favorites/:id", handlers.RemoveFavoriteHandler(store.Favorites))

		user.GET("/history", handlers.ListHistoryHandler(store.SearchResults))
		user.GET("/history/:id", handlers.HistoryDetailHandler(store.SearchResults))

		user.GET("/profile", handlers.GetProfileHandler(store.Users))
		user.PUT("/profile", handlers.UpdateProfileHandler(store.Users))
		user.DELETE("/profile", handlers.DeleteProfileHandler(store.Users))
		user.POST("/profile/password", handlers.UpdatePasswordHandler(store.Users))
	}

	admin := api.Group("")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware(store.Users))
	{
		admin.GET("/donations/list", handlers.ListDonationsHandler(store.Donations))
		admin.GET("/sponsorships/list", handlers.ListSponsorshipsHandler(store.Sponsorships))
		admin.GET("/tickets", handlers.ListTicketsHandler(store.Tickets))
		admin.GET("/tickets/:id", handlers.TicketDetailHandler(store.Tickets, store.TicketUpdates))
		admin.POST("/tickets/:id/updates", handlers.AddTicketUpdateHandler(store.Tickets, store.TicketUpdates))
		admin.PATCH("/tickets/:id/status", handlers.UpdateTicketStatusHandler(store.Tickets, store.TicketUpdates))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Println("INFO: PORT not set, defaulting to " + port)
	}

	fmt.Printf("🚀 Server running in %s mode at http://localhost:%s\n", env, port)
	router.Run(":" + port)
}
