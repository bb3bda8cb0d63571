package main

import (
	"log"
	"os"

	"stayhub/internal/database"
	"stayhub/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "stayhub.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Hotel{},
		&domain.Room{},
		&domain.Booking{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM rooms")
	db.Exec("DELETE FROM hotels")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")
	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:         "admin@stayhub.local",
		PasswordHash:  string(adminHash),
		Role:          domain.RoleAdmin,
		Name:          "Administrator",
		EmailVerified: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatal("create admin failed:", err)
	}

	customerHash, _ := bcrypt.GenerateFromPassword([]byte("customer123"), bcrypt.DefaultCost)
	customer := domain.User{
		Email:         "customer@stayhub.local",
		PasswordHash:  string(customerHash),
		Role:          domain.RoleCustomer,
		Name:          "Demo Customer",
		EmailVerified: true,
	}
	if err := db.Create(&customer).Error; err != nil {
		log.Fatal("create customer failed:", err)
	}

	log.Println("Creating hotels and rooms...")
	hotel := domain.Hotel{
		Name:    "Riverside Grand",
		Address: "12 Riverside Ave",
		City:    "Hanoi",
		Stars:   4,
	}
	if err := db.Create(&hotel).Error; err != nil {
		log.Fatal("create hotel failed:", err)
	}

	rooms := []domain.Room{
		{HotelID: hotel.ID, Number: "101", Capacity: 2, PricePerNight: 1000000, Status: domain.RoomAvailable},
		{HotelID: hotel.ID, Number: "102", Capacity: 2, PricePerNight: 1200000, Status: domain.RoomAvailable},
		{HotelID: hotel.ID, Number: "201", Capacity: 4, PricePerNight: 2000000, Status: domain.RoomMaintenance},
	}
	for i := range rooms {
		if err := db.Create(&rooms[i]).Error; err != nil {
			log.Fatal("create room failed:", err)
		}
	}

	log.Printf("Seed completed: admin=%s customer=%s hotel=%s rooms=%d",
		admin.Email, customer.Email, hotel.Name, len(rooms))
}
