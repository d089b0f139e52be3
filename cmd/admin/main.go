package main

import (
	"fmt"
	"log"
	"os"

	"github.com/olegdemchenko/chat-service/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "room":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin room <room_id>")
			os.Exit(1)
		}
		if err := showRoom(storageSvc, os.Args[2]); err != nil {
			log.Fatalf("Error inspecting room: %v", err)
		}
	case "user-rooms":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin user-rooms <user_id>")
			os.Exit(1)
		}
		if err := showUserRooms(storageSvc, os.Args[2]); err != nil {
			log.Fatalf("Error listing rooms: %v", err)
		}
	case "purge-room":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin purge-room <room_id>")
			os.Exit(1)
		}
		roomID := os.Args[2]
		if err := storageSvc.DeleteRoom(roomID); err != nil {
			log.Fatalf("Error purging room: %v", err)
		}
		fmt.Printf("Room %s and its messages have been deleted.\n", roomID)
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func showRoom(s storage.Storage, roomID string) error {
	room, err := s.GetRoomByID(roomID)
	if err != nil {
		return err
	}
	if room == nil {
		fmt.Println("Room not found.")
		return nil
	}
	count, err := s.CountMessages(roomID)
	if err != nil {
		return err
	}
	fmt.Printf("Room %s\n  participants: %v\n  active: %v\n  messages: %d\n",
		room.RoomID, []string(room.Participants), []string(room.ActiveParticipants), count)
	return nil
}

func showUserRooms(s storage.Storage, userID string) error {
	rooms, err := s.GetUserRooms(userID)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		fmt.Printf("%s  active: %v\n", room.RoomID, []string(room.ActiveParticipants))
	}
	fmt.Printf("%d room(s).\n", len(rooms))
	return nil
}
