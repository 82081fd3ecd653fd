package server

import (
	"context"
	"fmt"

	accountsservice "hotelbooking/internal/accounts/service"
	roomsrepository "hotelbooking/internal/rooms/repository"
	roomsservice "hotelbooking/internal/rooms/service"
	"hotelbooking/pkg/container"
	"hotelbooking/pkg/model"
)

type catalogRoom struct {
	number   string
	floor    int
	featured bool
	status   string
}

type catalogEntry struct {
	roomType model.RoomType
	rooms    []catalogRoom
}

var catalog = []catalogEntry{
	{
		roomType: model.RoomType{
			Name:         "Standard",
			Description:  "A quiet room with a queen bed and a view of the old town.",
			BasePrice:    12000,
			MaxOccupancy: 2,
			Amenities:    []string{"Wi-Fi", "Air conditioning", "Shower"},
		},
		rooms: []catalogRoom{{number: "101", floor: 1}, {number: "102", floor: 1}, {number: "103", floor: 1, status: model.RoomStatusMaintenance}},
	},
	{
		roomType: model.RoomType{
			Name:         "Deluxe",
			Description:  "A king bed, a sitting area and a balcony over the harbor.",
			BasePrice:    19000,
			MaxOccupancy: 3,
			Amenities:    []string{"Wi-Fi", "Balcony", "Minibar", "Bathtub"},
		},
		rooms: []catalogRoom{{number: "201", floor: 2, featured: true}, {number: "202", floor: 2}},
	},
	{
		roomType: model.RoomType{
			Name:         "Suite",
			Description:  "Two rooms, a terrace and space for the whole family.",
			BasePrice:    32000,
			MaxOccupancy: 5,
			Amenities:    []string{"Wi-Fi", "Terrace", "Kitchenette", "Bathtub", "Sea view"},
		},
		rooms: []catalogRoom{{number: "301", floor: 3, featured: true}},
	},
}

type SeedReport struct {
	RoomTypes    int
	Rooms        int
	AdminCreated bool
}

// Seed loads the demo catalog into an empty store and creates the first
// admin from ADMIN_USERNAME and ADMIN_PASSWORD. Running it again changes
// nothing.
func (s *Server) Seed(ctx context.Context) (SeedReport, error) {
	var report SeedReport
	c := s.container

	types, err := container.Resolve[roomsrepository.RoomTypeRepository](c, KeyRoomTypeRepository)
	if err != nil {
		return report, err
	}
	rooms, err := container.Resolve[roomsservice.RoomService](c, KeyRoomService)
	if err != nil {
		return report, err
	}
	accounts, err := container.Resolve[accountsservice.AccountService](c, KeyAccountService)
	if err != nil {
		return report, err
	}

	existing, err := types.FindAll(ctx)
	if err != nil {
		return report, fmt.Errorf("list room types: %w", err)
	}
	if len(existing) == 0 {
		for _, entry := range catalog {
			rt := entry.roomType
			if err := types.Create(ctx, &rt); err != nil {
				return report, fmt.Errorf("create room type %s: %w", rt.Name, err)
			}
			report.RoomTypes++

			for _, r := range entry.rooms {
				status := r.status
				if status == "" {
					status = model.RoomStatusAvailable
				}
				_, err := rooms.Create(ctx, &model.RoomInput{
					RoomTypeID:  rt.ID,
					RoomNumber:  r.number,
					Floor:       r.floor,
					Status:      status,
					Featured:    r.featured,
					Description: rt.Description,
				})
				if err != nil {
					return report, fmt.Errorf("create room %s: %w", r.number, err)
				}
				report.Rooms++
			}
		}
	} else {
		s.cfg.Log.Info("Catalog already present, skipping", "room_types", len(existing))
	}

	if s.cfg.AdminPassword == "" {
		s.cfg.Log.Warn("ADMIN_PASSWORD is not set, no admin account created")
		return report, nil
	}
	report.AdminCreated, err = accounts.EnsureAdmin(ctx, &model.Admin{
		Username: s.cfg.AdminUsername,
		Email:    s.cfg.AdminEmail,
		Name:     "Hotel Manager",
		Role:     model.AdminRoleManager,
	}, s.cfg.AdminPassword)
	if err != nil {
		return report, err
	}
	return report, nil
}
