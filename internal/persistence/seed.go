package persistence

import (
	"time"

	"github.com/example/academigold/internal/booking"
)

// PasswordHasher hashes plain-text passwords for seeded accounts.
type PasswordHasher func(password string) (string, error)

// DefaultSeed returns the records used when a collection has never been
// stored. Seed passwords are hashed with hash; a nil hasher leaves them empty,
// which disables login for the seeded accounts.
func DefaultSeed(hash PasswordHasher, now time.Time) Dataset {
	created := now.UTC()

	hashOrEmpty := func(password string) string {
		if hash == nil {
			return ""
		}
		hashed, err := hash(password)
		if err != nil {
			return ""
		}
		return hashed
	}

	users := []User{
		{
			ID:           1,
			Name:         "João Silva",
			Email:        "admin@academigold.com",
			PasswordHash: hashOrEmpty("admin123"),
			Role:         "admin",
			CreatedAt:    created,
		},
		{
			ID:           2,
			Name:         "Maria Santos",
			Email:        "professor@academigold.com",
			PasswordHash: hashOrEmpty("prof123"),
			Role:         "professor",
			Department:   "Ciência da Computação",
			CreatedAt:    created,
		},
	}

	weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	fullDay := concatSlots(booking.HourRange(7, 12), booking.HourRange(13, 18), booking.HourRange(19, 22))
	dayShift := concatSlots(booking.HourRange(7, 12), booking.HourRange(13, 18))

	lab01 := booking.UniformSchedule(fullDay, weekdays...)
	lab01[time.Saturday] = booking.HourRange(8, 12)

	spaces := []Space{
		{
			ID:          1,
			Code:        "LAB01",
			Name:        "Laboratório de Informática 1",
			Description: "Laboratório com 30 computadores para aulas práticas",
			Capacity:    30,
			Location:    "Bloco A - 1º Andar",
			Status:      "active",
			Type:        "laboratory",
			Software:    []string{"VS Code", "Python", "Node.js", "MySQL"},
			Schedule:    lab01.Labels(),
			CreatedAt:   created,
		},
		{
			ID:          2,
			Code:        "LAB02",
			Name:        "Laboratório de Redes",
			Description: "Laboratório equipado para aulas de redes de computadores",
			Capacity:    25,
			Location:    "Bloco A - 2º Andar",
			Status:      "active",
			Type:        "laboratory",
			Software:    []string{"Cisco Packet Tracer", "Wireshark", "GNS3"},
			Schedule:    booking.UniformSchedule(dayShift, weekdays...).Labels(),
			CreatedAt:   created,
		},
		{
			ID:          3,
			Code:        "SALA101",
			Name:        "Sala de Aula 101",
			Description: "Sala de aula com projetor e quadro interativo",
			Capacity:    40,
			Location:    "Bloco B - Térreo",
			Status:      "inactive",
			Type:        "classroom",
			Software:    []string{},
			Schedule:    booking.UniformSchedule(fullDay, weekdays...).Labels(),
			CreatedAt:   created,
		},
	}

	approvedBy := int64(1)
	approvedAt := created
	software := []SoftwareRequest{
		{
			ID:           1,
			Name:         "Visual Studio Code",
			Version:      "1.85.0",
			Description:  "Editor de código para desenvolvimento",
			Category:     "Desenvolvimento",
			Type:         "free",
			Status:       "approved",
			RequestedBy:  2,
			RequestDate:  created,
			ApprovedDate: &approvedAt,
			ApprovedBy:   &approvedBy,
		},
		{
			ID:          2,
			Name:        "Adobe Photoshop",
			Version:     "2024",
			Description: "Software para edição de imagens",
			Category:    "Design",
			Type:        "proprietary",
			Status:      "pending",
			RequestedBy: 2,
			RequestDate: created,
		},
	}

	monday := booking.NewDate(2024, time.September, 9)
	wednesday := monday.AddDays(2)
	completedAt := created
	reservations := []Reservation{
		{
			ID:          1,
			SpaceID:     1,
			UserID:      2,
			Date:        monday,
			Hours:       booking.HourRange(7, 12),
			Purpose:     "Aula de Programação Web",
			Status:      "completed",
			CreatedAt:   created,
			CompletedAt: &completedAt,
		},
		{
			ID:          2,
			SpaceID:     2,
			UserID:      2,
			Date:        monday,
			Hours:       booking.HourRange(13, 18),
			Purpose:     "Aula de Redes de Computadores",
			Status:      "completed",
			CreatedAt:   created,
			CompletedAt: &completedAt,
		},
		{
			ID:          3,
			SpaceID:     1,
			UserID:      2,
			Date:        wednesday,
			Hours:       booking.HourRange(7, 12),
			Purpose:     "Laboratório de Banco de Dados",
			Status:      "completed",
			CreatedAt:   created,
			CompletedAt: &completedAt,
		},
	}

	return Dataset{Users: users, Spaces: spaces, Software: software, Reservations: reservations}
}

func concatSlots(groups ...[]booking.Slot) []booking.Slot {
	var out []booking.Slot
	for _, group := range groups {
		out = append(out, group...)
	}
	return out
}
