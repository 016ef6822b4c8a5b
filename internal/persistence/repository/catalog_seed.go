package repository

import "github.com/hilthontt/spinwheel/internal/domain"

// DefaultCatalog is inserted on startup so add_game can fill in genre and
// platform for common titles. Existing rows are left alone.
func DefaultCatalog() []domain.CatalogGame {
	return []domain.CatalogGame{
		{Name: "Among Us", Genre: "Party", Platform: "Multi"},
		{Name: "Apex Legends", Genre: "Battle Royale", Platform: "Multi"},
		{Name: "Baldur's Gate 3", Genre: "RPG", Platform: "PC"},
		{Name: "Counter-Strike 2", Genre: "Shooter", Platform: "PC"},
		{Name: "Deep Rock Galactic", Genre: "Co-op", Platform: "Multi"},
		{Name: "Dota 2", Genre: "MOBA", Platform: "PC"},
		{Name: "Fall Guys", Genre: "Party", Platform: "Multi"},
		{Name: "Fortnite", Genre: "Battle Royale", Platform: "Multi"},
		{Name: "Helldivers 2", Genre: "Co-op", Platform: "Multi"},
		{Name: "It Takes Two", Genre: "Co-op", Platform: "Multi"},
		{Name: "League of Legends", Genre: "MOBA", Platform: "PC"},
		{Name: "Lethal Company", Genre: "Horror", Platform: "PC"},
		{Name: "Mario Kart 8 Deluxe", Genre: "Racing", Platform: "Switch"},
		{Name: "Minecraft", Genre: "Sandbox", Platform: "Multi"},
		{Name: "Overwatch 2", Genre: "Shooter", Platform: "Multi"},
		{Name: "Phasmophobia", Genre: "Horror", Platform: "PC"},
		{Name: "Rocket League", Genre: "Sports", Platform: "Multi"},
		{Name: "Sea of Thieves", Genre: "Adventure", Platform: "Multi"},
		{Name: "Stardew Valley", Genre: "Simulation", Platform: "Multi"},
		{Name: "Terraria", Genre: "Sandbox", Platform: "Multi"},
		{Name: "Valheim", Genre: "Survival", Platform: "PC"},
		{Name: "Valorant", Genre: "Shooter", Platform: "PC"},
	}
}
