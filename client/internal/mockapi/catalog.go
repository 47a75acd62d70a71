package mockapi

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"NarcissusTCG/client/internal/api"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog e' il seed del backend finto: carte, pacchetti, ricette.
type Catalog struct {
	StartByte   int64         `yaml:"start_byte"`
	StartLevel  int           `yaml:"start_level"`
	MaxTradeDay int           `yaml:"max_trade_day"`
	Packages    []PackageSeed `yaml:"packages"`
	Cards       []CardSeed    `yaml:"cards"`
	Recipes     []RecipeSeed  `yaml:"recipes"`
	Decompose   []RecipeSeed  `yaml:"decompose"`
	Starter     []Stack       `yaml:"starter"`
}

type PackageSeed struct {
	Name  string `yaml:"name"`
	Price int64  `yaml:"price"`
}

type CardSeed struct {
	CardID      int64  `yaml:"card_id"`
	Name        string `yaml:"name"`
	Rarity      string `yaml:"rarity"`
	Package     string `yaml:"package"`
	UnlockLevel int    `yaml:"unlock_level"`
	Image       string `yaml:"image"`
	Description string `yaml:"description"`
}

type RecipeSeed struct {
	CardID    int64   `yaml:"card_id"`
	Materials []Stack `yaml:"materials"`
}

type Stack struct {
	CardID int64 `yaml:"card_id"`
	Number int   `yaml:"number"`
}

// DefaultCatalog ritorna il catalogo incorporato nel binario.
func DefaultCatalog() (Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog legge il catalogo da file; path vuoto usa quello incorporato.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

func (c Catalog) validate() error {
	if len(c.Cards) == 0 {
		return errors.New("catalog has no cards")
	}
	ids := make(map[int64]bool, len(c.Cards))
	for _, card := range c.Cards {
		if ids[card.CardID] {
			return fmt.Errorf("duplicate card_id %d", card.CardID)
		}
		ids[card.CardID] = true
	}
	check := func(kind string, recipes []RecipeSeed) error {
		for _, r := range recipes {
			if !ids[r.CardID] {
				return fmt.Errorf("%s for unknown card_id %d", kind, r.CardID)
			}
			for _, m := range r.Materials {
				if !ids[m.CardID] || m.Number <= 0 {
					return fmt.Errorf("%s %d: invalid material %d", kind, r.CardID, m.CardID)
				}
			}
		}
		return nil
	}
	if err := check("recipe", c.Recipes); err != nil {
		return err
	}
	return check("decompose", c.Decompose)
}

func (c CardSeed) card() api.Card {
	return api.Card{
		CardID:      c.CardID,
		Name:        c.Name,
		Image:       c.Image,
		Rarity:      c.Rarity,
		Package:     c.Package,
		UnlockLevel: c.UnlockLevel,
		Description: c.Description,
	}
}

func materials(stacks []Stack) []api.Material {
	out := make([]api.Material, 0, len(stacks))
	for _, s := range stacks {
		out = append(out, api.Material{CardID: s.CardID, Number: s.Number})
	}
	return out
}
