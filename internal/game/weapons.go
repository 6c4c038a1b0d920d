package game

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Bullet identity tags handed to the spawn provider
const (
	PlayerBulletTag = "PlayerBullet"
	EnemyBulletTag  = "EnemyBullet"
)

// WeaponProfile is static weapon configuration shared by the live player and echoes
type WeaponProfile struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	FireRate       float64 `json:"fireRate"`    // shots per second
	BulletCount    int     `json:"bulletCount"` // projectiles per shot
	SpreadAngle    float64 `json:"spreadAngle"` // degrees, symmetric around aim
	Damage         float64 `json:"damage"`
	BulletSpeed    float64 `json:"bulletSpeed"` // units per second
	ShakeIntensity float64 `json:"shakeIntensity"`
	BulletTag      string  `json:"bulletTag"`
	ShootSound     SoundID `json:"shootSound"`
	LoadSound      SoundID `json:"loadSound"`
	Color          string  `json:"color"`
}

// Cooldown returns the minimum seconds between shots
func (w WeaponProfile) Cooldown() float64 {
	if w.FireRate <= 0 {
		return 0
	}
	return 1.0 / w.FireRate
}

// Arsenal is the ordered set of weapons a loop can draw from.
// Loop records store an index into it.
type Arsenal []WeaponProfile

// DefaultArsenal returns the stock loadout
func DefaultArsenal() Arsenal {
	return Arsenal{
		{
			ID:             "pistol",
			Name:           "PISTOL",
			FireRate:       5,
			BulletCount:    1,
			SpreadAngle:    0,
			Damage:         1,
			BulletSpeed:    20,
			ShakeIntensity: 0.2,
			BulletTag:      PlayerBulletTag,
			ShootSound:     SoundShootPistol,
			LoadSound:      SoundLoadPistol,
			Color:          "#ffeb3b",
		},
		{
			ID:             "spreadshooter",
			Name:           "SPREADSHOOTER",
			FireRate:       1.5,
			BulletCount:    5,
			SpreadAngle:    40,
			Damage:         1,
			BulletSpeed:    16,
			ShakeIntensity: 0.45,
			BulletTag:      PlayerBulletTag,
			ShootSound:     SoundShootSpreadshooter,
			LoadSound:      SoundLoadSpreadshooter,
			Color:          "#ff9800",
		},
		{
			ID:             "smg",
			Name:           "SMG",
			FireRate:       12,
			BulletCount:    1,
			SpreadAngle:    12,
			Damage:         1,
			BulletSpeed:    24,
			ShakeIntensity: 0.1,
			BulletTag:      PlayerBulletTag,
			ShootSound:     SoundShootSMG,
			LoadSound:      SoundLoadSMG,
			Color:          "#00bcd4",
		},
	}
}

// Get returns the weapon at index. ok is false when the index is out of range.
func (a Arsenal) Get(index int) (WeaponProfile, bool) {
	if index < 0 || index >= len(a) {
		return WeaponProfile{}, false
	}
	return a[index], true
}

// GetOrFirst returns the weapon at index, falling back to the first profile.
// Callers must make sure the arsenal is non-empty.
func (a Arsenal) GetOrFirst(index int) (WeaponProfile, bool) {
	if w, ok := a.Get(index); ok {
		return w, true
	}
	return a[0], false
}

// Validate reports configuration errors that prevent a loop from starting
func (a Arsenal) Validate() error {
	if len(a) == 0 {
		return ErrEmptyArsenal
	}
	for i, w := range a {
		if w.BulletCount < 1 {
			return fmt.Errorf("weapon %d (%s): bullet count must be >= 1", i, w.ID)
		}
		if w.FireRate <= 0 {
			return fmt.Errorf("weapon %d (%s): fire rate must be > 0", i, w.ID)
		}
	}
	return nil
}

// LoadArsenal reads an arsenal override from a JSON file shaped as
// {"weapons": [{...}, ...]}. Missing fields fall back to pistol values.
func LoadArsenal(path string) (Arsenal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read arsenal %s: %w", path, err)
	}
	return ParseArsenal(data)
}

// ParseArsenal parses arsenal JSON bytes
func ParseArsenal(data []byte) (Arsenal, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("arsenal: invalid JSON")
	}
	list := gjson.GetBytes(data, "weapons")
	if !list.IsArray() {
		return nil, fmt.Errorf("arsenal: missing weapons array")
	}

	base := DefaultArsenal()[0]
	var arsenal Arsenal
	list.ForEach(func(_, v gjson.Result) bool {
		w := base
		if r := v.Get("id"); r.Exists() {
			w.ID = r.String()
		}
		if r := v.Get("name"); r.Exists() {
			w.Name = r.String()
		}
		if r := v.Get("fireRate"); r.Exists() {
			w.FireRate = r.Float()
		}
		if r := v.Get("bulletCount"); r.Exists() {
			w.BulletCount = int(r.Int())
		}
		if r := v.Get("spreadAngle"); r.Exists() {
			w.SpreadAngle = r.Float()
		}
		if r := v.Get("damage"); r.Exists() {
			w.Damage = r.Float()
		}
		if r := v.Get("bulletSpeed"); r.Exists() {
			w.BulletSpeed = r.Float()
		}
		if r := v.Get("shakeIntensity"); r.Exists() {
			w.ShakeIntensity = r.Float()
		}
		if r := v.Get("bulletTag"); r.Exists() {
			w.BulletTag = r.String()
		}
		if r := v.Get("shootSound"); r.Exists() {
			w.ShootSound = SoundID(r.String())
		}
		if r := v.Get("loadSound"); r.Exists() {
			w.LoadSound = SoundID(r.String())
		}
		if r := v.Get("color"); r.Exists() {
			w.Color = r.String()
		}
		arsenal = append(arsenal, w)
		return true
	})

	if err := arsenal.Validate(); err != nil {
		return nil, err
	}
	return arsenal, nil
}
