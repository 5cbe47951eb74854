package sim

import (
	"fmt"
	"os"

	"github.com/jakecoffman/cp"
	"github.com/srliao/combatcore/internal/arena"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/combatant"
	"github.com/srliao/combatcore/pkg/element"
	"github.com/srliao/combatcore/pkg/status"
	"gopkg.in/yaml.v2"
)

type Profile struct {
	Label string `yaml:"Label"`
	//Duration in seconds
	Duration  float64 `yaml:"Duration"`
	FrameRate int     `yaml:"FrameRate"`
	FixedRate int     `yaml:"FixedRate"`
	//Seed of 0 picks one from the clock
	Seed int64 `yaml:"Seed"`
	//StopWhenDecided ends the run once only one team is left standing
	StopWhenDecided bool                 `yaml:"StopWhenDecided"`
	Arena           arena.Config         `yaml:"Arena"`
	Combatants      []CombatantProfile   `yaml:"Combatants"`
	Effects         []status.Definition  `yaml:"Effects"`
	Reactions       []element.TableEntry `yaml:"Reactions"`
	Rotation        []ActionItem         `yaml:"Rotation"`
	//Script holds rotation lines; they rank below the Rotation entries
	Script    string           `yaml:"Script"`
	LogConfig combat.LogConfig `yaml:"LogConfig"`
}

type Team string

const (
	TeamPlayer  Team = "player"
	TeamEnemy   Team = "enemy"
	TeamNeutral Team = "neutral"
)

//CombatantProfile is one fighter in a profile. Fields left out keep the
//combatant defaults.
type CombatantProfile struct {
	combatant.Config `yaml:",inline"`

	Team     Team      `yaml:"Team"`
	Position cp.Vector `yaml:"Position"`
	Facing   float64   `yaml:"Facing"`
	//Reach is the distance at which the fighter stops closing in
	Reach     float64       `yaml:"Reach"`
	MoveSpeed float64       `yaml:"MoveSpeed"`
	Statuses  []status.Kind `yaml:"Statuses"`
}

func (c *CombatantProfile) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type raw CombatantProfile
	r := raw{
		Config:    combatant.DefaultConfig(),
		Team:      TeamNeutral,
		Reach:     1.5,
		MoveSpeed: 3,
	}
	if err := unmarshal(&r); err != nil {
		return err
	}
	*c = CombatantProfile(r)
	return nil
}

//ParseProfile decodes a profile and fills in frame rate defaults
func ParseProfile(data []byte) (Profile, error) {
	p := Profile{
		FrameRate: 60,
		FixedRate: 50,
		Arena:     arena.DefaultConfig(),
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing profile: %w", err)
	}
	return p, nil
}

func LoadProfile(path string) (Profile, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile %v: %w", path, err)
	}
	p, err := ParseProfile(source)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %v: %w", path, err)
	}
	return p, nil
}
