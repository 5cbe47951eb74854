package sim

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/srliao/combatcore/internal/rotation"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/posture"
	"github.com/srliao/combatcore/pkg/status"
)

type ActionType string

const (
	ActionLight   ActionType = "light"
	ActionHeavy   ActionType = "heavy"
	ActionCharge  ActionType = "charge"
	ActionBlock   ActionType = "block"
	ActionParry   ActionType = "parry"
	ActionUnblock ActionType = "unblock"
	ActionDodge   ActionType = "dodge"
	ActionWait    ActionType = "wait"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionLight, ActionHeavy, ActionCharge, ActionBlock, ActionParry, ActionUnblock, ActionDodge, ActionWait:
		return true
	}
	return false
}

//ActionItem is one entry of a priority list; each frame a fighter runs the
//first ready entry whose condition holds
type ActionItem struct {
	Combatant string     `yaml:"Combatant"`
	Action    ActionType `yaml:"Action"`
	//Hold is the charge time for charge and the idle time for wait
	Hold            float64 `yaml:"Hold"`
	ConditionType   string  `yaml:"ConditionType"`
	ConditionTarget string  `yaml:"ConditionTarget"`
	ConditionBool   bool    `yaml:"ConditionBool"`
	ConditionFloat  float64 `yaml:"ConditionFloat"`
	//Delay is how long the fighter waits after running this action
	Delay float64 `yaml:"Delay"`
	//Cond comes from a rotation script and must hold as well
	Cond *rotation.ExprTreeNode `yaml:"-"`
}

//parseScript turns rotation script lines into priority list entries
func parseScript(name, src string) ([]ActionItem, error) {
	actions, err := rotation.New(name, src).Parse()
	if err != nil {
		return nil, err
	}
	r := make([]ActionItem, 0, len(actions))
	for _, a := range actions {
		t := ActionType(a.Name)
		if !t.Valid() {
			return nil, fmt.Errorf("line %v: invalid action %v", a.Line(), a.Name)
		}
		r = append(r, ActionItem{
			Combatant: a.Target,
			Action:    t,
			Hold:      a.Param,
			Delay:     a.Delay,
			Cond:      a.Conditions,
		})
	}
	return r, nil
}

func (s *Sim) findNextAction(f *fighter) (ActionItem, error) {
	for _, a := range f.rotation {
		if s.actionReady(f, a) && s.conditionsOk(f, a) {
			return a, nil
		}
	}
	return ActionItem{}, errors.New("no action available")
}

func (s *Sim) actionReady(f *fighter, a ActionItem) bool {
	m := f.c.Machine
	switch a.Action {
	case ActionLight, ActionHeavy:
		return m.CanAttack() && f.inReach()
	case ActionCharge:
		return m.Is(posture.Idle) && f.inReach()
	case ActionBlock:
		return m.CanBlock()
	case ActionParry:
		return m.CanParry()
	case ActionUnblock:
		return m.Is(posture.Blocking) || m.Is(posture.Parrying)
	case ActionDodge:
		return m.CanDodge()
	case ActionWait:
		return m.Is(posture.Idle)
	}
	return false
}

func (s *Sim) conditionsOk(f *fighter, a ActionItem) bool {
	return s.legacyCondition(f, a) && a.Cond.Eval(s.env(f))
}

func (s *Sim) legacyCondition(f *fighter, a ActionItem) bool {
	t := f.target
	switch a.ConditionType {
	case "":
		return true
	case "status":
		return f.c.Status.Has(status.Kind(a.ConditionTarget)) == a.ConditionBool
	case "target status":
		return t != nil && t.c.Status.Has(status.Kind(a.ConditionTarget)) == a.ConditionBool
	case "target element":
		if t == nil {
			return false
		}
		e, _ := t.c.ElementalCharge()
		return (e == combat.EleType(a.ConditionTarget)) == a.ConditionBool
	case "target posture":
		return t != nil && t.c.Machine.Is(posture.Posture(a.ConditionTarget)) == a.ConditionBool
	case "health lt":
		return f.c.Health()/f.c.MaxHealth() < a.ConditionFloat
	}
	s.Log.Debugw("unknown condition type", "combatant", f.c.Name(), "condition", a.ConditionType)
	return false
}

//env resolves script fields for f; a leading "target" reads f's target
func (s *Sim) env(f *fighter) rotation.Env {
	return func(fields []string) (string, bool) {
		subject := f
		if len(fields) > 0 && fields[0] == "target" {
			subject = f.target
			fields = fields[1:]
		}
		if subject == nil || len(fields) == 0 {
			return "", false
		}
		c := subject.c
		switch fields[0] {
		case "health":
			return strconv.FormatFloat(c.Health()/c.MaxHealth(), 'f', -1, 64), true
		case "hp":
			return strconv.FormatFloat(c.Health(), 'f', -1, 64), true
		case "posture":
			return string(c.Machine.Posture()), true
		case "element":
			e, _ := c.ElementalCharge()
			return e.String(), true
		case "gauge":
			_, g := c.ElementalCharge()
			return strconv.FormatFloat(g, 'f', -1, 64), true
		case "poise":
			return strconv.FormatFloat(c.Poise.Current(), 'f', -1, 64), true
		case "combo":
			return strconv.Itoa(c.Machine.ComboIndex()), true
		case "distance":
			if f.target == nil {
				return "", false
			}
			return strconv.FormatFloat(f.c.Position().Distance(f.target.c.Position()), 'f', -1, 64), true
		case "status":
			if len(fields) < 2 {
				return "", false
			}
			if c.Status.Has(status.Kind(fields[1])) {
				return "1", true
			}
			return "0", true
		}
		return "", false
	}
}

func (s *Sim) execute(f *fighter, a ActionItem) {
	m := f.c.Machine
	s.Log.Infof("[%v] %v executing %v", s.Frame(), f.c.Name(), a.Action)
	switch a.Action {
	case ActionLight:
		m.LightAttack()
	case ActionHeavy:
		m.HeavyAttack()
	case ActionCharge:
		if m.StartCharging() {
			f.hold = a.Hold
		}
	case ActionBlock:
		m.StartBlock()
	case ActionParry:
		m.TryParry()
	case ActionUnblock:
		m.EndBlock()
	case ActionDodge:
		dir := f.c.Position().Sub(f.targetPos()).Normalize()
		m.Dodge(dir)
	case ActionWait:
		f.wait = a.Hold
	}
	if a.Delay > f.wait {
		f.wait = a.Delay
	}
}
