package combat

//EleType is a string representing the damage kind carried by a hit i.e. fire/water/etc...
type EleType string

//physical, the 8 elemental kinds, and true damage which ignores affinities
const (
	Physical  EleType = "physical"
	Fire      EleType = "fire"
	Water     EleType = "water"
	Ice       EleType = "ice"
	Lightning EleType = "lightning"
	Wind      EleType = "wind"
	Earth     EleType = "earth"
	Poison    EleType = "poison"
	Holy      EleType = "holy"
	True      EleType = "true"
	NoElement EleType = ""
)

var opposed = map[EleType]EleType{
	Fire:      Ice,
	Ice:       Fire,
	Water:     Lightning,
	Lightning: Water,
	Wind:      Earth,
	Earth:     Wind,
	Poison:    Holy,
	Holy:      Poison,
}

//Elemental returns true for the 8 kinds that can be imprinted on a target
func (e EleType) Elemental() bool {
	_, ok := opposed[e]
	return ok
}

//Opposes returns true if e and o are a defined opposed pair
func (e EleType) Opposes(o EleType) bool {
	v, ok := opposed[e]
	return ok && v == o
}

func (e EleType) String() string {
	if e == NoElement {
		return "none"
	}
	return string(e)
}
