package device

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// SpiceBJTModel is a translated SPICE .model card for a BJT.
type SpiceBJTModel struct {
	Is  float64 `yaml:"is"`
	Ne  float64 `yaml:"ne"`
	Bf  float64 `yaml:"bf"`
	Br  float64 `yaml:"br"`
	Vaf float64 `yaml:"vaf"`
	Rb  float64 `yaml:"rb"`
	Rc  float64 `yaml:"rc"`
	Re  float64 `yaml:"re"`
	Cje float64 `yaml:"cje"`
	Cjc float64 `yaml:"cjc"`
}

func (m SpiceBJTModel) NVt() float64 { return m.Ne * 0.02585 }

func (m SpiceBJTModel) Params() BJTParams {
	return BJTParams{
		Is:    m.Is,
		NVt:   m.NVt(),
		BetaF: m.Bf,
		BetaR: m.Br,
		Vaf:   m.Vaf,
		Gmin:  1e-12,
		Rb:    m.Rb,
		Rc:    m.Rc,
		Re:    m.Re,
		Cje:   m.Cje,
		Cjc:   m.Cjc,
	}
}

// SpiceDiodeModel is a translated SPICE .model card for a diode.
type SpiceDiodeModel struct {
	Is  float64 `yaml:"is"`
	N   float64 `yaml:"n"`
	Rs  float64 `yaml:"rs"`
	Bv  float64 `yaml:"bv"`
	Ibv float64 `yaml:"ibv"`
}

func (m SpiceDiodeModel) Params() DiodeParams {
	p := DefaultDiodeParams()
	p.Is = m.Is
	p.N = m.N
	p.Bv = m.Bv
	if m.Ibv > 0 {
		p.Ibv = m.Ibv
	}
	return p
}

// ModelLibrary holds named device model cards. Loadable from YAML;
// starts with the built-in audio-path transistors.
type ModelLibrary struct {
	BJT   map[string]SpiceBJTModel   `yaml:"bjt"`
	Diode map[string]SpiceDiodeModel `yaml:"diode"`
}

// BuiltinModels returns the compiled-in model table.
func BuiltinModels() *ModelLibrary {
	return &ModelLibrary{
		BJT: map[string]SpiceBJTModel{
			"BC414C": {Is: 5.911e-15, Ne: 1.0, Bf: 394.1, Br: 10.35, Vaf: 44.95, Rb: 10.0, Rc: 0.5, Re: 0.1},
			// PNP complement of BC414C, used for current mirrors
			"BC416C": {Is: 5.911e-15, Ne: 1.0, Bf: 394.1, Br: 10.35, Vaf: 44.95, Rb: 10.0, Rc: 0.5, Re: 0.1},
			"TIS98":  {Is: 4.872e-15, Ne: 1.0, Bf: 96.00, Br: 6.935, Vaf: 100.0, Rb: 10.0, Rc: 0.5, Re: 0.1, Cje: 10.49e-12, Cjc: 8.866e-12},
			"2N5087": {Is: 7.373e-15, Ne: 1.0, Bf: 923.4, Br: 3.745, Vaf: 80.3, Rb: 10.0, Rc: 0.5, Re: 0.1, Cje: 5.0e-12, Cjc: 14.76e-12},
			"2N3053": {Is: 5.911e-15, Ne: 1.0, Bf: 394.1, Br: 10.35, Vaf: 44.95, Rb: 10.0, Rc: 0.5, Re: 0.1, Cje: 8.882e-12, Cjc: 7.306e-12},
			"2N4036": {Is: 1.0e-14, Ne: 1.0, Bf: 100.0, Br: 1.0, Vaf: 50.0, Rb: 10.0, Rc: 0.5, Re: 0.1, Cje: 10.0e-12, Cjc: 5.0e-12},
		},
		Diode: map[string]SpiceDiodeModel{
			"1N22361": {Is: 2.682e-9, N: 1.836, Rs: 0.6453, Bv: 0.0, Ibv: 1e-3},
			"1N4829":  {Is: 1.0e-9, N: 1.5, Rs: 1.0, Bv: 0.0, Ibv: 1e-3},
			"1N4727":  {Is: 1.0e-9, N: 1.5, Rs: 1.0, Bv: 3.0, Ibv: 1e-3},
		},
	}
}

// LoadModels parses YAML model cards and merges them over the built-in
// table. Cards with a known name replace the built-in entry.
func LoadModels(r io.Reader) (*ModelLibrary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading model cards: %w", err)
	}

	var loaded ModelLibrary
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parsing model cards: %w", err)
	}

	lib := BuiltinModels()
	for name, m := range loaded.BJT {
		lib.BJT[name] = m
	}
	for name, m := range loaded.Diode {
		lib.Diode[name] = m
	}
	return lib, nil
}

// BJTModel looks up a BJT card by name; falls back to a generic device.
func (lib *ModelLibrary) BJTModel(name string) SpiceBJTModel {
	if m, ok := lib.BJT[name]; ok {
		return m
	}
	return SpiceBJTModel{Is: 1e-15, Ne: 1.0, Bf: 100.0, Br: 2.0, Vaf: 100.0}
}

// DiodeModel looks up a diode card by name.
func (lib *ModelLibrary) DiodeModel(name string) (SpiceDiodeModel, bool) {
	m, ok := lib.Diode[name]
	return m, ok
}
