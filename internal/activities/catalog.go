package activities

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

type Shape string

const (
	TimeOnly         Shape = "time_only"
	NumericValue     Shape = "numeric_value"
	DurationRequired Shape = "duration_required"
	DurationOptional Shape = "duration_optional"
)

// Fields names the daily_logs columns an activity reads and writes.
type Fields struct {
	Start   string `yaml:"start,omitempty" json:"start,omitempty"`
	End     string `yaml:"end,omitempty" json:"end,omitempty"`
	Value   string `yaml:"value,omitempty" json:"value,omitempty"`
	Note    string `yaml:"note,omitempty" json:"note,omitempty"`
	Skip    string `yaml:"skip,omitempty" json:"skip,omitempty"`
	Delta   string `yaml:"delta,omitempty" json:"delta,omitempty"`
	Quality string `yaml:"quality,omitempty" json:"quality,omitempty"`
}

type Definition struct {
	ID            string `yaml:"id" json:"id"`
	Name          string `yaml:"name" json:"name"`
	Icon          string `yaml:"icon,omitempty" json:"icon,omitempty"`
	Shape         Shape  `yaml:"shape" json:"shape"`
	Order         int    `yaml:"order" json:"order"`
	Optional      bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
	HasNotes      bool   `yaml:"has_notes,omitempty" json:"hasNotes,omitempty"`
	TargetMinutes *int   `yaml:"target_minutes,omitempty" json:"target,omitempty"`
	MarksWakeUp   bool   `yaml:"marks_wake_up,omitempty" json:"-"`
	Fields        Fields `yaml:"fields" json:"fields"`
}

func (d Definition) IsDuration() bool {
	return d.Shape == DurationRequired || d.Shape == DurationOptional
}

func (d Definition) SupportsSkip() bool       { return d.Fields.Skip != "" }
func (d Definition) TracksDelta() bool        { return d.Fields.Delta != "" }
func (d Definition) TracksSleepQuality() bool { return d.Fields.Quality != "" }

type ColumnKind int

const (
	KindTime ColumnKind = iota
	KindNumber
	KindText
	KindFlag
)

// Column is one persisted slot declared by the catalog.
type Column struct {
	Name string
	Kind ColumnKind
}

// Columns lists the persisted slots of the activity in a stable order.
func (d Definition) Columns() []Column {
	var cols []Column
	add := func(name string, kind ColumnKind) {
		if name != "" {
			cols = append(cols, Column{Name: name, Kind: kind})
		}
	}
	add(d.Fields.Start, KindTime)
	add(d.Fields.End, KindTime)
	if d.Shape == TimeOnly {
		add(d.Fields.Value, KindTime)
	} else {
		add(d.Fields.Value, KindNumber)
	}
	add(d.Fields.Note, KindText)
	add(d.Fields.Skip, KindFlag)
	add(d.Fields.Delta, KindNumber)
	add(d.Fields.Quality, KindNumber)
	return cols
}

var (
	columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	reservedColumns = map[string]bool{
		"id":               true,
		"date":             true,
		"completed":        true,
		"total_duration":   true,
		"total_gap_time":   true,
		"routine_end_time": true,
		"created_at":       true,
		"updated_at":       true,
	}
)

func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("activity id is required")
	}
	if d.Name == "" {
		return fmt.Errorf("activity %q: name is required", d.ID)
	}
	f := d.Fields
	switch d.Shape {
	case TimeOnly:
		if f.Value == "" || f.Start != "" || f.End != "" {
			return fmt.Errorf("activity %q: time_only needs exactly a value field", d.ID)
		}
		if f.Skip != "" || f.Delta != "" {
			return fmt.Errorf("activity %q: time_only cannot declare skip or delta", d.ID)
		}
	case NumericValue:
		if f.Value == "" || f.Start != "" || f.End != "" {
			return fmt.Errorf("activity %q: numeric_value needs exactly a value field", d.ID)
		}
		if f.Skip != "" || f.Quality != "" {
			return fmt.Errorf("activity %q: numeric_value cannot declare skip or quality", d.ID)
		}
	case DurationRequired, DurationOptional:
		if f.Start == "" || f.End == "" || f.Value != "" {
			return fmt.Errorf("activity %q: %s needs start and end fields and no value", d.ID, d.Shape)
		}
		if f.Delta != "" || f.Quality != "" {
			return fmt.Errorf("activity %q: %s cannot declare delta or quality", d.ID, d.Shape)
		}
	default:
		return fmt.Errorf("activity %q: unknown shape %q", d.ID, d.Shape)
	}
	if d.HasNotes != (f.Note != "") {
		return fmt.Errorf("activity %q: has_notes and the note field must agree", d.ID)
	}
	if d.MarksWakeUp && d.Shape != TimeOnly {
		return fmt.Errorf("activity %q: only time_only activities can mark the wake-up", d.ID)
	}
	for _, col := range d.Columns() {
		if !columnPattern.MatchString(col.Name) {
			return fmt.Errorf("activity %q: invalid column name %q", d.ID, col.Name)
		}
		if reservedColumns[col.Name] {
			return fmt.Errorf("activity %q: column %q is reserved", d.ID, col.Name)
		}
	}
	return nil
}

// Catalog is the ordered, immutable list of activity definitions.
type Catalog struct {
	defs []Definition
	byID map[string]int
}

func New(defs []Definition) (*Catalog, error) {
	sorted := make([]Definition, len(defs))
	copy(sorted, defs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	c := &Catalog{defs: sorted, byID: make(map[string]int, len(sorted))}
	orders := make(map[int]string, len(sorted))
	columns := make(map[string]string)
	for i, d := range sorted {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate activity id %q", d.ID)
		}
		if other, dup := orders[d.Order]; dup {
			return nil, fmt.Errorf("activities %q and %q share order %d", other, d.ID, d.Order)
		}
		for _, col := range d.Columns() {
			if other, dup := columns[col.Name]; dup {
				return nil, fmt.Errorf("activities %q and %q share column %q", other, d.ID, col.Name)
			}
			columns[col.Name] = d.ID
		}
		c.byID[d.ID] = i
		orders[d.Order] = d.ID
	}
	return c, nil
}

func MustNew(defs []Definition) *Catalog {
	c, err := New(defs)
	if err != nil {
		panic(err)
	}
	return c
}

type catalogFile struct {
	Activities []Definition `yaml:"activities"`
}

// Load reads a catalog from a YAML file with a top-level "activities" list.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Activities) == 0 {
		return nil, fmt.Errorf("catalog %s declares no activities", path)
	}
	return New(file.Activities)
}

// All returns the definitions in catalog order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

func (c *Catalog) Get(id string) (Definition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

func (c *Catalog) Required() []Definition {
	return c.filter(func(d Definition) bool { return !d.Optional })
}

func (c *Catalog) Optional() []Definition {
	return c.filter(func(d Definition) bool { return d.Optional })
}

// WithDuration returns the start/end activities sorted by ordinal.
func (c *Catalog) WithDuration() []Definition {
	return c.filter(Definition.IsDuration)
}

// WakeUp returns the activity whose time is the day's wake-up timestamp.
func (c *Catalog) WakeUp() (Definition, bool) {
	return c.first(func(d Definition) bool { return d.MarksWakeUp })
}

// Weight returns the numeric activity that tracks a delta between days.
func (c *Catalog) Weight() (Definition, bool) {
	return c.first(func(d Definition) bool { return d.Shape == NumericValue && d.TracksDelta() })
}

// Columns lists every persisted slot of every activity.
func (c *Catalog) Columns() []Column {
	var cols []Column
	for _, d := range c.defs {
		cols = append(cols, d.Columns()...)
	}
	return cols
}

func (c *Catalog) filter(keep func(Definition) bool) []Definition {
	var out []Definition
	for _, d := range c.defs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func (c *Catalog) first(match func(Definition) bool) (Definition, bool) {
	for _, d := range c.defs {
		if match(d) {
			return d, true
		}
	}
	return Definition{}, false
}
