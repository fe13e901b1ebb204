package layout

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bft-labs/tetherbooth/internal/domain"
)

//go:embed layouts.yaml
var builtinYAML []byte

// DefaultKey is the layout used when a table does not name one.
const DefaultKey = "full_v4a"

// Table is the raw, unvalidated layout data.
type Table struct {
	Default string                   `yaml:"default"`
	Layouts map[string][]domain.Slot `yaml:"layouts"`
}

// ParseTable decodes a YAML layout table.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse layouts: %w", err)
	}
	if t.Default == "" {
		t.Default = DefaultKey
	}
	return t, nil
}

// BuiltinTable returns the embedded layout table.
func BuiltinTable() Table {
	t, err := ParseTable(builtinYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// Registry is an immutable, validated map of layout key to slots.
type Registry struct {
	layouts    map[string]domain.SlotLayout
	defaultKey string
}

// New validates t and builds a Registry. Every violation is reported in the
// returned error, which wraps domain.ErrInvalidLayout.
func New(t Table) (*Registry, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}
	r := &Registry{
		layouts:    make(map[string]domain.SlotLayout, len(t.Layouts)),
		defaultKey: t.Default,
	}
	for key, slots := range t.Layouts {
		w, h := CanvasSize(key)
		r.layouts[key] = domain.SlotLayout{
			Key:    key,
			Width:  w,
			Height: h,
			Slots:  append([]domain.Slot(nil), slots...),
		}
	}
	return r, nil
}

// Builtin returns a Registry over the embedded table.
func Builtin() *Registry {
	r, err := New(BuiltinTable())
	if err != nil {
		panic(err)
	}
	return r
}

// LoadFile builds a Registry from a YAML file. An empty path selects the
// embedded table.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return New(BuiltinTable())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layouts: %w", err)
	}
	t, err := ParseTable(b)
	if err != nil {
		return nil, err
	}
	return New(t)
}

// CanvasSize returns the canonical canvas for key. The variant is the text
// after the last underscore; a variant starting with "h" is landscape.
func CanvasSize(key string) (width, height int) {
	variant := key
	if i := strings.LastIndex(key, "_"); i >= 0 {
		variant = key[i+1:]
	}
	if strings.HasPrefix(strings.ToLower(variant), "h") {
		return domain.LandscapeWidth, domain.LandscapeHeight
	}
	return domain.PortraitWidth, domain.PortraitHeight
}

// Get returns the layout for key, or the default layout when key is unknown.
// The returned slot list is never empty.
func (r *Registry) Get(key string) domain.SlotLayout {
	l, _ := r.Lookup(key)
	return l
}

// Lookup is Get plus a flag reporting whether key was found.
func (r *Registry) Lookup(key string) (domain.SlotLayout, bool) {
	if l, ok := r.layouts[key]; ok {
		return cloneLayout(l), true
	}
	return cloneLayout(r.layouts[r.defaultKey]), false
}

// SlotCount returns the number of slots Get(key) would return.
func (r *Registry) SlotCount(key string) int {
	return len(r.Get(key).Slots)
}

// DefaultKey returns the key used for unknown lookups.
func (r *Registry) DefaultKey() string { return r.defaultKey }

// Keys returns all layout keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.layouts))
	for k := range r.layouts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks bounds, sizes, overlaps and the default key of t.
func Validate(t Table) error {
	var errs []error

	if len(t.Layouts) == 0 {
		errs = append(errs, errors.New("no layouts defined"))
	}
	if _, ok := t.Layouts[t.Default]; !ok {
		errs = append(errs, fmt.Errorf("default layout %q not defined", t.Default))
	}

	keys := make([]string, 0, len(t.Layouts))
	for k := range t.Layouts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		errs = append(errs, validateLayout(key, t.Layouts[key])...)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidLayout, errors.Join(errs...))
}

func validateLayout(key string, slots []domain.Slot) []error {
	var errs []error
	if len(slots) == 0 {
		return []error{fmt.Errorf("%s: no slots", key)}
	}
	w, h := CanvasSize(key)
	canvas := domain.SlotLayout{Width: w, Height: h}.Canvas()

	for i, s := range slots {
		if s.W <= 0 || s.H <= 0 {
			errs = append(errs, fmt.Errorf("%s: slot %d has non-positive size %dx%d", key, i, s.W, s.H))
			continue
		}
		if !s.Rect().In(canvas) {
			errs = append(errs, fmt.Errorf("%s: slot %d %v outside %dx%d canvas", key, i, s.Rect(), w, h))
		}
		for j := 0; j < i; j++ {
			if slots[j].W <= 0 || slots[j].H <= 0 {
				continue
			}
			if s.Rect().Overlaps(slots[j].Rect()) {
				errs = append(errs, fmt.Errorf("%s: slot %d overlaps slot %d", key, i, j))
			}
		}
	}
	return errs
}

func cloneLayout(l domain.SlotLayout) domain.SlotLayout {
	l.Slots = append([]domain.Slot(nil), l.Slots...)
	return l
}
