package udt

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/gopcua/opcua/ua"
)

// EncodingIDs holds the binary encoding node ids of the PLC structures.
// They are assigned by the PLC's OPC-UA server and differ per project.
type EncodingIDs struct {
	DrinkType   string `yaml:"drink_type"`
	QueueItem   string `yaml:"queue_item"`
	PickupDrink string `yaml:"pickup_drink"`
	PrepDrink   string `yaml:"prep_drink"`
}

// DefaultEncodingIDs returns the ids an S7-1500 server generates for the
// Drink_DB types.
func DefaultEncodingIDs() EncodingIDs {
	return EncodingIDs{
		DrinkType:   `ns=3;s=TE_"typeDrinkType"`,
		QueueItem:   `ns=3;s=TE_"typeQueueItem"`,
		PickupDrink: `ns=3;s=TE_"typePickUpDrink"`,
		PrepDrink:   `ns=3;s=TE_"typePrepDrink"`,
	}
}

// ErrInvalidEncodingID is returned for an encoding id not written as
// [ns=<n>;]<i|s|g|b>=<value>.
var ErrInvalidEncodingID = errors.New("udt: invalid encoding id")

// Validate checks that every id is an explicit node id.
func (ids EncodingIDs) Validate() error {
	for _, f := range []struct{ name, id string }{
		{"drink_type", ids.DrinkType},
		{"queue_item", ids.QueueItem},
		{"pickup_drink", ids.PickupDrink},
		{"prep_drink", ids.PrepDrink},
	} {
		if _, err := ParseEncodingID(f.id); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}

// ParseEncodingID parses an encoding node id. Unlike ua.ParseNodeID it
// rejects bare strings, which gopcua would take as a string id in ns=0.
func ParseEncodingID(s string) (*ua.NodeID, error) {
	rest := s
	if strings.HasPrefix(rest, "ns=") {
		_, after, ok := strings.Cut(rest, ";")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEncodingID, s)
		}
		rest = after
	}
	kind, value, ok := strings.Cut(rest, "=")
	if !ok || value == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEncodingID, s)
	}
	switch kind {
	case "i", "s", "g", "b":
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEncodingID, s)
	}

	id, err := ua.ParseNodeID(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidEncodingID, s, err)
	}
	return id, nil
}

// gopcua keeps extension object types in a process-wide table and panics on
// duplicates, so every registry funnels through this one.
var global = struct {
	sync.Mutex
	types map[string]reflect.Type
	ids   map[reflect.Type]string
}{types: make(map[string]reflect.Type), ids: make(map[reflect.Type]string)}

type entry struct {
	name       string
	encodingID string
	prototype  any
}

// Registry holds structured type definitions to register with the decoder.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates a registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// NewDrinkRegistry creates a registry with every Drink_DB type.
func NewDrinkRegistry(ids EncodingIDs) *Registry {
	r := NewRegistry()
	r.Add("DrinkType", ids.DrinkType, new(DrinkType))
	r.Add("QueueItem", ids.QueueItem, new(QueueItem))
	r.Add("PickupDrink", ids.PickupDrink, new(PickupDrink))
	r.Add("PrepDrink", ids.PrepDrink, new(PrepDrink))
	return r
}

// Add adds or replaces a type definition. prototype must be a pointer to a struct.
func (r *Registry) Add(name, encodingID string, prototype any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{name: name, encodingID: encodingID, prototype: prototype}
}

// Has checks if a type is defined.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// List returns all type names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EncodingIDs returns the encoding node ids in type-name order.
func (r *Registry) EncodingIDs() []string {
	names := r.List()
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		ids = append(ids, r.entries[name].encodingID)
	}
	return ids
}

// Register makes every type known to the decoder. It is safe to call on each
// connect: encodings already registered with the same Go type are skipped.
func (r *Registry) Register() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	global.Lock()
	defer global.Unlock()

	for _, name := range sortedKeys(r.entries) {
		e := r.entries[name]
		typ := reflect.TypeOf(e.prototype)
		if typ == nil || typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("udt: %s: prototype must be a struct pointer, got %T", name, e.prototype)
		}

		if prev, ok := global.types[e.encodingID]; ok {
			if prev != typ {
				return fmt.Errorf("udt: %s: encoding %s already bound to %s", name, e.encodingID, prev)
			}
			continue
		}
		if prev, ok := global.ids[typ]; ok {
			return fmt.Errorf("udt: %s: %s already bound to encoding %s", name, typ, prev)
		}

		id, err := ParseEncodingID(e.encodingID)
		if err != nil {
			return fmt.Errorf("udt: %s: %w", name, err)
		}
		if err := registerExtensionObject(id, e.prototype); err != nil {
			return fmt.Errorf("udt: %s: %w", name, err)
		}
		global.types[e.encodingID] = typ
		global.ids[typ] = e.encodingID
	}
	return nil
}

func registerExtensionObject(id *ua.NodeID, prototype any) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("register extension object: %v", p)
		}
	}()
	ua.RegisterExtensionObject(id, prototype)
	return nil
}

func sortedKeys(m map[string]entry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
