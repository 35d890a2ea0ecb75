package actions

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/gridroute/internal/route"
	"gopkg.in/yaml.v3"
)

// Manifest binds extra read actions to built-in handlers:
//
//	routes:
//	  - action: open-orders
//	    handler: find
//	    target_id: 42
//	    load_table_data: true
type Manifest struct {
	Routes []RouteSpec `yaml:"routes"`
}

// RouteSpec is one manifest entry.
type RouteSpec struct {
	Action  string `yaml:"action"`
	Handler string `yaml:"handler"`

	route.Options `yaml:",inline"`
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses manifest YAML. Unknown keys are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks every entry names an action and a built-in read handler.
func (m *Manifest) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(m.Routes))
	for i, r := range m.Routes {
		switch {
		case r.Action == "":
			errs = append(errs, fmt.Errorf("routes[%d]: action is required", i))
		case seen[r.Action]:
			errs = append(errs, fmt.Errorf("routes[%d]: duplicate action %q", i, r.Action))
		}
		seen[r.Action] = true

		switch r.Handler {
		case ActionList, ActionHeader, ActionFind, ActionSelect:
		default:
			errs = append(errs, fmt.Errorf("routes[%d]: unknown handler %q", i, r.Handler))
		}
	}
	return errors.Join(errs...)
}

// Apply registers every manifest route on rt.
func (m *Manifest) Apply(rt *route.Router, a *Actions) error {
	for _, r := range m.Routes {
		h, ok := a.getHandler(r.Handler)
		if !ok {
			return fmt.Errorf("route %s: unknown handler %q", r.Action, r.Handler)
		}
		if err := rt.RegisterGet(r.Action, h, r.Options); err != nil {
			return fmt.Errorf("route %s: %w", r.Action, err)
		}
	}
	return nil
}
