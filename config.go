package officesim

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/invopop/jsonschema"

	"officesim/shared"
)

// RosterEntry describes one agent of the office as supplied by configuration
type RosterEntry struct {
	ID       string     `json:"id" jsonschema:"title=Agent id,description=Stable identifier of the agent,pattern=^[a-z0-9-]+$,minLength=1,required"`
	Name     string     `json:"name" jsonschema:"title=Display name,required"`
	Role     string     `json:"role" jsonschema:"title=Role,description=Role shown next to the name"`
	Tasks    []string   `json:"tasks,omitempty" jsonschema:"title=Task labels"`
	Position [3]float64 `json:"position" jsonschema:"title=Desk position,description=Desk location as [x y z],required"`
}

// Home returns the desk location of the entry
func (r RosterEntry) Home() shared.Vec3 {
	return shared.Vec3{X: r.Position[0], Y: r.Position[1], Z: r.Position[2]}
}

var rosterIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// DefaultRoster returns the five agents of the office
func DefaultRoster() []RosterEntry {
	return []RosterEntry{
		{
			ID:       "monitor",
			Name:     "Monitor",
			Role:     "Monitor Agent",
			Tasks:    []string{"Check heartbeat", "Watch subagents"},
			Position: [3]float64{-6, 0, 3},
		},
		{
			ID:       "researcher",
			Name:     "Researcher",
			Role:     "Research Agent",
			Tasks:    []string{"Web research", "X feed analysis"},
			Position: [3]float64{-2, 0, 3},
		},
		{
			ID:       "writer",
			Name:     "Writer",
			Role:     "Writer Agent",
			Tasks:    []string{"Reports", "Docs", "Summaries"},
			Position: [3]float64{2, 0, 3},
		},
		{
			ID:       "builder",
			Name:     "Builder",
			Role:     "Builder Agent",
			Tasks:    []string{"Code changes", "Scripts", "Fixes"},
			Position: [3]float64{6, 0, 3},
		},
		{
			ID:       "orchestrator",
			Name:     "Orchestrator",
			Role:     "Orchestrator",
			Tasks:    []string{"Task routing", "Sub-agent control"},
			Position: [3]float64{0, 0, 7},
		},
	}
}

// ValidateRoster rejects empty rosters, malformed ids and duplicate ids
func ValidateRoster(roster []RosterEntry) error {
	if len(roster) == 0 {
		return errors.New("roster is empty")
	}
	seen := make(map[string]bool, len(roster))
	for i, entry := range roster {
		if !rosterIDPattern.MatchString(entry.ID) {
			return fmt.Errorf("roster entry %d: invalid id %q", i, entry.ID)
		}
		if seen[entry.ID] {
			return fmt.Errorf("roster entry %d: duplicate id %q", i, entry.ID)
		}
		seen[entry.ID] = true
	}
	return nil
}

// LoadRoster reads a roster from a JSON file
func LoadRoster(path string) ([]RosterEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer file.Close()

	var roster []RosterEntry
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&roster); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	if err := ValidateRoster(roster); err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return roster, nil
}

// SaveDefaultRoster writes the default roster to path if no file exists there
func SaveDefaultRoster(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "    ")
	return encoder.Encode(DefaultRoster())
}

// RosterSchema returns the JSON Schema describing a roster file
func RosterSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(&[]RosterEntry{})
	schema.Title = "Office Roster"
	schema.Description = "Agents placed in the office at startup."

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal roster schema: %w", err)
	}
	return append(data, '\n'), nil
}
