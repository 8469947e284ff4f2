package seed

import (
	"embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/nexus/internal/tablestore"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

//go:embed fixtures/*.yaml
var fixtureFS embed.FS

// fixtureTables are seeded verbatim from fixtures/<table>.yaml.
var fixtureTables = []types.TableName{
	types.TableContacts,
	types.TableDeals,
	types.TableProducts,
	types.TableReorderReport,
	types.TableTasks,
	types.TableTeamMessages,
}

// Fixture returns the baseline rows for a table seeded from fixtures.
func Fixture(table types.TableName) ([]types.Record, error) {
	var raw []map[string]any
	if err := decodeFixture(string(table), &raw); err != nil {
		return nil, err
	}
	rows := make([]types.Record, 0, len(raw))
	for _, r := range raw {
		rec, err := tablestore.Normalize(types.Record(r))
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", table, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func decodeFixture(name string, out any) error {
	data, err := fixtureFS.ReadFile("fixtures/" + name + ".yaml")
	if err != nil {
		return fmt.Errorf("reading fixture %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing fixture %s: %w", name, err)
	}
	return nil
}

type agent struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

func agents() ([]agent, error) {
	var out []agent
	if err := decodeFixture("agents", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// notificationFixture is a notification whose timestamps are offsets
// back from the seeding time.
type notificationFixture struct {
	ID          string         `yaml:"id"`
	RecipientID string         `yaml:"recipient_id"`
	Title       string         `yaml:"title"`
	Message     string         `yaml:"message"`
	Type        string         `yaml:"type"`
	ActionURL   string         `yaml:"action_url"`
	Metadata    map[string]any `yaml:"metadata"`
	IsRead      bool           `yaml:"is_read"`
	CreatedAgo  string         `yaml:"created_ago"`
	ReadAgo     string         `yaml:"read_ago"`
}

// Notifications returns the baseline notifications stamped relative to now.
func Notifications(now time.Time) ([]types.Record, error) {
	var fixtures []notificationFixture
	if err := decodeFixture(string(types.TableNotifications), &fixtures); err != nil {
		return nil, err
	}
	rows := make([]types.Record, 0, len(fixtures))
	for _, f := range fixtures {
		created, err := time.ParseDuration(f.CreatedAgo)
		if err != nil {
			return nil, fmt.Errorf("notification %s: %w", f.ID, err)
		}
		n := types.Notification{
			ID:          f.ID,
			RecipientID: f.RecipientID,
			Title:       f.Title,
			Message:     f.Message,
			Type:        f.Type,
			ActionURL:   f.ActionURL,
			Metadata:    f.Metadata,
			IsRead:      f.IsRead,
			CreatedAt:   isoTime(now.Add(-created)),
		}
		if f.ReadAgo != "" {
			read, err := time.ParseDuration(f.ReadAgo)
			if err != nil {
				return nil, fmt.Errorf("notification %s: %w", f.ID, err)
			}
			n.ReadAt = isoTime(now.Add(-read))
		}
		rec, err := types.EncodeRow(n)
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// isoTime formats t in UTC with millisecond precision.
func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
