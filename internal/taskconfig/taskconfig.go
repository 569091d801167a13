// Package taskconfig persists the per-status task lists.
//
// All lists live in one option record: a JSON object mapping each status
// to the JSON encoding of its descriptor list.
package taskconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fentz26/ordertasks/internal/logger"
	"github.com/fentz26/ordertasks/internal/models"
)

// OptionKey is the option the task configuration is stored under.
const OptionKey = "_ordertasks-config"

// Store reads and replaces the task list of a status.
type Store interface {
	GetTaskList(ctx context.Context, status string) ([]models.TaskDescriptor, error)
	SetTaskList(ctx context.Context, status string, list []models.TaskDescriptor) error
}

// Options is the option persistence the store is built on.
type Options interface {
	GetOption(ctx context.Context, name string) (string, error)
	SetOption(ctx context.Context, name, value string) error
}

// OptionStore keeps every task list inside a single option.
type OptionStore struct {
	opts Options
}

var _ Store = (*OptionStore)(nil)

func New(opts Options) *OptionStore {
	return &OptionStore{opts: opts}
}

// GetTaskList returns the descriptors configured for status, in execution
// order. Entries without a task type are skipped.
func (s *OptionStore) GetTaskList(ctx context.Context, status string) ([]models.TaskDescriptor, error) {
	record, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	blob, ok := record[status]
	if !ok || strings.TrimSpace(blob) == "" {
		return []models.TaskDescriptor{}, nil
	}
	return parseList(ctx, status, blob), nil
}

// SetTaskList replaces the whole list of status. An empty list removes
// the status from the record.
func (s *OptionStore) SetTaskList(ctx context.Context, status string, list []models.TaskDescriptor) error {
	record, err := s.load(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		delete(record, status)
	} else {
		blob, err := encode(list)
		if err != nil {
			return fmt.Errorf("encode task list %s: %w", status, err)
		}
		record[status] = blob
	}
	data, err := encode(record)
	if err != nil {
		return fmt.Errorf("encode task config: %w", err)
	}
	if err := s.opts.SetOption(ctx, OptionKey, data); err != nil {
		return fmt.Errorf("save task config: %w", err)
	}
	return nil
}

// Statuses returns the statuses that have a task list, sorted.
func (s *OptionStore) Statuses(ctx context.Context) ([]string, error) {
	record, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(record))
	for status := range record {
		out = append(out, status)
	}
	sort.Strings(out)
	return out, nil
}

func (s *OptionStore) load(ctx context.Context) (map[string]string, error) {
	raw, err := s.opts.GetOption(ctx, OptionKey)
	if err != nil {
		return nil, fmt.Errorf("load task config: %w", err)
	}
	record := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return record, nil
	}
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("decode task config: %w", err)
	}
	return record, nil
}

func parseList(ctx context.Context, status, blob string) []models.TaskDescriptor {
	log := logger.FromContext(ctx)
	list := []models.TaskDescriptor{}
	if !gjson.Valid(blob) {
		log.Error("Malformed task list", "status", status)
		return list
	}
	gjson.Parse(blob).ForEach(func(key, entry gjson.Result) bool {
		typ := entry.Get("task_type")
		if typ.Type != gjson.String || typ.String() == "" {
			log.Warn("Skipping task descriptor without type", "status", status, "index", key.Int())
			return true
		}
		d := models.TaskDescriptor{TaskType: typ.String(), Args: map[string]any{}}
		if args, ok := entry.Get("args").Value().(map[string]any); ok {
			d.Args = args
		}
		list = append(list, d)
		return true
	})
	return list
}

// encode marshals v without escaping HTML characters or slashes.
func encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
