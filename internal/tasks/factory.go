package tasks

import (
	"context"

	"github.com/invopop/jsonschema"

	"github.com/fentz26/ordertasks/internal/logger"
	"github.com/fentz26/ordertasks/internal/models"
)

// Info describes a task kind for editors.
type Info struct {
	Type       Type               `json:"task_type"`
	Label      string             `json:"label"`
	Defaults   RawArgs            `json:"defaults"`
	ArgsSchema *jsonschema.Schema `json:"args_schema"`
}

// catalog is the closed set of task kinds the factory can build.
var catalog = map[Type]string{
	TypeSendmail:         "Send email",
	TypeCreatePost:       "Create post",
	TypeLogToFile:        "Log to file",
	TypeCustomOrderField: "Custom order field",
	TypeChangeShipping:   "Change shipping method",
	TypeSendWebhook:      "Send webhook",
	TypeTrashOrder:       "Trash order",
}

// IsKnown reports whether typ can be built by Create.
func IsKnown(typ string) bool {
	_, ok := catalog[Type(typ)]
	return ok
}

// Create builds a task of kind typ from raw. An unknown kind returns nil
// and ErrUnknownType after logging a diagnostic.
func Create(ctx context.Context, typ string, raw RawArgs) (*Task, error) {
	if !IsKnown(typ) {
		logger.FromContext(ctx).Warn("Task type not found in factory", "task_type", typ)
		return nil, ErrUnknownType
	}
	return New(Type(typ), raw)
}

// FromDescriptor builds the task a stored descriptor describes.
func FromDescriptor(ctx context.Context, d models.TaskDescriptor) (*Task, error) {
	return Create(ctx, d.TaskType, RawArgs(d.Args))
}

// Catalog returns editor metadata for every kind, in Types order.
func Catalog() []Info {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	out := make([]Info, 0, len(catalog))
	for _, typ := range Types() {
		def, err := Defaults(typ)
		if err != nil {
			continue
		}
		out = append(out, Info{
			Type:       typ,
			Label:      catalog[typ],
			Defaults:   def.raw(),
			ArgsSchema: reflector.Reflect(def),
		})
	}
	return out
}
