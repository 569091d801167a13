// Package tasks implements the order task kinds, their argument discipline
// and the factory that turns stored descriptors into runnable tasks.
//
// Every kind carries its own sanitized argument struct. The set of kinds is
// closed: Args is sealed and Execute and Escape switch over it exhaustively.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/fentz26/ordertasks/internal/models"
)

// Type is the stable identifier of a task kind.
type Type string

const (
	TypeSendmail         Type = "sendmail"
	TypeCreatePost       Type = "createpost"
	TypeLogToFile        Type = "logtofile"
	TypeCustomOrderField Type = "customorderfield"
	TypeChangeShipping   Type = "changeshipping"
	TypeSendWebhook      Type = "sendwebhook"
	TypeTrashOrder       Type = "trashorder"
)

// Types lists the known kinds in editor order.
func Types() []Type {
	return []Type{
		TypeSendmail,
		TypeCreatePost,
		TypeLogToFile,
		TypeCustomOrderField,
		TypeChangeShipping,
		TypeSendWebhook,
		TypeTrashOrder,
	}
}

var (
	ErrUnknownType         = errors.New("unknown task type")
	ErrMissingCollaborator = errors.New("task collaborator not configured")
)

// RawArgs is an unsanitized argument mapping as supplied by an operator.
type RawArgs map[string]any

// DisplayArgs is the escaped form of sanitized args, ready for an editor UI.
type DisplayArgs map[string]any

// Args is the sanitized argument payload of one task kind.
type Args interface {
	Type() Type
	raw() RawArgs
}

// PendingAction is a side effect deferred until the whole batch has run.
type PendingAction struct {
	Name string
	Run  func(ctx context.Context) error
}

// Task is an immutable task kind bound to sanitized args.
type Task struct {
	args Args
}

// New sanitizes raw for typ and returns the task. Only the sanitized args
// are kept.
func New(typ Type, raw RawArgs) (*Task, error) {
	args, err := Sanitize(typ, raw)
	if err != nil {
		return nil, err
	}
	return &Task{args: args}, nil
}

func (t *Task) Type() Type { return t.args.Type() }

// Args returns the sanitized args. Callers must treat them as read-only.
func (t *Task) Args() Args { return t.args }

// Escaped returns the display form of the task's args.
func (t *Task) Escaped() DisplayArgs { return Escape(t.args) }

// Descriptor returns the persisted form of the task.
func (t *Task) Descriptor() models.TaskDescriptor {
	return models.TaskDescriptor{
		TaskType: string(t.Type()),
		Args:     map[string]any(t.args.raw()),
	}
}

// Execute runs the task's side effect against order. Tasks are not
// idempotent: each call repeats the effect.
func (t *Task) Execute(ctx context.Context, env *Env, order *models.Order) ([]PendingAction, error) {
	if env == nil {
		return nil, fmt.Errorf("%s: %w", t.Type(), ErrMissingCollaborator)
	}
	var (
		pending []PendingAction
		err     error
	)
	switch a := t.args.(type) {
	case SendmailArgs:
		err = executeSendmail(ctx, env, order, a)
	case CreatePostArgs:
		err = executeCreatePost(ctx, env, order, a)
	case LogToFileArgs:
		err = executeLogToFile(ctx, env, order, a)
	case CustomOrderFieldArgs:
		err = executeCustomOrderField(ctx, env, order, a)
	case ChangeShippingArgs:
		err = executeChangeShipping(ctx, env, order, a)
	case SendWebhookArgs:
		err = executeSendWebhook(ctx, env, order, a)
	case TrashOrderArgs:
		pending, err = executeTrashOrder(ctx, env, order, a)
	default:
		return nil, fmt.Errorf("execute %T: %w", a, ErrUnknownType)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Type(), err)
	}
	return pending, nil
}
