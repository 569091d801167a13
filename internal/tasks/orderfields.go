package tasks

import (
	"context"
	"fmt"

	"github.com/fentz26/ordertasks/internal/logger"
	"github.com/fentz26/ordertasks/internal/models"
	"github.com/fentz26/ordertasks/internal/tags"
)

// TrashReasonMeta is the order meta key trashorder writes its reason to.
const TrashReasonMeta = "trash_reason"

// CustomOrderFieldArgs writes one meta value on the order.
type CustomOrderFieldArgs struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (CustomOrderFieldArgs) Type() Type { return TypeCustomOrderField }

func (a CustomOrderFieldArgs) raw() RawArgs {
	return RawArgs{"name": a.Name, "value": a.Value}
}

// ChangeShippingArgs switches matching shipping lines to another method.
type ChangeShippingArgs struct {
	NewShippingName   string `json:"new_shipping_name"`
	NewShippingMethod string `json:"new_shipping_method"`
}

func (ChangeShippingArgs) Type() Type { return TypeChangeShipping }

func (a ChangeShippingArgs) raw() RawArgs {
	return RawArgs{
		"new_shipping_name":   a.NewShippingName,
		"new_shipping_method": a.NewShippingMethod,
	}
}

// TrashOrderArgs moves the order to the trash after the batch.
type TrashOrderArgs struct {
	Reason string `json:"reason"`
}

func (TrashOrderArgs) Type() Type { return TypeTrashOrder }

func (a TrashOrderArgs) raw() RawArgs { return RawArgs{"reason": a.Reason} }

func executeCustomOrderField(ctx context.Context, env *Env, order *models.Order, a CustomOrderFieldArgs) error {
	reg := tags.NewRegistry()
	reg.RegisterFieldDefaults(tags.Name, order)
	reg.RegisterTextDefaults(tags.Value, order, nil)
	reg.Unregister(tags.Value, tags.OrderDetails)

	name := reg.Render(tags.Name, a.Name)
	if name == "" {
		logger.FromContext(ctx).Debug("Skipping custom field with empty name", "order_id", order.ID)
		return nil
	}
	value := breaksToNewlines(reg.Render(tags.Value, a.Value))
	return setOrderMeta(ctx, env, order, name, value)
}

func setOrderMeta(ctx context.Context, env *Env, order *models.Order, key, value string) error {
	if env.Orders == nil {
		return fmt.Errorf("order store: %w", ErrMissingCollaborator)
	}
	if err := env.Orders.UpdateOrderMeta(ctx, order.ID, key, value); err != nil {
		return fmt.Errorf("update order meta %q: %w", key, err)
	}
	if order.Meta == nil {
		order.Meta = make(map[string]string)
	}
	order.Meta[key] = value
	return nil
}

func executeChangeShipping(ctx context.Context, env *Env, order *models.Order, a ChangeShippingArgs) error {
	if env.Orders == nil {
		return fmt.Errorf("order store: %w", ErrMissingCollaborator)
	}
	reg := tags.NewRegistry()
	reg.RegisterFieldDefaults(tags.NewShippingName, order)
	name := reg.Render(tags.NewShippingName, a.NewShippingName)

	for i := range order.ShippingLines {
		line := &order.ShippingLines[i]
		for _, method := range env.Settings.ShippingMethods {
			if method.ID != a.NewShippingMethod || line.MethodID != method.ID {
				continue
			}
			line.MethodID = method.Rate()
			if name != "" {
				line.MethodTitle = name
			} else {
				line.MethodTitle = method.Title
			}
			if err := env.Orders.SaveShippingLine(ctx, line); err != nil {
				return fmt.Errorf("save shipping line %s: %w", line.ID, err)
			}
			break
		}
	}
	return nil
}

func executeTrashOrder(ctx context.Context, env *Env, order *models.Order, a TrashOrderArgs) ([]PendingAction, error) {
	if env.Orders == nil {
		return nil, fmt.Errorf("order store: %w", ErrMissingCollaborator)
	}
	if a.Reason != "" {
		if err := setOrderMeta(ctx, env, order, TrashReasonMeta, a.Reason); err != nil {
			return nil, err
		}
	}
	orderID := order.ID
	orders := env.Orders
	return []PendingAction{{
		Name: fmt.Sprintf("trash order %d", orderID),
		Run: func(ctx context.Context) error {
			return orders.TrashOrder(ctx, orderID)
		},
	}}, nil
}
