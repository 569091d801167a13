package tasks

import "fmt"

// Defaults returns the declared default args of typ.
func Defaults(typ Type) (Args, error) {
	switch typ {
	case TypeSendmail:
		return SendmailArgs{Subject: "No subject", Recipients: []Recipient{}}, nil
	case TypeCreatePost:
		return CreatePostArgs{Categories: []int{}}, nil
	case TypeLogToFile:
		return LogToFileArgs{}, nil
	case TypeCustomOrderField:
		return CustomOrderFieldArgs{}, nil
	case TypeChangeShipping:
		return ChangeShippingArgs{}, nil
	case TypeSendWebhook:
		return SendWebhookArgs{}, nil
	case TypeTrashOrder:
		return TrashOrderArgs{}, nil
	}
	return nil, fmt.Errorf("%q: %w", typ, ErrUnknownType)
}

// Sanitize merges raw over the defaults of typ and sanitizes every declared
// field. Present non-null raw values win; undeclared keys are ignored.
// It never fails for a known type.
func Sanitize(typ Type, raw RawArgs) (Args, error) {
	def, err := Defaults(typ)
	if err != nil {
		return nil, err
	}
	merged := def.raw()
	for k, v := range raw {
		if _, declared := merged[k]; declared && v != nil {
			merged[k] = v
		}
	}
	switch typ {
	case TypeSendmail:
		return sanitizeSendmail(merged), nil
	case TypeCreatePost:
		return sanitizeCreatePost(merged), nil
	case TypeLogToFile:
		return LogToFileArgs{Content: sanitizeHTML(merged["content"])}, nil
	case TypeCustomOrderField:
		return CustomOrderFieldArgs{
			Name:  sanitizeText(merged["name"]),
			Value: sanitizeHTML(merged["value"]),
		}, nil
	case TypeChangeShipping:
		return ChangeShippingArgs{
			NewShippingName:   sanitizeText(merged["new_shipping_name"]),
			NewShippingMethod: sanitizeKey(merged["new_shipping_method"]),
		}, nil
	case TypeSendWebhook:
		return SendWebhookArgs{
			DeliveryURL: sanitizeURL(merged["delivery_url"]),
			Secret:      sanitizeText(merged["secret"]),
		}, nil
	case TypeTrashOrder:
		return TrashOrderArgs{Reason: sanitizeText(merged["reason"])}, nil
	}
	return nil, fmt.Errorf("%q: %w", typ, ErrUnknownType)
}

// Escape maps sanitized args to their display form. Plain text and rich
// HTML fields are already safe for their field and pass through; labels
// and attribute values are escaped.
func Escape(a Args) DisplayArgs {
	switch a := a.(type) {
	case SendmailArgs:
		return escapeSendmail(a)
	case CreatePostArgs:
		return escapeCreatePost(a)
	case LogToFileArgs:
		return DisplayArgs{"content": a.Content}
	case CustomOrderFieldArgs:
		return DisplayArgs{"name": a.Name, "value": a.Value}
	case ChangeShippingArgs:
		return DisplayArgs{
			"new_shipping_name":   a.NewShippingName,
			"new_shipping_method": escapeAttr(a.NewShippingMethod),
		}
	case SendWebhookArgs:
		return DisplayArgs{"delivery_url": a.DeliveryURL, "secret": a.Secret}
	case TrashOrderArgs:
		return DisplayArgs{"reason": a.Reason}
	}
	return DisplayArgs{}
}
