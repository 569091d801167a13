// Package tags implements the per-execution placeholder registry used by tasks.
//
// A Registry maps a Context to a set of resolved placeholders. Values are
// resolved once at registration and substituted in a single pass, so a
// resolved value is never scanned for further placeholders.
package tags

import (
	"sort"
	"strconv"
	"strings"

	"github.com/fentz26/ordertasks/internal/models"
)

// Context names an independent placeholder namespace, usually a task field.
type Context string

const (
	Subject         Context = "subject"
	Message         Context = "message"
	Recipients      Context = "recipients"
	Content         Context = "content"
	Author          Context = "author"
	Name            Context = "name"
	Value           Context = "value"
	NewShippingName Context = "new_shipping_name"
)

// Placeholder names shared by the default tag sets.
const (
	OrderID         = "order id"
	OrderDetails    = "order details"
	BillingEmail    = "billing email"
	BillingName     = "billing name"
	BillingPhone    = "billing phone"
	BillingCompany  = "billing company"
	BillingAddress  = "billing address"
	ShippingName    = "shipping name"
	ShippingAddress = "shipping address"
	OrderNote       = "order note"
	AdminEmail      = "admin email"
	Customer        = "customer"
)

// Resolver produces a placeholder value. It is called once, at registration.
type Resolver func() string

// Token returns the literal placeholder for name.
func Token(name string) string {
	return "{{" + name + "}}"
}

// Registry holds resolved placeholders per context.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	entries map[Context]map[string]string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[Context]map[string]string)}
}

// Register resolves fn immediately and stores the result under {{name}} in c.
// Registering the same name again overwrites the value.
func (r *Registry) Register(c Context, name string, fn Resolver) {
	m, ok := r.entries[c]
	if !ok {
		m = make(map[string]string)
		r.entries[c] = m
	}
	var v string
	if fn != nil {
		v = fn()
	}
	m[Token(name)] = v
}

// RegisterValue is Register for an already computed value.
func (r *Registry) RegisterValue(c Context, name, value string) {
	r.Register(c, name, func() string { return value })
}

// Unregister removes {{name}} from c. Missing entries are ignored.
func (r *Registry) Unregister(c Context, name string) {
	if m, ok := r.entries[c]; ok {
		delete(m, Token(name))
	}
}

// Render replaces every registered token of c in content. Unknown tokens
// are left verbatim.
func (r *Registry) Render(c Context, content string) string {
	m := r.entries[c]
	if len(m) == 0 || content == "" {
		return content
	}
	return r.replacer(m).Replace(content)
}

// RenderAll renders each element of contents with the same context.
func (r *Registry) RenderAll(c Context, contents []string) []string {
	out := make([]string, len(contents))
	m := r.entries[c]
	if len(m) == 0 {
		copy(out, contents)
		return out
	}
	rep := r.replacer(m)
	for i, s := range contents {
		out[i] = rep.Replace(s)
	}
	return out
}

// strings.Replacer tries old strings in argument order at each position, so
// longer tokens go first to win over any token that is a prefix of them.
func (r *Registry) replacer(m map[string]string) *strings.Replacer {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return strings.NewReplacer(pairs...)
}

// RegisterFieldDefaults registers the single-line identity tags for order in c.
func (r *Registry) RegisterFieldDefaults(c Context, order *models.Order) {
	r.Register(c, OrderID, func() string { return strconv.FormatInt(order.ID, 10) })
	r.Register(c, BillingName, order.Billing.FullName)
	r.Register(c, ShippingName, order.Shipping.FullName)
	r.RegisterValue(c, BillingPhone, order.Billing.Phone)
	r.RegisterValue(c, BillingCompany, order.Billing.Company)
}

// RegisterTextDefaults registers the field defaults plus the multi-line
// tags. details renders the order details block.
func (r *Registry) RegisterTextDefaults(c Context, order *models.Order, details Resolver) {
	r.RegisterFieldDefaults(c, order)
	r.Register(c, OrderDetails, details)
	r.RegisterValue(c, BillingEmail, order.Billing.Email)
	r.Register(c, BillingAddress, order.Billing.Formatted)
	r.Register(c, ShippingAddress, order.Shipping.Formatted)
	r.RegisterValue(c, OrderNote, order.CustomerNote)
}
