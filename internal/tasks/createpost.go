package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fentz26/ordertasks/internal/models"
	"github.com/fentz26/ordertasks/internal/tags"
)

// PostStatusPublish is the status of posts created by createpost.
const PostStatusPublish = "publish"

// CreatePostArgs publishes a post. Author is a placeholder expression or a
// user id in decimal form; "" means the default author.
type CreatePostArgs struct {
	Subject    string `json:"subject"`
	Content    string `json:"content"`
	Categories []int  `json:"categories"`
	Author     string `json:"author"`
}

func (CreatePostArgs) Type() Type { return TypeCreatePost }

func (a CreatePostArgs) raw() RawArgs {
	categories := make([]any, len(a.Categories))
	for i, c := range a.Categories {
		categories[i] = c
	}
	return RawArgs{
		"subject":    a.Subject,
		"content":    a.Content,
		"categories": categories,
		"author":     a.Author,
	}
}

func sanitizeCreatePost(raw RawArgs) CreatePostArgs {
	out := CreatePostArgs{
		Subject:    sanitizeText(raw["subject"]),
		Content:    sanitizeHTML(raw["content"]),
		Categories: []int{},
	}
	for _, c := range toList(raw["categories"]) {
		if id, ok := positiveInt(c); ok {
			out.Categories = append(out.Categories, id)
		}
	}
	author := raw["author"]
	if s, ok := author.(string); ok && isTagExpr(s) {
		if clean := sanitizeText(s); isTagExpr(clean) {
			out.Author = clean
		}
	} else if id, ok := positiveInt(author); ok {
		out.Author = strconv.Itoa(id)
	}
	return out
}

func escapeCreatePost(a CreatePostArgs) DisplayArgs {
	categories := make([]string, len(a.Categories))
	for i, c := range a.Categories {
		categories[i] = escapeAttr(strconv.Itoa(c))
	}
	return DisplayArgs{
		"subject":    a.Subject,
		"content":    a.Content,
		"categories": categories,
		"author":     a.Author,
	}
}

func executeCreatePost(ctx context.Context, env *Env, order *models.Order, a CreatePostArgs) error {
	if env.Posts == nil {
		return fmt.Errorf("post store: %w", ErrMissingCollaborator)
	}
	reg := tags.NewRegistry()
	reg.RegisterFieldDefaults(tags.Subject, order)
	reg.RegisterTextDefaults(tags.Content, order, orderDetails(env, order))
	reg.Register(tags.Author, tags.Customer, func() string {
		if order.CustomerID > 0 {
			return strconv.FormatInt(order.CustomerID, 10)
		}
		return strconv.FormatInt(env.Settings.DefaultAuthorID, 10)
	})

	content := reg.Render(tags.Content, a.Content)
	if f := env.Filters.CreatePostContent; f != nil {
		content = f(ctx, content, order)
	}
	post := &models.Post{
		Title:      reg.Render(tags.Subject, a.Subject),
		Content:    content,
		Status:     PostStatusPublish,
		AuthorID:   resolveAuthor(reg.Render(tags.Author, a.Author), env.Settings.DefaultAuthorID),
		Categories: append([]int(nil), a.Categories...),
	}
	if err := env.Posts.InsertPost(ctx, post); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func resolveAuthor(rendered string, fallback int64) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(rendered), 10, 64)
	if err != nil || id <= 0 {
		return fallback
	}
	return id
}

func orderDetails(env *Env, order *models.Order) tags.Resolver {
	return func() string {
		if env.Mail == nil {
			return ""
		}
		return env.Mail.OrderDetails(order)
	}
}
