// Package service holds the business rules between the HTTP handlers and the repositories.
package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/storage"
)

// Text limits.
const (
	MaxPostTextLen    = 1000
	MaxCommentTextLen = 500
	MaxShareTextLen   = 500
	MaxBioLen         = 280
)

// ImageStore persists uploaded images and returns their public reference.
type ImageStore interface {
	SaveImage(ctx context.Context, in *storage.UploadInput, prefix string) (string, error)
}

// Owned is implemented by resources only their author may mutate.
type Owned interface {
	OwnerID() uint
}

// canMutate is the single ownership predicate for posts, comments and shares.
func canMutate(userID uint, r Owned) bool {
	return userID != 0 && r.OwnerID() == userID
}

// ownedBy loads a resource through an owner-scoped lookup and re-checks it with
// canMutate. A foreign resource is reported exactly like a missing one.
func ownedBy[T Owned](userID uint, notFound string, load func() (T, error)) (T, error) {
	var zero T
	res, err := load()
	if err != nil {
		return zero, err
	}
	if !canMutate(userID, res) {
		return zero, models.NewNotFoundMessage(notFound)
	}
	return res, nil
}

func startSpan(ctx context.Context, component, method string) (context.Context, func(*error)) {
	ctx, span := observability.StartServiceSpan(ctx, component, method)
	return ctx, func(errp *error) {
		observability.EndSpan(span, *errp)
	}
}

func fieldError(field, message string) error {
	return models.NewFieldValidationError(message, []models.FieldError{{Field: field, Message: message}})
}

// checkText enforces rune-length bounds. The text itself is stored as sent;
// a required field must hold more than whitespace.
func checkText(field, s string, minLen, maxLen int) (string, error) {
	n := utf8.RuneCountInString(s)
	if n < minLen || (minLen > 0 && strings.TrimSpace(s) == "") {
		if minLen == 1 {
			return "", fieldError(field, fmt.Sprintf("%s is required", field))
		}
		return "", fieldError(field, fmt.Sprintf("%s must be at least %d characters", field, minLen))
	}
	if n > maxLen {
		return "", fieldError(field, fmt.Sprintf("%s must be at most %d characters", field, maxLen))
	}
	return s, nil
}

func hydratePosts(posts []*models.Post, viewerID uint) {
	for _, p := range posts {
		p.Hydrate(viewerID)
	}
}
