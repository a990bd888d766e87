package service

import (
	"net/mail"
	"strings"
	"unicode"

	"github.com/codestack/cli/pkg/api"
	clierrors "github.com/codestack/cli/pkg/errors"
)

// MinPasswordLength is the shortest password registration accepts.
const MinPasswordLength = 6

// ValidateEmail checks that email is a single address.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return clierrors.ValidationError("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return clierrors.ValidationError("email", "is not a valid address")
	}
	return nil
}

// ValidatePassword requires six characters with an upper and a lower
// case letter and a digit or symbol.
func ValidatePassword(pw string) error {
	if len([]rune(pw)) < MinPasswordLength {
		return clierrors.ValidationError("password", "must be at least 6 characters")
	}
	var upper, lower, other bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r), unicode.IsPunct(r), unicode.IsSymbol(r):
			other = true
		}
	}
	if !upper {
		return clierrors.ValidationError("password", "must contain an uppercase letter")
	}
	if !lower {
		return clierrors.ValidationError("password", "must contain a lowercase letter")
	}
	if !other {
		return clierrors.ValidationError("password", "must contain a number or special character")
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return clierrors.ValidationError(field, "is required")
	}
	return nil
}

func requiredImage(msg string) error {
	return clierrors.ValidationError("image", msg)
}

// PostForm is the add-post form.
type PostForm struct {
	Title       string
	Description string
	Tag         string
	ImagePath   string
}

// Validate checks every field before anything is uploaded.
func (f PostForm) Validate() error {
	if f.ImagePath == "" {
		return requiredImage("Please upload profile pic")
	}
	for _, fv := range []struct{ field, value string }{
		{"title", f.Title},
		{"description", f.Description},
		{"tag", f.Tag},
	} {
		if err := required(fv.field, fv.value); err != nil {
			return err
		}
	}
	return nil
}

// AnnouncementForm is the make-announcement form.
type AnnouncementForm struct {
	Title       string
	Description string
	ImagePath   string
}

// Validate checks every field before anything is uploaded.
func (f AnnouncementForm) Validate() error {
	if f.ImagePath == "" {
		return requiredImage("Please upload author image")
	}
	if err := required("title", f.Title); err != nil {
		return err
	}
	return required("description", f.Description)
}

// ValidateComment rejects blank comments.
func ValidateComment(text string) error {
	return required("comment", text)
}

// ValidateFeedback accepts only one of api.ReportFeedback.
func ValidateFeedback(feedback string) error {
	for _, f := range api.ReportFeedback {
		if feedback == f {
			return nil
		}
	}
	return clierrors.ValidationError("feedback", "Please give feedback from drop down menu")
}

// ValidateTag returns the normalized tag.
func ValidateTag(tag string) (string, error) {
	t := api.NormalizeTag(tag)
	if t == "" {
		return "", clierrors.ValidationError("tag", "is required")
	}
	return t, nil
}
