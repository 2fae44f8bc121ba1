package service

import (
	"strings"
	"unicode/utf8"

	"go-blog/internal/storage"
)

const (
	msgRequired     = "This field is required."
	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgInvalidGroup = "Select a valid choice. That choice is not one of the available choices."
)

type CreatePostInput struct {
	Text    string
	GroupID *uint
	Image   *storage.Upload
}

func (in CreatePostInput) Validate() error {
	ve := &ValidationError{}
	if strings.TrimSpace(in.Text) == "" {
		ve.Add("text", msgRequired)
	}
	validateImage(ve, in.Image)
	return ve.Err()
}

// EditPostInput 只包含需要修改的字段, nil 表示保持不变
type EditPostInput struct {
	Text *string
	// 与 ClearGroup 互斥: ClearGroup 把分组置空
	GroupID    *uint
	ClearGroup bool
	Image      *storage.Upload
}

func (in EditPostInput) Validate() error {
	ve := &ValidationError{}
	if in.Text != nil && strings.TrimSpace(*in.Text) == "" {
		ve.Add("text", msgRequired)
	}
	if in.GroupID != nil && in.ClearGroup {
		ve.Add("group", msgInvalidGroup)
	}
	validateImage(ve, in.Image)
	return ve.Err()
}

func (in EditPostInput) IsEmpty() bool {
	return in.Text == nil && in.GroupID == nil && !in.ClearGroup && in.Image == nil
}

type CommentInput struct {
	Text string
}

func (in CommentInput) Validate() error {
	ve := &ValidationError{}
	if strings.TrimSpace(in.Text) == "" {
		ve.Add("text", msgRequired)
	}
	return ve.Err()
}

type SignupInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password1 string
	Password2 string
}

func (in SignupInput) Validate() error {
	ve := &ValidationError{}
	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		ve.Add("username", msgRequired)
	case utf8.RuneCountInString(username) > 150:
		ve.Add("username", "Ensure this value has at most 150 characters.")
	case strings.ContainsAny(username, " /?#"):
		ve.Add("username", "Enter a valid username.")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		ve.Add("email", msgRequired)
	} else if at := strings.Index(email, "@"); at < 1 || at == len(email)-1 {
		ve.Add("email", "Enter a valid email address.")
	}
	if in.Password1 == "" {
		ve.Add("password1", msgRequired)
	} else if utf8.RuneCountInString(in.Password1) < 8 {
		ve.Add("password1", "This password is too short. It must contain at least 8 characters.")
	}
	if in.Password2 == "" {
		ve.Add("password2", msgRequired)
	} else if in.Password1 != in.Password2 {
		ve.Add("password2", "The two password fields didn't match.")
	}
	return ve.Err()
}

type LoginInput struct {
	Username string
	Password string
}

func (in LoginInput) Validate() error {
	ve := &ValidationError{}
	if strings.TrimSpace(in.Username) == "" {
		ve.Add("username", msgRequired)
	}
	if in.Password == "" {
		ve.Add("password", msgRequired)
	}
	return ve.Err()
}

func validateImage(ve *ValidationError, img *storage.Upload) {
	if img != nil && !img.IsImage() {
		ve.Add("image", msgInvalidImage)
	}
}
