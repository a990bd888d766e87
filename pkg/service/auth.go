package service

import (
	"context"

	"github.com/codestack/cli/pkg/formatter"
	"github.com/codestack/cli/pkg/logger"
	"github.com/codestack/cli/pkg/output"
	"github.com/codestack/cli/pkg/session"
)

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Name      string
	Email     string
	Password  string
	PhotoPath string
}

// Validate checks the form before anything is uploaded.
func (f RegisterForm) Validate() error {
	if err := required("name", f.Name); err != nil {
		return err
	}
	if err := ValidateEmail(f.Email); err != nil {
		return err
	}
	return ValidatePassword(f.Password)
}

// Login prompts for credentials when interactive. The router returns
// to the page that sent the visitor here.
func (v *Views) Login(ctx context.Context, req Request) error {
	if id := v.Session.Current(); id != nil {
		v.Out.Info("Already logged in as %s", id.Email)
		if !req.Interactive {
			return nil
		}
		if ok, _ := v.Prompt.Confirm("Continue with new login?"); !ok {
			return nil
		}
	}
	if !req.Interactive {
		v.Out.Line("Run 'codestack auth login' to sign in.")
		return nil
	}

	choice, err := v.Prompt.Select("Sign in with:", []string{"Email and password", "Google"})
	if err != nil {
		return err
	}
	if choice == 1 {
		return v.LoginWithGoogle(ctx)
	}

	email, err := v.Prompt.String("Email: ")
	if err != nil {
		return err
	}
	password, err := v.Prompt.Password("Password: ")
	if err != nil {
		return err
	}
	return v.LoginWith(ctx, email, password)
}

// LoginWith signs in with email and password.
func (v *Views) LoginWith(ctx context.Context, email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return v.invalid(err)
	}
	if err := required("password", password); err != nil {
		return v.invalid(err)
	}
	v.Out.Info("Authenticating...")
	_, err := v.Session.SignIn(ctx, email, password)
	return err
}

// LoginWithGoogle runs the federated sign-in.
func (v *Views) LoginWithGoogle(ctx context.Context) error {
	v.Out.Info("Opening your browser to sign in with Google...")
	_, err := v.Session.SignInWithProvider(ctx)
	return err
}

// Register prompts for the sign-up form when interactive.
func (v *Views) Register(ctx context.Context, req Request) error {
	if !req.Interactive {
		v.Out.Line("Run 'codestack auth register' to create an account.")
		return nil
	}

	var f RegisterForm
	var err error
	if f.Name, err = v.Prompt.String("Name: "); err != nil {
		return err
	}
	if f.Email, err = v.Prompt.String("Email: "); err != nil {
		return err
	}
	if f.PhotoPath, err = v.Prompt.String("Profile picture file: "); err != nil {
		return err
	}
	if f.Password, err = v.Prompt.Password("Password: "); err != nil {
		return err
	}
	return v.RegisterWith(ctx, f)
}

// RegisterWith validates the form, uploads the photo and creates the
// account.
func (v *Views) RegisterWith(ctx context.Context, f RegisterForm) error {
	if f.PhotoPath == "" {
		return v.invalid(requiredImage("Please upload profile pic"))
	}
	if err := f.Validate(); err != nil {
		return v.invalid(err)
	}

	photoURL, err := v.Images.Upload(ctx, f.PhotoPath)
	if err != nil {
		return v.report(err, "Image upload failed", "")
	}

	_, err = v.Session.Register(ctx, session.RegisterRequest{
		Name:     f.Name,
		Email:    f.Email,
		Password: f.Password,
		PhotoURL: photoURL,
	})
	return err
}

// Logout signs out.
func (v *Views) Logout(ctx context.Context) error {
	if v.Session.Current() == nil {
		v.Out.Info("Not logged in")
		return nil
	}
	if err := v.Session.SignOut(ctx); err != nil {
		logger.Error("Sign out failed", "error", err)
		return err
	}
	return nil
}

// Status shows who is signed in.
func (v *Views) Status(ctx context.Context, role string) error {
	id := v.Session.Current()
	if id == nil {
		v.Out.Warning("Not logged in")
		return nil
	}
	return v.Out.PrintRecord("Logged in", []output.Field{
		{Key: "Name", Value: nameOr(id.DisplayName, id.Email)},
		{Key: "Email", Value: id.Email},
		{Key: "Role", Value: formatter.Role(role)},
	})
}

// Forbidden is shown when a role check fails.
func (v *Views) Forbidden(ctx context.Context, req Request) error {
	v.Out.Error("Access denied")
	v.Out.Line("You do not have permission to view this page.")
	return nil
}
