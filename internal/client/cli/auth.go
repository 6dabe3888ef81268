package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spetrenko/authkeeper/internal/client/api"
	"github.com/spetrenko/authkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email and password and attempts to create
// a new account. Registration does not start a session; the user logs in
// afterwards.
//
// On success it prints "Success!" and returns nil. The password byte slice
// is securely wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.api.Register(ctx, email, string(password)); err != nil {
		if errors.Is(err, api.ErrConflict) {
			log.Printf("Registration unsuccessful: email already registered")
		} else {
			log.Printf("Registration unsuccessful: %s", err.Error())
		}
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Login prompts the user for credentials and tries to authenticate. On
// success the session manager holds the issued token pair and the refresh
// token is persisted locally. The password is securely wiped before
// returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.session.Login(ctx, email, string(password)); err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			log.Printf("Server unavailable")
		} else {
			log.Printf("Login unsuccessful: %s", err.Error())
		}
		return err
	}

	log.Printf("Login successful")
	return nil
}

// Profile fetches and prints the account profile for the current session.
func (a *App) Profile(ctx context.Context) error {
	user, err := a.session.Profile(ctx)
	if err != nil {
		if errors.Is(err, common.ErrSessionEnded) {
			log.Printf("Session ended, please log in again")
		} else {
			log.Printf("Could not fetch profile: %s", err.Error())
		}
		return err
	}

	fmt.Printf("ID:         %s\n", user.ID)
	fmt.Printf("Email:      %s\n", user.Email)
	fmt.Printf("Registered: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// Logout invalidates the session on the server and forgets the tokens stored
// locally.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		log.Printf("Logout incomplete: %s", err.Error())
		return err
	}
	log.Printf("Logged out")
	return nil
}
