package cli

import (
	"context"

	"github.com/dmitrijs2005/parishkeeper/internal/common"
)

// getSimpleText and getPassword are test seams.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.auth.Register(ctx, email, password, fullName)
	if err != nil {
		return a.report(err)
	}
	if s == nil {
		printlnFn("Check your inbox to confirm the address, then log in.")
		return nil
	}
	a.setSession(s)
	printlnFn("Welcome,", a.status())
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return a.report(err)
	}
	a.setSession(s)
	printlnFn("Signed in as", a.status())
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.stopWatching()
	err := a.auth.Logout(ctx)
	a.setSession(nil)
	if err != nil {
		return a.report(err)
	}
	printlnFn("Signed out.")
	return nil
}
