package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/travelrag/travel-cli/internal/app"
	"github.com/travelrag/travel-cli/internal/models"
	"github.com/travelrag/travel-cli/internal/router"
)

// Routes only the terminal client knows about.
const (
	pathRecord = "/history/record"
	pathLatest = "/history/latest"
	pathDelete = "/history/delete"

	queryParam   = "q"
	pageParam    = "page"
	sizeParam    = "size"
	idParam      = "id"
	confirmParam = "confirm"
)

var (
	errLoginRequired = errors.New("not signed in, run 'travel login' in a terminal or pass --username and --password")
	errNotTerminal   = errors.New("this command needs an interactive terminal")
	errInvalidID     = errors.New("a numeric history record id is required")
	errNotConfirmed  = errors.New("deletion not confirmed, pass --yes to delete without a prompt")
)

// credentials given on the command line, used once by the login view
var loginInput struct {
	username  string
	password  string
	skipCheck bool
}

var registerInput models.NewUser

// shellMode makes views prompt for what a single command would have
// passed as arguments.
var shellMode bool

func mountViews(a *app.App) {
	a.Mount(app.Views{
		Login:    loginView(a),
		Register: registerView(a),
		Search:   searchView(a),
		History:  historyView(a),
	})

	a.Router.Handle(router.Route{Path: pathRecord, Protected: true, View: recordView(a)})
	a.Router.Handle(router.Route{Path: pathLatest, Protected: true, View: latestView(a)})
	a.Router.Handle(router.Route{Path: pathDelete, Protected: true, View: deleteView(a)})
}

func loginView(a *app.App) router.View {
	return func(ctx context.Context, location router.Location) error {
		if !a.EnterLogin(location) {
			return nil
		}

		if !loginInput.skipCheck {
			if err := a.CheckBackend(ctx); err != nil {
				return err
			}
		}

		username, password := loginInput.username, loginInput.password
		loginInput.password = ""

		if len(username) == 0 || len(password) == 0 {
			if !isInteractive() {
				if location.Param(app.RegisteredParam) == "true" {
					return nil
				}
				return errLoginRequired
			}
			destination, _ := a.Ledger.Peek()
			if err := promptLogin(&username, &password, destination); err != nil {
				return err
			}
		}

		_, err := a.SubmitLogin(ctx, username, password)
		return err
	}
}

// promptLogin asks for credentials. destination, when known, is where a
// successful login leads.
func promptLogin(username, password *string, destination string) error {
	description := "Sign in to the travel service"
	if len(destination) > 0 {
		description = fmt.Sprintf("Sign in to continue to %s", destination)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Description(description).
				Value(username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(password).
				Validate(required("password")),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("login prompt cancelled: %w", err)
	}

	return nil
}

func registerView(a *app.App) router.View {
	return func(ctx context.Context, location router.Location) error {
		if !a.EnterRegister(location) {
			return nil
		}

		user := registerInput
		if len(user.ConfirmPassword) == 0 {
			user.ConfirmPassword = user.Password
		}

		if len(user.Username) == 0 || len(user.Email) == 0 || len(user.Password) == 0 {
			if !isInteractive() {
				return errNotTerminal
			}
			if err := promptRegistration(&user); err != nil {
				return err
			}
		}

		if err := a.SubmitRegistration(ctx, user); err != nil {
			return err
		}

		// Offer the new account to the login view.
		loginInput.username = user.Username
		return nil
	}
}

func promptRegistration(user *models.NewUser) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&user.Username).
				Validate(required("username")),
			huh.NewInput().
				Title("Email").
				Value(&user.Email).
				Validate(required("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&user.Password).
				Validate(required("password")),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&user.ConfirmPassword).
				Validate(func(value string) error {
					if value != user.Password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		),
	).WithShowHelp(true)

	if err := form.Run(); err != nil {
		return fmt.Errorf("registration cancelled: %w", err)
	}

	return nil
}

func searchView(a *app.App) router.View {
	return func(ctx context.Context, location router.Location) error {
		query := location.Param(queryParam)

		if len(query) == 0 {
			if !shellMode {
				printSearchHint(a)
				return nil
			}
			err := huh.NewInput().
				Title("Ask a travel question").
				Placeholder("Cheapest way from Berlin to Rome in May").
				Value(&query).
				Run()
			if err != nil {
				return err
			}
		}

		var response *models.SearchResponse
		err := runWithSpinner(ctx, "Searching travel options...", func(ctx context.Context) error {
			var err error
			response, err = a.Search(ctx, query)
			return err
		})
		if err != nil {
			return err
		}

		printAnswer(query, response.Response)
		return nil
	}
}

func historyView(a *app.App) router.View {
	return func(ctx context.Context, location router.Location) error {
		page, err := a.History(ctx, intParam(location, pageParam), intParam(location, sizeParam))
		if err != nil {
			return err
		}

		printHistoryPage(page)

		if shellMode {
			return browseHistory(a, page)
		}
		return nil
	}
}

// browseHistory lets the shell pick a record or another page.
func browseHistory(a *app.App, page *app.HistoryPage) error {
	var options []huh.Option[string]

	for _, record := range page.Records {
		options = append(options, huh.NewOption(
			fmt.Sprintf("#%d %s", record.ID, preview(record.Query, previewLength)),
			recordURL(pathRecord, record.ID),
		))
	}
	if page.HasNext() {
		options = append(options, huh.NewOption("Next page", pageURL(page.Page+1, page.PageSize)))
	}
	if page.HasPrevious() {
		options = append(options, huh.NewOption("Previous page", pageURL(page.Page-1, page.PageSize)))
	}
	options = append(options, huh.NewOption("Back", ""))

	var next string
	err := huh.NewSelect[string]().
		Title("Open a record").
		Options(options...).
		Value(&next).
		Run()
	if err != nil {
		return err
	}

	if len(next) > 0 {
		a.Router.RequestNavigation(next)
	}
	return nil
}

func recordView(a *app.App) router.View {
	return func(ctx context.Context, location router.Location) error {
		id, err := recordID(location)
		if err != nil {
			a.Notifier.Warning(err.Error())
			return err
		}

		record, err := a.HistoryRecord(ctx, id)
		if err != nil {
			return err
		}

		printRecord(record)

		if !shellMode {
			return nil
		}

		var next string
		err = huh.NewSelect[string]().
			Title("What next?").
			Options(
				huh.NewOption("Back to history", app.PathHistory),
				huh.NewOption("Delete this record", recordURL(pathDelete, record.ID)),
			).
			Value(&next).
			Run()
		if err != nil {
			return err
		}

		a.Router.RequestNavigation(next)
		return nil
	}
}

func latestView(a *app.App) router.View {
	return func(ctx context.Context, _ router.Location) error {
		record, err := a.LatestHistory(ctx)
		if err != nil {
			return err
		}
		printRecord(record)
		return nil
	}
}

func deleteView(a *app.App) router.View {
	return func(ctx context.Context, location router.Location) error {
		id, err := recordID(location)
		if err != nil {
			a.Notifier.Warning(err.Error())
			return err
		}

		if location.Param(confirmParam) != "true" {
			if !isInteractive() {
				return errNotConfirmed
			}

			var confirmed bool
			err := huh.NewConfirm().
				Title(fmt.Sprintf("Delete history record #%d?", id)).
				Description("This cannot be undone").
				Value(&confirmed).
				Run()
			if err != nil {
				return err
			}
			if !confirmed {
				a.Notifier.Info("Nothing deleted")
				return nil
			}
		}

		if err := a.DeleteHistory(ctx, id); err != nil {
			return err
		}

		if shellMode {
			a.Router.RequestNavigation(app.PathHistory)
		}
		return nil
	}
}

func required(field string) func(string) error {
	return func(value string) error {
		if len(value) == 0 {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func intParam(location router.Location, key string) int {
	value, err := strconv.Atoi(location.Param(key))
	if err != nil {
		return 0
	}
	return value
}

func recordID(location router.Location) (int, error) {
	id := intParam(location, idParam)
	if id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

func recordURL(path string, id int) string {
	return router.WithQuery(path, map[string]string{idParam: strconv.Itoa(id)})
}

func pageURL(page, size int) string {
	params := map[string]string{
		pageParam: strconv.Itoa(max(page, 1)),
	}
	if size > 0 {
		params[sizeParam] = strconv.Itoa(size)
	}
	return router.WithQuery(app.PathHistory, params)
}
